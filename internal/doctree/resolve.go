package doctree

// signatureWidth is the rendered width of an embedded signature image.
const signatureWidth = 200

// Resolve returns a copy of the tree with every variable and signature node
// substituted. Substitution happens before children are visited, so a
// substituted node is always a leaf of the result.
func Resolve(n *Node, vars map[string]string) *Node {
	if n == nil {
		return nil
	}
	switch n.Type {
	case NodeVariable:
		value := vars[n.Attrs.FieldKey]
		if value == "" {
			value = n.Attrs.Label
		}
		if value == "" {
			value = n.Attrs.FieldKey
		}
		return &Node{Type: NodeText, Text: value}
	case NodeSignature:
		if sig := vars["signature"]; sig != "" {
			return &Node{Type: NodeImage, Attrs: Attrs{Src: sig, Width: signatureWidth}}
		}
		return &Node{
			Type:    NodeParagraph,
			Content: []*Node{{Type: NodeText, Text: "[Signature]"}},
		}
	}
	out := *n
	out.Marks = append([]Mark(nil), n.Marks...)
	out.Content = make([]*Node, len(n.Content))
	for i, child := range n.Content {
		out.Content[i] = Resolve(child, vars)
	}
	return &out
}
