// Package doctree models the structured letter templates as a typed node
// graph and renders resolved trees to HTML.
//
// Templates arrive as editor JSON: a root "doc" node holding an ordered list
// of typed content nodes. Two node kinds are placeholders resolved at
// generation time — variable nodes carrying a field key, and signature nodes
// replaced with the claimant's embedded signature image.
package doctree

import (
	"encoding/json"
	"strconv"
	"strings"
)

// NodeType is the closed set of node kinds the renderer understands.
type NodeType int

const (
	// NodeUnknown is the forward-compatibility passthrough: node kinds this
	// build does not recognize decode into it and render as their children.
	NodeUnknown NodeType = iota
	NodeDoc
	NodeParagraph
	NodeHeading
	NodeText
	NodeHardBreak
	NodeImage
	NodeBulletList
	NodeOrderedList
	NodeListItem
	NodeBlockquote
	NodeHorizontalRule
	NodeTable
	NodeTableRow
	NodeTableCell
	NodeTableHeader
	NodeVariable
	NodeSignature
)

var nodeTypeNames = map[string]NodeType{
	"doc":            NodeDoc,
	"paragraph":      NodeParagraph,
	"heading":        NodeHeading,
	"text":           NodeText,
	"hardBreak":      NodeHardBreak,
	"image":          NodeImage,
	"bulletList":     NodeBulletList,
	"orderedList":    NodeOrderedList,
	"listItem":       NodeListItem,
	"blockquote":     NodeBlockquote,
	"horizontalRule": NodeHorizontalRule,
	"table":          NodeTable,
	"tableRow":       NodeTableRow,
	"tableCell":      NodeTableCell,
	"tableHeader":    NodeTableHeader,
	"variable":       NodeVariable,
	"signature":      NodeSignature,
	// Older templates name the signature node differently.
	"signatureImage": NodeSignature,
}

// MarkType enumerates the inline decorations applied to text nodes.
type MarkType int

const (
	MarkUnknown MarkType = iota
	MarkBold
	MarkItalic
	MarkUnderline
	MarkStrike
	MarkLink
	MarkTextStyle
)

var markTypeNames = map[string]MarkType{
	"bold":      MarkBold,
	"italic":    MarkItalic,
	"underline": MarkUnderline,
	"strike":    MarkStrike,
	"link":      MarkLink,
	"textStyle": MarkTextStyle,
}

// Mark is one inline decoration. Marks wrap a text node's output in the order
// they are declared.
type Mark struct {
	Type       MarkType
	Href       string
	FontSize   string
	Color      string
	FontFamily string
}

// Attrs carries the per-node attributes the renderer consumes. Unused fields
// stay zero for node kinds that do not carry them.
type Attrs struct {
	TextAlign    string
	MarginTop    string
	MarginBottom string
	MarginLeft   string
	LineHeight   string
	Level        int
	Src          string
	Width        int
	FieldKey     string
	Label        string
	Colspan      int
}

// Node is one node of a structured document. RawType preserves the incoming
// type string for NodeUnknown so diagnostics can name what was skipped.
type Node struct {
	Type    NodeType
	RawType string
	Text    string
	Marks   []Mark
	Attrs   Attrs
	Content []*Node
}

type markJSON struct {
	Type  string `json:"type"`
	Attrs struct {
		Href       string `json:"href"`
		FontSize   string `json:"fontSize"`
		Color      string `json:"color"`
		FontFamily string `json:"fontFamily"`
	} `json:"attrs"`
}

type attrsJSON struct {
	TextAlign    string          `json:"textAlign"`
	MarginTop    string          `json:"marginTop"`
	MarginBottom string          `json:"marginBottom"`
	MarginLeft   string          `json:"marginLeft"`
	LineHeight   string          `json:"lineHeight"`
	Level        int             `json:"level"`
	Src          string          `json:"src"`
	Width        json.RawMessage `json:"width"`
	FieldKey     string          `json:"fieldKey"`
	Label        string          `json:"label"`
	Colspan      int             `json:"colspan"`
}

type nodeJSON struct {
	Type    string    `json:"type"`
	Text    string    `json:"text"`
	Marks   []markJSON `json:"marks"`
	Attrs   *attrsJSON `json:"attrs"`
	Content []*Node    `json:"content"`
}

// UnmarshalJSON decodes editor JSON. Unknown node kinds become NodeUnknown
// rather than failing, so templates produced by a newer editor still render
// their recognizable content.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.Type = nodeTypeNames[raw.Type]
	if n.Type == NodeUnknown {
		n.RawType = raw.Type
	}
	n.Text = raw.Text
	n.Content = raw.Content
	n.Marks = n.Marks[:0]
	for _, m := range raw.Marks {
		mark := Mark{
			Type:       markTypeNames[m.Type],
			Href:       m.Attrs.Href,
			FontSize:   m.Attrs.FontSize,
			Color:      m.Attrs.Color,
			FontFamily: m.Attrs.FontFamily,
		}
		n.Marks = append(n.Marks, mark)
	}
	if raw.Attrs != nil {
		n.Attrs = Attrs{
			TextAlign:    raw.Attrs.TextAlign,
			MarginTop:    raw.Attrs.MarginTop,
			MarginBottom: raw.Attrs.MarginBottom,
			MarginLeft:   raw.Attrs.MarginLeft,
			LineHeight:   raw.Attrs.LineHeight,
			Level:        raw.Attrs.Level,
			Src:          raw.Attrs.Src,
			Width:        decodeWidth(raw.Attrs.Width),
			FieldKey:     raw.Attrs.FieldKey,
			Label:        raw.Attrs.Label,
			Colspan:      raw.Attrs.Colspan,
		}
	}
	return nil
}

// decodeWidth tolerates both numeric and string widths ("200" vs 200); the
// editor has emitted both over time.
func decodeWidth(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, convErr := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "px")); convErr == nil {
			return parsed
		}
	}
	return 0
}

// ParseDocument decodes a structured template body. Multi-page templates
// (a "__pages" array of documents) merge into a single doc with a rule
// between pages.
func ParseDocument(data []byte) (*Node, error) {
	var pages struct {
		Pages []*Node `json:"__pages"`
	}
	if err := json.Unmarshal(data, &pages); err == nil && len(pages.Pages) > 0 {
		merged := &Node{Type: NodeDoc}
		for i, page := range pages.Pages {
			if i > 0 {
				merged.Content = append(merged.Content, &Node{Type: NodeHorizontalRule})
			}
			merged.Content = append(merged.Content, page.Content...)
		}
		return merged, nil
	}
	var doc Node
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Clone deep-copies a node tree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Marks = append([]Mark(nil), n.Marks...)
	out.Content = make([]*Node, len(n.Content))
	for i, child := range n.Content {
		out.Content[i] = child.Clone()
	}
	return &out
}
