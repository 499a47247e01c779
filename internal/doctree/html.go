package doctree

import (
	"fmt"
	"strings"
)

// RenderHTML converts a resolved document to letter-body HTML.
//
// A leading run of right-aligned paragraphs (the firm's address block),
// optionally preceded by a logo-bearing paragraph, is treated as a letterhead
// and rendered side-by-side with the logo in a two-column table. Everything
// else renders as a vertical flow.
func RenderHTML(doc *Node, logoDataURI string) string {
	if doc == nil || len(doc.Content) == 0 {
		return ""
	}

	var (
		headerNodes []*Node
		bodyStart   int
	)
	for i, node := range doc.Content {
		if node.Type == NodeParagraph && containsImage(node) {
			// Logo paragraph at the top; the letterhead injects its own logo.
			bodyStart = i + 1
			continue
		}
		if node.Attrs.TextAlign == "right" {
			headerNodes = append(headerNodes, node)
			bodyStart = i + 1
			continue
		}
		break
	}

	var b strings.Builder
	switch {
	case len(headerNodes) > 0 && logoDataURI != "":
		var details strings.Builder
		for _, n := range headerNodes {
			details.WriteString(nodeHTML(n))
		}
		fmt.Fprintf(&b, `<table class="letterhead" style="width:100%%; border:none; border-collapse:collapse; margin-bottom:10px;"><tr>`+
			`<td style="width:150px; vertical-align:middle; padding:0;"><img src="%s" style="width:120px;" /></td>`+
			`<td style="vertical-align:top; text-align:right; padding:0;">%s</td>`+
			`</tr></table>`, logoDataURI, details.String())
	case len(headerNodes) > 0:
		for _, n := range headerNodes {
			b.WriteString(nodeHTML(n))
		}
	}
	for _, node := range doc.Content[bodyStart:] {
		b.WriteString(nodeHTML(node))
	}
	return b.String()
}

func containsImage(n *Node) bool {
	for _, child := range n.Content {
		if child.Type == NodeImage {
			return true
		}
	}
	return false
}

func nodeHTML(n *Node) string {
	if n == nil {
		return ""
	}
	switch n.Type {
	case NodeDoc:
		return childrenHTML(n)

	case NodeParagraph:
		inner := childrenHTML(n)
		if inner == "" {
			// Preserve vertical spacing: empty paragraphs still take a line.
			inner = "&nbsp;"
		}
		return "<p" + styleAttr(paragraphStyles(n)) + ">" + inner + "</p>"

	case NodeHeading:
		level := n.Attrs.Level
		if level < 1 || level > 6 {
			level = 1
		}
		tag := fmt.Sprintf("h%d", level)
		return "<" + tag + styleAttr(paragraphStyles(n)) + ">" + childrenHTML(n) + "</" + tag + ">"

	case NodeText:
		return textHTML(n)

	case NodeHardBreak:
		return "<br>"

	case NodeImage:
		style := ""
		if n.Attrs.Width > 0 {
			style = fmt.Sprintf(` style="width: %dpx"`, n.Attrs.Width)
		}
		return fmt.Sprintf(`<img src="%s"%s />`, escapeHTML(n.Attrs.Src), style)

	case NodeBulletList:
		return "<ul>" + childrenHTML(n) + "</ul>"

	case NodeOrderedList:
		return "<ol>" + childrenHTML(n) + "</ol>"

	case NodeListItem:
		return "<li>" + childrenHTML(n) + "</li>"

	case NodeBlockquote:
		return "<blockquote>" + childrenHTML(n) + "</blockquote>"

	case NodeHorizontalRule:
		return "<hr>"

	case NodeTable:
		return `<table style="width:100%; border-collapse:collapse; border:1px solid #000;">` + childrenHTML(n) + "</table>"

	case NodeTableRow:
		return "<tr>" + childrenHTML(n) + "</tr>"

	case NodeTableCell, NodeTableHeader:
		tag := "td"
		if n.Type == NodeTableHeader {
			tag = "th"
		}
		colspan := ""
		if n.Attrs.Colspan > 1 {
			colspan = fmt.Sprintf(` colspan="%d"`, n.Attrs.Colspan)
		}
		return fmt.Sprintf(`<%s%s style="border: 1px solid #000; padding: 8px">%s</%s>`, tag, colspan, childrenHTML(n), tag)

	case NodeVariable, NodeSignature:
		// Should have been resolved; render nothing rather than leaking a
		// placeholder into the letter.
		return ""

	default:
		// Unknown kinds render their children so newer templates degrade
		// gracefully instead of failing.
		return childrenHTML(n)
	}
}

func childrenHTML(n *Node) string {
	var b strings.Builder
	for _, child := range n.Content {
		b.WriteString(nodeHTML(child))
	}
	return b.String()
}

func textHTML(n *Node) string {
	text := escapeHTML(n.Text)
	for _, mark := range n.Marks {
		switch mark.Type {
		case MarkBold:
			text = "<strong>" + text + "</strong>"
		case MarkItalic:
			text = "<em>" + text + "</em>"
		case MarkUnderline:
			text = "<u>" + text + "</u>"
		case MarkStrike:
			text = "<s>" + text + "</s>"
		case MarkLink:
			text = `<a href="` + escapeHTML(mark.Href) + `">` + text + "</a>"
		case MarkTextStyle:
			var styles []string
			if mark.FontSize != "" {
				styles = append(styles, "font-size: "+mark.FontSize)
			}
			if mark.Color != "" {
				styles = append(styles, "color: "+mark.Color)
			}
			if mark.FontFamily != "" {
				styles = append(styles, "font-family: "+mark.FontFamily)
			}
			if len(styles) > 0 {
				text = `<span style="` + strings.Join(styles, "; ") + `">` + text + "</span>"
			}
		}
	}
	return text
}

func paragraphStyles(n *Node) []string {
	var styles []string
	if n.Attrs.TextAlign != "" {
		styles = append(styles, "text-align: "+n.Attrs.TextAlign)
	}
	if n.Attrs.MarginTop != "" {
		styles = append(styles, "margin-top: "+n.Attrs.MarginTop)
	}
	if n.Attrs.MarginBottom != "" {
		styles = append(styles, "margin-bottom: "+n.Attrs.MarginBottom)
	}
	if n.Attrs.MarginLeft != "" {
		styles = append(styles, "margin-left: "+n.Attrs.MarginLeft)
	}
	if n.Attrs.LineHeight != "" {
		styles = append(styles, "line-height: "+n.Attrs.LineHeight)
	}
	return styles
}

func styleAttr(styles []string) string {
	if len(styles) == 0 {
		return ""
	}
	return ` style="` + strings.Join(styles, "; ") + `"`
}

func escapeHTML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}
