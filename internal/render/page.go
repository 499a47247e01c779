package render

import (
	"fmt"
	"strings"
)

// pageCSS is the fixed A4 letter geometry shared by both document kinds. The
// rasterizer prints with matching margins; the footer is absolutely
// positioned so it repeats on every page.
const pageCSS = `
        @page { size: A4; margin: 15mm; }
        body {
            font-family: 'Arial', sans-serif;
            font-size: 11pt;
            color: #000;
            line-height: 1.5;
            margin: 0;
            padding: 25px;
        }
        p { margin: 0 0 4px 0; }
        h1 { font-size: 13pt; margin: 8px 0; }
        h2 { font-size: 12pt; margin: 6px 0; }
        h3, h4 { font-size: 11pt; margin: 4px 0; }
        a { color: #000; text-decoration: underline; }
        img { max-width: 100%; }
        .letterhead img { width: 120px; }
        ul, ol { margin: 4px 0 4px 20px; padding-left: 10px; }
        li { margin: 2px 0; }
        li p { margin: 0; }
        table { border-collapse: collapse; }
        .page-break { page-break-before: always; }
        .footer {
            position: fixed;
            bottom: 0;
            left: 0;
            right: 0;
            font-size: 7pt;
            text-align: center;
            color: #555;
            padding: 5px 15mm;
            border-top: 1px solid #ddd;
            background: #fff;
            line-height: 1.3;
        }`

// WrapDocument embeds a rendered letter body in a complete HTML page with the
// fixed page styling and regulatory footer.
func WrapDocument(body, footerText string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n    <style>")
	b.WriteString(pageCSS)
	b.WriteString("\n    </style>\n</head>\n<body>\n    ")
	b.WriteString(body)
	fmt.Fprintf(&b, "\n    <div class=\"footer\">%s</div>\n</body>\n</html>", footerText)
	return b.String()
}
