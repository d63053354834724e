package fetch

import (
	"strings"

	"golang.org/x/net/html"
)

// blockTags are elements that end a line of text when converting HTML
// to plain text. Keeping paragraph boundaries helps citation matching
// stay within a paragraph's edit budget.
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "br": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "section": true, "article": true,
}

// HTMLToText extracts the visible text of an HTML document. Malformed
// HTML falls back to returning the input unchanged.
func HTMLToText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}
	return extractVisibleText(doc)
}

func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			// Skip script, style, noscript tags
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if buf.Len() > 0 && !strings.HasSuffix(buf.String(), "\n") {
					buf.WriteString(" ")
				}
				buf.WriteString(text)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockTags[n.Data] {
			if buf.Len() > 0 && !strings.HasSuffix(buf.String(), "\n") {
				buf.WriteString("\n")
			}
		}
	}

	walk(n)
	return strings.TrimSpace(buf.String())
}
