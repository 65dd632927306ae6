package extract

import (
	"strings"

	"golang.org/x/net/html"
)

var blockTags = map[string]struct{}{
	"address": {}, "article": {}, "aside": {}, "blockquote": {}, "div": {},
	"dd": {}, "dl": {}, "dt": {}, "fieldset": {}, "figure": {}, "footer": {},
	"form": {}, "h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"header": {}, "li": {}, "main": {}, "nav": {}, "ol": {}, "p": {},
	"section": {}, "table": {}, "td": {}, "th": {}, "tr": {}, "ul": {},
	"label": {},
}

// textLines renders a node's text the way a browser lays it out: block
// elements and <br> break lines, everything else flows. Lines come back
// trimmed with empties dropped.
func textLines(node *html.Node) []string {
	if node == nil {
		return nil
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "br":
				b.WriteString("\n")
				return
			}
			_, block := blockTags[n.Data]
			if block {
				b.WriteString("\n")
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			if block {
				b.WriteString("\n")
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
