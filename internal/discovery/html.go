package discovery

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"github.com/rotisserie/eris"
)

// anchor is a parsed <a> element: its href and visible text.
type anchor struct {
	href string
	text string
}

func parseHTML(body []byte) (*html.Node, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "discovery: parse html")
	}
	return doc, nil
}

// collectAnchors walks a subtree and returns its anchors in document order.
func collectAnchors(n *html.Node) []anchor {
	var anchors []anchor
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := attrVal(n, "href"); href != "" {
				anchors = append(anchors, anchor{
					href: href,
					text: strings.TrimSpace(nodeText(n)),
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return anchors
}

// findFooter locates a footer-like element: a <footer> tag, or any element
// whose class contains "footer". Returns nil when no such element exists.
func findFooter(doc *html.Node) *html.Node {
	var byClass *html.Node
	var walk func(*html.Node) *html.Node
	walk = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode {
			if n.Data == "footer" {
				return n
			}
			if byClass == nil && strings.Contains(strings.ToLower(attrVal(n, "class")), "footer") {
				byClass = n
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := walk(c); found != nil {
				return found
			}
		}
		return nil
	}
	if tag := walk(doc); tag != nil {
		return tag
	}
	return byClass
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
