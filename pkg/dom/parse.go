package dom

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Document is a styled tree together with the author stylesheets found in
// its <style> elements.
type Document struct {
	Tree        *Tree
	Stylesheets []string
}

// ParseHTML builds a Document from markup. Comments, doctype, <head> content
// and <script> are dropped; whitespace-only text between elements is dropped.
func ParseHTML(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	doc := &Document{Tree: NewTree()}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		doc.convert(c, NoNode)
	}
	return doc, nil
}

// ParseHTMLString is ParseHTML over a string.
func ParseHTMLString(s string) (*Document, error) {
	return ParseHTML(strings.NewReader(s))
}

func (d *Document) convert(n *html.Node, parent NodeID) {
	switch n.Type {
	case html.TextNode:
		if parent == NoNode || strings.TrimSpace(n.Data) == "" {
			return
		}
		d.Tree.AddText(parent, n.Data)
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		switch tag {
		case "style":
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					d.Stylesheets = append(d.Stylesheets, c.Data)
				}
			}
			return
		case "script", "head", "title", "meta", "link":
			if tag == "head" {
				// <style> may live in <head>
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.ElementNode && strings.EqualFold(c.Data, "style") {
						d.convert(c, parent)
					}
				}
			}
			return
		}
		node := Node{Tag: tag, Type: ElementNode}
		for _, a := range n.Attr {
			key := strings.ToLower(a.Key)
			switch key {
			case "id":
				node.ID = a.Val
			case "class":
				node.Classes = strings.Fields(a.Val)
			case "style":
				node.Style[PseudoNormal] = ParseDeclarations(a.Val)
			default:
				if node.Attributes == nil {
					node.Attributes = make(map[string]string)
				}
				node.Attributes[key] = a.Val
			}
		}
		switch tag {
		case "img":
			node.Type = ImageNode
			node.Image = node.Attributes["src"]
		case "iframe":
			node.Type = IFrameNode
		}
		id := d.Tree.AppendChild(parent, node)
		if node.Type != ElementNode {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			d.convert(c, id)
		}
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			d.convert(c, parent)
		}
	}
}
