// Package htmldom adapts golang.org/x/net/html trees to readable.Node.
package htmldom

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hyperifyio/readables/internal/readable"
)

// Element wraps an element node of a parsed document. The zero Element is a
// malformed node: it has no tag, children or text.
type Element struct {
	node *html.Node
}

// Wrap returns n as a readable.Node, or nil when n is nil.
func Wrap(n *html.Node) readable.Node {
	if n == nil {
		return nil
	}
	return Element{node: n}
}

// Unwrap returns the underlying *html.Node of an Element, or nil.
func Unwrap(n readable.Node) *html.Node {
	if e, ok := n.(Element); ok {
		return e.node
	}
	return nil
}

func (e Element) Tag() string {
	if e.node == nil || e.node.Type != html.ElementNode {
		return ""
	}
	return e.node.Data
}

func (e Element) Children() []readable.Node {
	if e.node == nil {
		return nil
	}
	var out []readable.Node
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, Element{node: c})
		}
	}
	return out
}

func (e Element) Text() []string {
	if e.node == nil {
		return nil
	}
	var out []string
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			out = append(out, c.Data)
		}
	}
	return out
}

// Path returns the element-child indexes leading from the nearest <body>
// ancestor (or the topmost element ancestor) down to e.
func (e Element) Path() []int {
	var rev []int
	for n := e.node; n != nil && n.Parent != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			break
		}
		if n.Parent.Type != html.ElementNode {
			break
		}
		rev = append(rev, elementIndex(n))
	}
	out := make([]int, len(rev))
	for i, v := range rev {
		out[len(rev)-1-i] = v
	}
	return out
}

// Describe returns a short label such as "div#content-1.note".
func (e Element) Describe() string {
	if e.node == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Tag())
	if id := Attr(e.node, "id"); id != "" {
		b.WriteString("#")
		b.WriteString(id)
	}
	for _, cls := range strings.Fields(Attr(e.node, "class")) {
		b.WriteString(".")
		b.WriteString(cls)
	}
	return b.String()
}

// TextContent returns the visible text of the subtree, skipping script and
// style contents.
func (e Element) TextContent() string {
	if e.node == nil {
		return ""
	}
	return TextContent(e.node)
}

func elementIndex(n *html.Node) int {
	i := 0
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			i++
		}
	}
	return i
}

// Parse parses a full HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	return html.Parse(r)
}

// ParseBody parses a document and returns its <body> as a readable.Node.
// The HTML parser always synthesizes a body, so the result is non-nil on
// success.
func ParseBody(r io.Reader) (readable.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return Wrap(Body(doc)), nil
}

// Body returns the first <body> element under doc, or nil.
func Body(doc *html.Node) *html.Node {
	return Find(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Body
	})
}

// ByID returns the first element whose id attribute equals id, or nil.
func ByID(doc *html.Node, id string) *html.Node {
	return Find(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && Attr(n, "id") == id
	})
}

// Find returns the first node in document order satisfying match.
func Find(root *html.Node, match func(*html.Node) bool) *html.Node {
	if root == nil {
		return nil
	}
	stack := []*html.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if match(n) {
			return n
		}
		for c := n.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
	}
	return nil
}

// Attr returns the value of attribute key on n, or "".
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// TextContent concatenates descendant text in document order.
func TextContent(n *html.Node) string {
	var b strings.Builder
	stack := []*html.Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch cur.Type {
		case html.TextNode:
			b.WriteString(cur.Data)
			continue
		case html.ElementNode:
			if cur.DataAtom == atom.Script || cur.DataAtom == atom.Style {
				continue
			}
		}
		for c := cur.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
	}
	return b.String()
}
