// Package snapshot holds a serialisable copy of a document tree, as captured
// from a live page, that implements readable.Node.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/readables/internal/readable"
)

// Node is one element of a snapshot. The JSON shape matches what the browser
// capture script emits.
type Node struct {
	TagName string   `json:"tag"`
	ID      string   `json:"id,omitempty"`
	Class   string   `json:"class,omitempty"`
	Texts   []string `json:"text,omitempty"`
	Kids    []*Node  `json:"children,omitempty"`

	path []int
}

func (n *Node) Tag() string {
	if n == nil {
		return ""
	}
	return strings.ToLower(n.TagName)
}

func (n *Node) Children() []readable.Node {
	if n == nil || len(n.Kids) == 0 {
		return nil
	}
	out := make([]readable.Node, 0, len(n.Kids))
	for _, k := range n.Kids {
		if k != nil {
			out = append(out, k)
		}
	}
	return out
}

func (n *Node) Text() []string {
	if n == nil {
		return nil
	}
	return n.Texts
}

// Path returns the element-child indexes from the snapshot root to n.
// It is only populated after Index (Decode and FromHTML call it).
func (n *Node) Path() []int {
	if n == nil {
		return nil
	}
	return n.path
}

// Describe returns a short label such as "div#main.note".
func (n *Node) Describe() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(n.Tag())
	if n.ID != "" {
		b.WriteString("#" + n.ID)
	}
	for _, c := range strings.Fields(n.Class) {
		b.WriteString("." + c)
	}
	return b.String()
}

// TextContent concatenates all text in the subtree. Own text units come
// before the text of children because the snapshot does not keep their
// interleaving.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.Tag() == "script" || cur.Tag() == "style" {
			continue
		}
		for _, t := range cur.Texts {
			b.WriteString(t)
			b.WriteString(" ")
		}
		for i := len(cur.Kids) - 1; i >= 0; i-- {
			if cur.Kids[i] != nil {
				stack = append(stack, cur.Kids[i])
			}
		}
	}
	return b.String()
}

// Index fills the paths of the subtree rooted at n.
func (n *Node) Index() {
	if n == nil {
		return
	}
	n.path = []int{}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		i := 0
		for _, k := range cur.Kids {
			if k == nil {
				continue
			}
			k.path = append(append(make([]int, 0, len(cur.path)+1), cur.path...), i)
			stack = append(stack, k)
			i++
		}
	}
}

// Decode reads a JSON snapshot and indexes it.
func Decode(r io.Reader) (*Node, error) {
	var root Node
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if strings.TrimSpace(root.TagName) == "" {
		return nil, fmt.Errorf("decode snapshot: root has no tag")
	}
	root.Index()
	return &root, nil
}

// Encode writes n as indented JSON.
func Encode(w io.Writer, n *Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(n)
}

// FromHTML converts an element subtree of a parsed document into a snapshot.
// Comments and other non-element, non-text nodes are dropped.
func FromHTML(h *html.Node) *Node {
	if h == nil || h.Type != html.ElementNode {
		return nil
	}
	type pair struct {
		src *html.Node
		dst *Node
	}
	root := &Node{TagName: h.Data}
	stack := []pair{{h, root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, a := range p.src.Attr {
			switch a.Key {
			case "id":
				p.dst.ID = a.Val
			case "class":
				p.dst.Class = a.Val
			}
		}
		for c := p.src.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				p.dst.Texts = append(p.dst.Texts, c.Data)
			case html.ElementNode:
				k := &Node{TagName: c.Data}
				p.dst.Kids = append(p.dst.Kids, k)
				stack = append(stack, pair{c, k})
			}
		}
	}
	root.Index()
	return root
}
