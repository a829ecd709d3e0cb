// Package readable finds the top-level readable elements of a markup tree:
// the blocks a read-aloud or annotation overlay should attach to.
//
// A node is a candidate when it directly owns non-blank text, its tag is not
// denylisted, it does not have exactly one element child, and it does not
// contain another node that qualifies on its own. Each candidate is reported
// at the outermost ancestor reachable through parents that have exactly one
// element child, stopping below the query root.
//
// Selection only reads the tree. Callers must not mutate the tree while
// Select runs.
package readable

import (
	"fmt"
	"reflect"
	"strings"
)

// Node is a read-only handle into a host tree. Nil children, including typed
// nil pointers, are skipped.
type Node interface {
	// Tag returns the element name, e.g. "div".
	Tag() string
	// Children returns the element children in document order. Text,
	// comments and other non-element nodes are not included.
	Children() []Node
	// Text returns the node's own text units in document order. Text owned
	// by descendants is not included.
	Text() []string
}

// Containment controls how deep the minimality check looks when deciding
// whether a candidate contains another qualifying node.
type Containment int

const (
	// ContainDescendants rejects a candidate when any strict descendant
	// qualifies on its own.
	ContainDescendants Containment = iota
	// ContainChildren rejects a candidate only when a direct child
	// qualifies on its own.
	ContainChildren
)

func (c Containment) String() string {
	switch c {
	case ContainDescendants:
		return "descendants"
	case ContainChildren:
		return "children"
	default:
		return fmt.Sprintf("Containment(%d)", int(c))
	}
}

// ParseContainment maps "descendants" or "children" to a Containment.
// The empty string selects ContainDescendants.
func ParseContainment(s string) (Containment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "descendants", "deep":
		return ContainDescendants, nil
	case "children", "shallow":
		return ContainChildren, nil
	}
	return 0, fmt.Errorf("unknown containment mode %q", s)
}

// Options configures selection.
type Options struct {
	// Denylist holds tags that are never reported themselves. Nil selects
	// DefaultDenylist.
	Denylist *Denylist

	Containment Containment
}

// Match pairs a reported element with the candidate it was derived from.
// Element is Source or one of its single-child ancestors.
type Match struct {
	Element Node
	Source  Node
}

// Select returns the top-level readable elements under root in document
// order. A nil root yields no elements.
func Select(root Node, opt Options) []Node {
	matches := SelectMatches(root, opt)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Node, len(matches))
	for i, m := range matches {
		out[i] = m.Element
	}
	return out
}

// SelectMatches is Select but also reports the candidate behind each
// element.
func SelectMatches(root Node, opt Options) []Match {
	if isNil(root) {
		return nil
	}
	deny := opt.Denylist
	if deny == nil {
		deny = defaultDenylist
	}
	entries := flatten(root, deny)

	var out []Match
	for i := 1; i < len(entries); {
		e := &entries[i]
		if !e.qualifies || e.contains(opt.Containment) {
			i++
			continue
		}
		top := collapse(entries, i)
		out = append(out, Match{Element: entries[top].node, Source: e.node})
		i = e.end
	}
	return out
}

// entry is one node of the flattened tree. Entries are stored in pre-order,
// so the subtree of entry i occupies [i, end).
type entry struct {
	node     Node
	parent   int
	end      int
	children int
	// qualifies holds when the node owns text, is not denied and does not
	// have exactly one element child.
	qualifies bool
	// inChild and inDesc hold when a direct child, respectively any strict
	// descendant, qualifies.
	inChild bool
	inDesc  bool
}

func (e *entry) contains(mode Containment) bool {
	if mode == ContainChildren {
		return e.inChild
	}
	return e.inDesc
}

// flatten copies the tree under root into pre-order entries with an explicit
// stack, then sweeps them backwards to fill subtree bounds and containment.
func flatten(root Node, deny *Denylist) []entry {
	type frame struct {
		node   Node
		parent int
	}
	var entries []entry
	stack := []frame{{node: root, parent: -1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		idx := len(entries)
		kids := f.node.Children()
		n := 0
		for _, k := range kids {
			if !isNil(k) {
				n++
			}
		}
		entries = append(entries, entry{
			node:      f.node,
			parent:    f.parent,
			end:       idx + 1,
			children:  n,
			qualifies: n != 1 && hasOwnText(f.node) && !deny.Contains(f.node.Tag()),
		})
		for j := len(kids) - 1; j >= 0; j-- {
			if !isNil(kids[j]) {
				stack = append(stack, frame{node: kids[j], parent: idx})
			}
		}
	}

	for i := len(entries) - 1; i > 0; i-- {
		e := &entries[i]
		p := &entries[e.parent]
		if e.end > p.end {
			p.end = e.end
		}
		if e.qualifies {
			p.inChild = true
		}
		if e.qualifies || e.inDesc {
			p.inDesc = true
		}
	}
	return entries
}

// collapse walks up from entry i while the parent has exactly one element
// child. The root entry is never returned.
func collapse(entries []entry, i int) int {
	cur := i
	for {
		p := entries[cur].parent
		if p <= 0 || entries[p].children != 1 {
			return cur
		}
		cur = p
	}
}

// isNil reports whether n is nil or wraps a nil pointer, map, slice or func.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func hasOwnText(n Node) bool {
	for _, s := range n.Text() {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}
