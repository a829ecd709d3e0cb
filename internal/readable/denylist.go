package readable

import (
	"sort"
	"strings"

	"golang.org/x/net/html/atom"
)

// DefaultDenyTags are the tags that are never reported as readable blocks
// themselves. Their descendants are still searched.
var DefaultDenyTags = []string{
	"h1", "h2", "h3", "h4", "h5", "h6",
	"button", "label", "span", "img", "pre", "script",
}

var defaultDenylist = NewDenylist(DefaultDenyTags...)

// Denylist is a fixed set of tag names. Known HTML tags are keyed by their
// atom; names without an atom (custom elements) fall back to a string set.
// A Denylist is read-only once built and safe for concurrent use.
type Denylist struct {
	atoms map[atom.Atom]struct{}
	names map[string]struct{}
}

// NewDenylist builds a Denylist from tag names. Names are trimmed and
// lower-cased; empty names are ignored.
func NewDenylist(tags ...string) *Denylist {
	d := &Denylist{
		atoms: make(map[atom.Atom]struct{}),
		names: make(map[string]struct{}),
	}
	for _, t := range tags {
		d.add(t)
	}
	return d
}

// DefaultDenylist returns the shared default Denylist.
func DefaultDenylist() *Denylist { return defaultDenylist }

// With returns a new Denylist holding the receiver's tags plus tags.
func (d *Denylist) With(tags ...string) *Denylist {
	out := NewDenylist(d.Tags()...)
	for _, t := range tags {
		out.add(t)
	}
	return out
}

// Contains reports whether tag is denied. Matching is case-insensitive.
func (d *Denylist) Contains(tag string) bool {
	if d == nil {
		return false
	}
	name := normalizeTag(tag)
	if name == "" {
		return false
	}
	if a := atom.Lookup([]byte(name)); a != 0 {
		_, ok := d.atoms[a]
		return ok
	}
	_, ok := d.names[name]
	return ok
}

// Len returns the number of denied tags.
func (d *Denylist) Len() int {
	if d == nil {
		return 0
	}
	return len(d.atoms) + len(d.names)
}

// Tags returns the denied tag names in sorted order.
func (d *Denylist) Tags() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, d.Len())
	for a := range d.atoms {
		out = append(out, a.String())
	}
	for n := range d.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (d *Denylist) add(tag string) {
	name := normalizeTag(tag)
	if name == "" {
		return
	}
	if a := atom.Lookup([]byte(name)); a != 0 {
		d.atoms[a] = struct{}{}
		return
	}
	d.names[name] = struct{}{}
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
