// Package report turns selected readable elements into blocks and renders
// them for output.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/hyperifyio/readables/internal/bounds"
	"github.com/hyperifyio/readables/internal/readable"
)

// Block is one readable element prepared for output.
type Block struct {
	Index    int    `json:"index"`
	Tag      string `json:"tag"`
	Source   string `json:"source,omitempty"`
	Selector string `json:"selector,omitempty"`
	Path     []int  `json:"path,omitempty"`
	Text     string `json:"text"`
}

type describer interface {
	Describe() string
}

type texter interface {
	TextContent() string
}

// Build converts matches into blocks, in order. Optional capabilities of the
// nodes (Describe, TextContent, Path) fill the matching fields.
func Build(matches []readable.Match) []Block {
	out := make([]Block, 0, len(matches))
	for i, m := range matches {
		b := Block{Index: i + 1, Tag: m.Element.Tag()}
		if m.Source != nil && m.Source != m.Element {
			b.Source = label(m.Source)
		}
		if p, err := bounds.PathOf(m.Element); err == nil {
			b.Path = p
			b.Selector = CSSPath(p)
		}
		if t, ok := m.Element.(texter); ok {
			b.Text = NormalizeText(t.TextContent())
		} else {
			b.Text = NormalizeText(strings.Join(m.Element.Text(), " "))
		}
		out = append(out, b)
	}
	return out
}

func label(n readable.Node) string {
	if d, ok := n.(describer); ok {
		return d.Describe()
	}
	return n.Tag()
}

// NormalizeText applies NFC and collapses runs of whitespace to one space.
func NormalizeText(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// CSSPath renders an element path below body as a CSS selector, e.g.
// "body > :nth-child(2) > :nth-child(1)".
func CSSPath(path []int) string {
	var b strings.Builder
	b.WriteString("body")
	for _, i := range path {
		b.WriteString(" > :nth-child(")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(")")
	}
	return b.String()
}

// Title returns the text of the first block truncated to max runes, used as
// a document title when none is configured.
func Title(blocks []Block, max int) string {
	if len(blocks) == 0 {
		return "Readable blocks"
	}
	r := []rune(blocks[0].Text)
	if max > 0 && len(r) > max {
		return strings.TrimSpace(string(r[:max])) + "…"
	}
	if len(r) == 0 {
		return fmt.Sprintf("Readable blocks (%d)", len(blocks))
	}
	return string(r)
}
