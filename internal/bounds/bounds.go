// Package bounds describes element geometry in page coordinates and the
// collaborators that measure it.
package bounds

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperifyio/readables/internal/readable"
)

// ErrUnlocatable is returned when a node carries no document path and so
// cannot be resolved to a live element.
var ErrUnlocatable = errors.New("bounds: node has no document path")

// ErrDetached is returned when a path no longer resolves in the live
// document.
var ErrDetached = errors.New("bounds: element is no longer in the document")

// Point is a pointer position in page coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned box in page coordinates (scroll-adjusted).
// Top equals Y and Left equals X.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
}

// FromViewport converts a viewport-relative client rect into page
// coordinates using the current scroll offsets.
func FromViewport(left, top, width, height, scrollX, scrollY float64) Rect {
	x := left + scrollX
	y := top + scrollY
	return Rect{X: x, Y: y, Width: width, Height: height, Top: y, Left: x}
}

// Contains reports whether p lies inside r. Edges count as inside.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.Width && p.Y <= r.Y+r.Height
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.0f,%.0f %.0fx%.0f)", r.X, r.Y, r.Width, r.Height)
}

// Provider returns the bounding box of an element.
type Provider interface {
	Bounds(ctx context.Context, n readable.Node) (Rect, error)
}

// LineMeasurer returns the rendered height of an element's first line of
// text.
type LineMeasurer interface {
	FirstLineHeight(ctx context.Context, n readable.Node) (float64, error)
}

// Locator is implemented by nodes that know their element-child index path
// from the document body.
type Locator interface {
	Path() []int
}

// PathOf returns the document path of n.
func PathOf(n readable.Node) ([]int, error) {
	loc, ok := n.(Locator)
	if !ok || n == nil {
		return nil, ErrUnlocatable
	}
	p := loc.Path()
	if p == nil {
		return nil, ErrUnlocatable
	}
	return p, nil
}
