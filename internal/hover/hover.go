// Package hover tracks which readable element, if any, is under the pointer
// and where an overlay for it should be placed.
package hover

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/readables/internal/bounds"
	"github.com/hyperifyio/readables/internal/readable"
)

// Hovered is the placement data for the element under the pointer.
type Hovered struct {
	Element           readable.Node
	Top               float64
	Left              float64
	HeightOfFirstLine float64
}

// Resolve returns the first element, in the given order, whose bounds
// contain p. It returns nil when no element does. Elements whose bounds
// cannot be measured are skipped; their error is returned only when no
// element matched.
func Resolve(ctx context.Context, p bounds.Point, elements []readable.Node, bp bounds.Provider, lm bounds.LineMeasurer) (*Hovered, error) {
	var errs []error
	for _, el := range elements {
		r, err := bp.Bounds(ctx, el)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !r.Contains(p) {
			continue
		}
		h := &Hovered{Element: el, Top: r.Top, Left: r.Left}
		if lm != nil {
			lh, err := lm.FirstLineHeight(ctx, el)
			if err != nil {
				return nil, fmt.Errorf("first line height: %w", err)
			}
			h.HeightOfFirstLine = lh
		}
		return h, nil
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("bounds: %w", errors.Join(errs...))
	}
	return nil, nil
}

// Tracker consumes pointer positions and keeps the hovered element current.
// Run must be called by a single goroutine.
type Tracker struct {
	elements []readable.Node
	bounds   bounds.Provider
	lines    bounds.LineMeasurer
	log      zerolog.Logger

	mu      sync.Mutex
	current *Hovered
	updates chan *Hovered
}

// NewTracker returns a Tracker over elements. lm may be nil, in which case
// HeightOfFirstLine stays zero.
func NewTracker(elements []readable.Node, bp bounds.Provider, lm bounds.LineMeasurer, logger zerolog.Logger) *Tracker {
	return &Tracker{
		elements: elements,
		bounds:   bp,
		lines:    lm,
		log:      logger,
		updates:  make(chan *Hovered, 1),
	}
}

// Current returns the last resolved value, nil when nothing is hovered.
func (t *Tracker) Current() *Hovered {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Updates delivers the value computed for each pointer event. Only the most
// recent value is kept when the reader falls behind.
func (t *Tracker) Updates() <-chan *Hovered { return t.updates }

// Run recomputes the hovered element for every point received on events.
// It returns nil when events is closed and ctx.Err() when ctx is done.
// A measurement failure is logged and treated as nothing hovered, so a stale
// element is never reported after the pointer moves.
func (t *Tracker) Run(ctx context.Context, events <-chan bounds.Point) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok := <-events:
			if !ok {
				return nil
			}
			t.handle(ctx, p)
		}
	}
}

func (t *Tracker) handle(ctx context.Context, p bounds.Point) {
	h, err := Resolve(ctx, p, t.elements, t.bounds, t.lines)
	if err != nil {
		t.log.Warn().Err(err).Float64("x", p.X).Float64("y", p.Y).Msg("hover resolve failed")
		h = nil
	}
	t.mu.Lock()
	t.current = h
	t.mu.Unlock()

	select {
	case <-t.updates:
	default:
	}
	select {
	case t.updates <- h:
	default:
	}
}
