package hover

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/goleak"

	"github.com/hyperifyio/readables/internal/bounds"
	"github.com/hyperifyio/readables/internal/htmldom"
	"github.com/hyperifyio/readables/internal/readable"
)

type fakeGeometry struct {
	rects   map[readable.Node]bounds.Rect
	lines   map[readable.Node]float64
	failing map[readable.Node]bool
}

func (f *fakeGeometry) Bounds(_ context.Context, n readable.Node) (bounds.Rect, error) {
	if f.failing[n] {
		return bounds.Rect{}, bounds.ErrDetached
	}
	r, ok := f.rects[n]
	if !ok {
		return bounds.Rect{}, bounds.ErrUnlocatable
	}
	return r, nil
}

func (f *fakeGeometry) FirstLineHeight(_ context.Context, n readable.Node) (float64, error) {
	return f.lines[n], nil
}

func setup(t *testing.T) ([]readable.Node, *fakeGeometry) {
	t.Helper()
	body, err := htmldom.ParseBody(strings.NewReader(`<p>first</p><p>second</p><p>third</p>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	els := readable.Select(body, readable.Options{})
	if len(els) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(els))
	}
	g := &fakeGeometry{
		rects: map[readable.Node]bounds.Rect{
			els[0]: bounds.FromViewport(0, 0, 100, 20, 0, 0),
			els[1]: bounds.FromViewport(0, 20, 100, 20, 0, 0),
			els[2]: bounds.FromViewport(0, 30, 100, 40, 0, 0),
		},
		lines: map[readable.Node]float64{
			els[0]: 18, els[1]: 19, els[2]: 21,
		},
		failing: map[readable.Node]bool{},
	}
	return els, g
}

func TestResolve_FirstContainingElementWins(t *testing.T) {
	els, g := setup(t)
	h, err := Resolve(context.Background(), bounds.Point{X: 50, Y: 35}, els, g, g)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if h == nil || h.Element != els[1] {
		t.Fatalf("expected the second element to win the overlap")
	}
	if h.Top != 20 || h.Left != 0 || h.HeightOfFirstLine != 19 {
		t.Fatalf("unexpected placement: %+v", *h)
	}
}

func TestResolve_NothingHovered(t *testing.T) {
	els, g := setup(t)
	h, err := Resolve(context.Background(), bounds.Point{X: 500, Y: 500}, els, g, nil)
	if err != nil || h != nil {
		t.Fatalf("expected nil, nil; got %v, %v", h, err)
	}
}

func TestResolve_SkipsUnmeasurableElements(t *testing.T) {
	els, g := setup(t)
	g.failing[els[0]] = true
	h, err := Resolve(context.Background(), bounds.Point{X: 10, Y: 25}, els, g, nil)
	if err != nil || h == nil || h.Element != els[1] {
		t.Fatalf("expected second element despite first failing; got %v, %v", h, err)
	}
	_, err = Resolve(context.Background(), bounds.Point{X: 10, Y: 5}, els[:1], g, nil)
	if !errors.Is(err, bounds.ErrDetached) {
		t.Fatalf("expected ErrDetached when nothing matched, got %v", err)
	}
}

func TestTracker_PublishesAndStopsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	els, g := setup(t)
	tr := NewTracker(els, g, g, zerolog.Nop())
	events := make(chan bounds.Point)
	done := make(chan error, 1)
	go func() { done <- tr.Run(context.Background(), events) }()

	events <- bounds.Point{X: 5, Y: 5}
	h := <-tr.Updates()
	if h == nil || h.Element != els[0] || h.HeightOfFirstLine != 18 {
		t.Fatalf("unexpected first update: %+v", h)
	}

	events <- bounds.Point{X: 500, Y: 500}
	if h := <-tr.Updates(); h != nil {
		t.Fatalf("expected nil when leaving all elements, got %+v", *h)
	}
	if tr.Current() != nil {
		t.Fatalf("expected Current to be nil")
	}

	close(events)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error on close, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("tracker did not stop after events closed")
	}
}

func TestTracker_StopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	els, g := setup(t)
	tr := NewTracker(els, g, nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan bounds.Point)
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx, events) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("tracker did not stop after cancel")
	}
}

func TestTracker_ResolveErrorClearsState(t *testing.T) {
	els, g := setup(t)
	tr := NewTracker(els[:1], g, nil, zerolog.Nop())
	tr.handle(context.Background(), bounds.Point{X: 5, Y: 5})
	if tr.Current() == nil {
		t.Fatalf("expected a hovered element")
	}
	<-tr.Updates()

	g.failing[els[0]] = true
	tr.handle(context.Background(), bounds.Point{X: 6, Y: 6})
	if tr.Current() != nil {
		t.Fatalf("expected nothing hovered after a failed resolve")
	}
	select {
	case h := <-tr.Updates():
		if h != nil {
			t.Fatalf("expected a nil update, got %+v", *h)
		}
	default:
		t.Fatalf("expected an update after the failed resolve")
	}
}

func TestTracker_LeavingElementWithUnmeasurableSibling(t *testing.T) {
	defer goleak.VerifyNone(t)

	els, g := setup(t)
	g.failing[els[2]] = true
	tr := NewTracker(els, g, g, zerolog.Nop())
	events := make(chan bounds.Point)
	done := make(chan error, 1)
	go func() { done <- tr.Run(context.Background(), events) }()

	events <- bounds.Point{X: 5, Y: 5}
	if h := <-tr.Updates(); h == nil || h.Element != els[0] {
		t.Fatalf("expected the first element, got %+v", h)
	}
	events <- bounds.Point{X: 900, Y: 900}
	if h := <-tr.Updates(); h != nil {
		t.Fatalf("expected nil after leaving every element, got %+v", *h)
	}
	if tr.Current() != nil {
		t.Fatalf("expected Current to be nil after the pointer left")
	}
	close(events)
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}
