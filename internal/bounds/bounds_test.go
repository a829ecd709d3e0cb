package bounds

import (
	"errors"
	"strings"
	"testing"

	"github.com/hyperifyio/readables/internal/htmldom"
	"github.com/hyperifyio/readables/internal/snapshot"
)

func TestRect_ContainsIsEdgeInclusive(t *testing.T) {
	r := FromViewport(10, 20, 100, 50, 0, 0)
	cases := []struct {
		p    Point
		want bool
	}{
		{Point{10, 20}, true},
		{Point{110, 70}, true},
		{Point{60, 45}, true},
		{Point{9.9, 45}, false},
		{Point{60, 70.1}, false},
	}
	for _, c := range cases {
		if got := r.Contains(c.p); got != c.want {
			t.Fatalf("Contains(%v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestFromViewport_AddsScroll(t *testing.T) {
	r := FromViewport(5, 7, 10, 10, 100, 200)
	if r.X != 105 || r.Left != 105 || r.Y != 207 || r.Top != 207 {
		t.Fatalf("unexpected rect: %+v", r)
	}
}

func TestPathOf(t *testing.T) {
	body, err := htmldom.ParseBody(strings.NewReader(`<div></div><p>x</p>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	p := body.Children()[1]
	path, err := PathOf(p)
	if err != nil || len(path) != 1 || path[0] != 1 {
		t.Fatalf("unexpected path %v err=%v", path, err)
	}

	if _, err := PathOf(nil); !errors.Is(err, ErrUnlocatable) {
		t.Fatalf("expected ErrUnlocatable for nil, got %v", err)
	}
	unindexed := &snapshot.Node{TagName: "p"}
	if _, err := PathOf(unindexed); !errors.Is(err, ErrUnlocatable) {
		t.Fatalf("expected ErrUnlocatable for unindexed snapshot node, got %v", err)
	}
}
