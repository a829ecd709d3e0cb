package readable

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDenylist_DefaultMembers(t *testing.T) {
	d := DefaultDenylist()
	for _, tag := range []string{"H1", "h6", "BUTTON", "label", "Span", "img", "pre", "script"} {
		if !d.Contains(tag) {
			t.Fatalf("expected %q to be denied", tag)
		}
	}
	for _, tag := range []string{"p", "div", "blockquote", "address", "", "   "} {
		if d.Contains(tag) {
			t.Fatalf("did not expect %q to be denied", tag)
		}
	}
	if d.Len() != len(DefaultDenyTags) {
		t.Fatalf("expected %d tags, got %d", len(DefaultDenyTags), d.Len())
	}
}

func TestDenylist_WithDoesNotMutateReceiver(t *testing.T) {
	base := NewDenylist("span")
	ext := base.With("x-note", "ASIDE")
	if base.Contains("aside") || base.Contains("x-note") {
		t.Fatalf("With must not modify the receiver")
	}
	want := []string{"aside", "span", "x-note"}
	if diff := cmp.Diff(want, ext.Tags()); diff != "" {
		t.Fatalf("unexpected tags (-want +got):\n%s", diff)
	}
}

func TestDenylist_NilIsEmpty(t *testing.T) {
	var d *Denylist
	if d.Contains("span") || d.Len() != 0 || d.Tags() != nil {
		t.Fatalf("nil denylist should behave as empty")
	}
}
