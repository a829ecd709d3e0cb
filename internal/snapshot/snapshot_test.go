package snapshot

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hyperifyio/readables/internal/htmldom"
	"github.com/hyperifyio/readables/internal/readable"
)

const captured = `{
  "tag": "BODY",
  "children": [
    {"tag": "DIV", "id": "wrap", "children": [
      {"tag": "BLOCKQUOTE", "text": ["Hello"]}
    ]},
    {"tag": "SECTION", "class": "c1 c2", "text": ["  "], "children": [
      {"tag": "P", "text": ["one"]},
      {"tag": "P", "text": ["two"]}
    ]}
  ]
}`

func TestDecode_SelectsFromCapturedSnapshot(t *testing.T) {
	root, err := Decode(strings.NewReader(captured))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var got []string
	var paths [][]int
	for _, n := range readable.Select(root, readable.Options{}) {
		sn := n.(*Node)
		got = append(got, sn.Describe())
		paths = append(paths, sn.Path())
	}
	if diff := cmp.Diff([]string{"div#wrap", "p", "p"}, got); diff != "" {
		t.Fatalf("unexpected selection (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]int{{0}, {1, 0}, {1, 1}}, paths); diff != "" {
		t.Fatalf("unexpected paths (-want +got):\n%s", diff)
	}
}

func TestDecode_RejectsMissingRootTag(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{"children": []}`)); err == nil {
		t.Fatalf("expected error for untagged root")
	}
	if _, err := Decode(strings.NewReader(`not json`)); err == nil {
		t.Fatalf("expected error for invalid json")
	}
}

func TestFromHTML_MatchesHTMLSelection(t *testing.T) {
	src := `<!doctype html><html><body>
      <main>
        <h1>Title</h1>
        <p>Intro <a href="#">link</a> text</p>
        <div><div><p>nested</p></div></div>
        <ul><li>a</li><li>b <em>c</em> <em>d</em></li></ul>
      </main></body></html>`
	doc, err := htmldom.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	body := htmldom.Body(doc)

	var fromHTML []string
	var htmlPaths [][]int
	for _, n := range readable.Select(htmldom.Wrap(body), readable.Options{}) {
		e := n.(htmldom.Element)
		fromHTML = append(fromHTML, e.Describe())
		htmlPaths = append(htmlPaths, e.Path())
	}

	snap := FromHTML(body)
	var fromSnap []string
	var snapPaths [][]int
	for _, n := range readable.Select(snap, readable.Options{}) {
		sn := n.(*Node)
		fromSnap = append(fromSnap, sn.Describe())
		snapPaths = append(snapPaths, sn.Path())
	}
	if len(fromHTML) == 0 {
		t.Fatalf("expected some elements")
	}
	if diff := cmp.Diff(fromHTML, fromSnap); diff != "" {
		t.Fatalf("snapshot selection differs (-html +snapshot):\n%s", diff)
	}
	if diff := cmp.Diff(htmlPaths, snapPaths); diff != "" {
		t.Fatalf("snapshot paths differ (-html +snapshot):\n%s", diff)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, snap); err != nil {
		t.Fatalf("encode: %v", err)
	}
	again, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n := len(readable.Select(again, readable.Options{})); n != len(fromSnap) {
		t.Fatalf("expected %d elements after round trip, got %d", len(fromSnap), n)
	}
}

func TestNode_NilSafe(t *testing.T) {
	var n *Node
	if n.Tag() != "" || n.Children() != nil || n.Text() != nil || n.Path() != nil || n.TextContent() != "" {
		t.Fatalf("nil node should be empty")
	}
	n.Index()
}
