package readable_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/hyperifyio/readables/internal/htmldom"
	"github.com/hyperifyio/readables/internal/readable"
)

func BenchmarkSelect_WideDocument(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("<!doctype html><html><body><main>")
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&sb, "<section><h2>Part %d</h2><p>Para %d with <b>bold</b> text.</p><ul><li>a</li><li>b</li></ul></section>", i, i)
	}
	sb.WriteString("</main></body></html>")
	root, err := htmldom.ParseBody(strings.NewReader(sb.String()))
	if err != nil {
		b.Fatalf("parse: %v", err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = readable.Select(root, readable.Options{})
	}
}
