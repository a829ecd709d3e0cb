package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperifyio/readables/internal/app"
)

// Smoke test: run writes a report for a local HTML file.
func TestRun_WritesReport(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.html")
	out := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(in, []byte("<body><article><p>Hello there.</p><p>Bye.</p></article></body>"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	cfg := app.Config{InputPath: in, OutputPath: out, Format: "text"}
	if err := run(context.Background(), cfg); err != nil {
		t.Fatalf("run error: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil || !strings.Contains(string(b), "Hello there.") {
		t.Fatalf("expected report output, got %q err=%v", b, err)
	}
}

// Ensures the exit code policy conditions are surfaced as errors from run().
func TestRun_NoReadableBlocks_ExitCode(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.html")
	if err := os.WriteFile(in, []byte("<body><h1>Title</h1></body>"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	err := run(context.Background(), app.Config{InputPath: in, OutputPath: filepath.Join(dir, "out.txt")})
	if !errors.Is(err, app.ErrNoReadableBlocks) {
		t.Fatalf("expected ErrNoReadableBlocks, got %v", err)
	}
	if code := exitCode(err); code != 2 {
		t.Fatalf("exit code %d, want 2", code)
	}
}

func TestExitCode(t *testing.T) {
	if exitCode(nil) != 0 {
		t.Fatalf("nil error should exit 0")
	}
	if exitCode(fmt.Errorf("wrapped: %w", app.ErrNoReadableBlocks)) != 2 {
		t.Fatalf("wrapped sentinel should exit 2")
	}
	if exitCode(errors.New("boom")) != 1 {
		t.Fatalf("other errors should exit 1")
	}
}
