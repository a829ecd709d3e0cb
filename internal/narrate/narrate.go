// Package narrate reads report blocks aloud by rendering each one to an
// audio file.
package narrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/readables/internal/llm"
	"github.com/hyperifyio/readables/internal/report"
)

const (
	DefaultModel    = "tts-1"
	DefaultVoice    = "alloy"
	DefaultFormat   = "mp3"
	DefaultMaxChars = 4096
)

// Narrator renders blocks through a speech backend.
type Narrator struct {
	Speaker llm.Speaker
	Model   string
	Voice   string
	Format  string
	// Dir receives one file per block named NNN.<format>.
	Dir string
	// MaxChars truncates block text at a word boundary before synthesis.
	MaxChars int
	// Concurrency caps parallel synthesis calls. Default: 1.
	Concurrency int
}

func (n *Narrator) defaults() {
	if n.Model == "" {
		n.Model = DefaultModel
	}
	if n.Voice == "" {
		n.Voice = DefaultVoice
	}
	if n.Format == "" {
		n.Format = DefaultFormat
	}
	if n.MaxChars <= 0 {
		n.MaxChars = DefaultMaxChars
	}
	if n.Concurrency <= 0 {
		n.Concurrency = 1
	}
}

// Narrate writes one audio file per non-empty block and returns the paths
// in block order. Up to Concurrency blocks are synthesized at once. On error
// the paths of files already written are returned with it.
func (n Narrator) Narrate(ctx context.Context, blocks []report.Block) ([]string, error) {
	if n.Speaker == nil {
		return nil, errors.New("narrate: no speaker configured")
	}
	if strings.TrimSpace(n.Dir) == "" {
		return nil, errors.New("narrate: output directory is empty")
	}
	n.defaults()
	if err := os.MkdirAll(n.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("narrate: mkdir: %w", err)
	}

	done := make([]string, len(blocks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.Concurrency)
	for i, b := range blocks {
		text := Truncate(b.Text, n.MaxChars)
		if text == "" {
			continue
		}
		path := filepath.Join(n.Dir, fmt.Sprintf("%03d.%s", b.Index, n.Format))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := n.speakTo(gctx, text, path); err != nil {
				return fmt.Errorf("narrate block %d: %w", b.Index, err)
			}
			log.Debug().Int("block", b.Index).Str("file", path).Msg("narrated")
			done[i] = path
			return nil
		})
	}
	err := g.Wait()

	var paths []string
	for _, p := range done {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths, err
}

func (n Narrator) speakTo(ctx context.Context, text, path string) error {
	rc, err := n.Speaker.Speak(ctx, llm.SpeechRequest{Model: n.Model, Voice: n.Voice, Format: n.Format, Input: text})
	if err != nil {
		return err
	}
	defer rc.Close()

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, rc); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Truncate shortens s to at most max runes, cutting at the last space when
// one exists in the second half.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	cut := string(r[:max])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}
