package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/readables/internal/browser"
	"github.com/hyperifyio/readables/internal/cache"
	"github.com/hyperifyio/readables/internal/fetch"
	"github.com/hyperifyio/readables/internal/hover"
	"github.com/hyperifyio/readables/internal/htmldom"
	"github.com/hyperifyio/readables/internal/llm"
	"github.com/hyperifyio/readables/internal/narrate"
	"github.com/hyperifyio/readables/internal/readable"
	"github.com/hyperifyio/readables/internal/report"
	"github.com/hyperifyio/readables/internal/robots"
	"github.com/hyperifyio/readables/internal/snapshot"
)

// ErrNoReadableBlocks is returned when the selector finds nothing to report.
// The CLI maps it to exit code 2.
var ErrNoReadableBlocks = errors.New("no readable blocks")

type App struct {
	cfg     Config
	format  report.Format
	options readable.Options
	client  *http.Client
	fetcher *fetch.Client
	speaker llm.Speaker

	// Stdin and Stdout default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
}

func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	format, _ := report.ParseFormat(cfg.Format)
	containment, _ := readable.ParseContainment(cfg.Containment)

	a := &App{
		cfg:     cfg,
		format:  format,
		options: readable.Options{Denylist: cfg.Denylist(), Containment: containment},
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
	}

	httpClient := newHTTPClient()
	a.client = httpClient
	a.fetcher = &fetch.Client{
		HTTPClient:        httpClient,
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       3,
		PerRequestTimeout: 30 * time.Second,
		MaxConcurrent:     4,
	}
	if cfg.CacheDir != "" && cfg.URL != "" && !cfg.UseBrowser {
		if cfg.CacheClear {
			if err := cache.Clear(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeOlderThan(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
				log.Warn().Err(err).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		a.fetcher.Cache = &cache.Pages{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}
	if !cfg.IgnoreRobots {
		a.fetcher.Robots = &robots.Manager{HTTPClient: httpClient, Cache: a.fetcher.Cache, UserAgent: cfg.UserAgent}
	}
	if cfg.NarrateDir != "" {
		a.speaker = llm.New(llm.Config{BaseURL: cfg.LLMBaseURL, APIKey: cfg.LLMAPIKey, HTTPClient: httpClient})
	}
	return a, nil
}

// Close releases idle connections held by the shared HTTP client.
func (a *App) Close() {
	if a.client != nil {
		a.client.CloseIdleConnections()
	}
}

// Run loads the page, selects the readable blocks and writes the report,
// then the optional PDF and narration. With hover enabled it keeps logging
// the hovered block until ctx is done; with watch enabled it repeats the run
// whenever the input file changes.
func (a *App) Run(ctx context.Context) error {
	err := a.runOnce(ctx)
	if !a.cfg.Watch {
		return err
	}
	if err != nil && !errors.Is(err, ErrNoReadableBlocks) {
		return err
	}
	log.Info().Str("input", a.cfg.InputPath).Msg("watching input for changes; interrupt to stop")
	return watchInput(ctx, a.cfg.InputPath, watchDebounce, a.runOnce)
}

const watchDebounce = 200 * time.Millisecond

func (a *App) runOnce(ctx context.Context) error {
	src, err := a.load(ctx)
	if err != nil {
		return err
	}
	defer src.close()

	if p := strings.TrimSpace(a.cfg.SnapshotPath); p != "" {
		if err := writeSnapshot(p, src.root); err != nil {
			return err
		}
		log.Info().Str("snapshot", p).Msg("wrote snapshot")
	}
	matches := readable.SelectMatches(src.root, a.options)
	log.Info().Int("blocks", len(matches)).Str("source", src.name).Msg("selected readable blocks")
	if len(matches) == 0 {
		return ErrNoReadableBlocks
	}
	blocks := report.Build(matches)

	if err := a.writeReport(blocks); err != nil {
		return err
	}
	if p := strings.TrimSpace(a.cfg.PDFPath); p != "" {
		if err := report.WritePDF(p, report.Title(blocks, 80), blocks); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("pdf", p).Msg("wrote PDF")
	}
	if a.speaker != nil {
		n := narrate.Narrator{
			Speaker:     a.speaker,
			Dir:         a.cfg.NarrateDir,
			Model:       a.cfg.NarrateModel,
			Voice:       a.cfg.NarrateVoice,
			Format:      a.cfg.NarrateFormat,
			Concurrency: a.cfg.NarrateConcurrency,
		}
		files, err := n.Narrate(ctx, blocks)
		if err != nil {
			return fmt.Errorf("narrate: %w", err)
		}
		log.Info().Int("files", len(files)).Str("dir", a.cfg.NarrateDir).Msg("narrated blocks")
	}
	if a.cfg.Hover && src.session != nil {
		elements := make([]readable.Node, len(matches))
		for i, m := range matches {
			elements[i] = m.Element
		}
		return a.trackHover(ctx, src.session, elements, blocks)
	}
	return nil
}

func (a *App) writeReport(blocks []report.Block) error {
	out := a.Stdout
	if p := strings.TrimSpace(a.cfg.OutputPath); p != "" && p != "-" {
		if dir := filepath.Dir(p); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		f, err := os.Create(p)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := report.Render(out, blocks, a.format); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// writeSnapshot saves the loaded tree in the JSON shape accepted by -input
// *.json, so a browser capture can be replayed offline.
func writeSnapshot(path string, root readable.Node) error {
	snap, ok := root.(*snapshot.Node)
	if !ok {
		snap = snapshot.FromHTML(htmldom.Unwrap(root))
	}
	if snap == nil {
		return fmt.Errorf("write snapshot: unsupported tree %T", root)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := snapshot.Encode(f, snap); err != nil {
		f.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	return f.Close()
}

// trackHover streams pointer positions from the page into a hover tracker and
// logs each change until ctx is done.
func (a *App) trackHover(ctx context.Context, s *browser.Session, elements []readable.Node, blocks []report.Block) error {
	events, stop, err := s.PointerEvents(ctx)
	if err != nil {
		return fmt.Errorf("hover: %w", err)
	}
	defer stop()

	index := make(map[readable.Node]int, len(elements))
	for i, el := range elements {
		index[el] = i
	}
	logger := log.Logger.With().Str("component", "hover").Logger()
	tr := hover.NewTracker(elements, s, s, logger)

	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx, events) }()
	log.Info().Int("blocks", len(elements)).Msg("tracking pointer; interrupt to stop")

	for {
		select {
		case err := <-done:
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case h := <-tr.Updates():
			logHovered(logger, h, index, blocks)
		}
	}
}

func logHovered(logger zerolog.Logger, h *hover.Hovered, index map[readable.Node]int, blocks []report.Block) {
	if h == nil {
		logger.Info().Msg("nothing hovered")
		return
	}
	i, ok := index[h.Element]
	if !ok {
		return
	}
	logger.Info().
		Int("block", blocks[i].Index).
		Str("tag", blocks[i].Tag).
		Float64("top", h.Top).
		Float64("left", h.Left).
		Float64("firstLine", h.HeightOfFirstLine).
		Msg("hovered")
}
