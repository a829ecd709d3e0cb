package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/readables/internal/browser"
	"github.com/hyperifyio/readables/internal/htmldom"
	"github.com/hyperifyio/readables/internal/readable"
	"github.com/hyperifyio/readables/internal/snapshot"
)

// source is a loaded tree plus, in browser mode, the live session that
// produced it.
type source struct {
	name    string
	root    readable.Node
	session *browser.Session
}

func (s *source) close() {
	if s.session != nil {
		if err := s.session.Close(); err != nil {
			log.Debug().Err(err).Msg("browser close")
		}
	}
}

func (a *App) load(ctx context.Context) (*source, error) {
	if a.cfg.UseBrowser {
		return a.loadBrowser(ctx)
	}
	if u := strings.TrimSpace(a.cfg.URL); u != "" {
		page, err := a.fetcher.Get(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", u, err)
		}
		log.Debug().Str("url", page.URL).Bool("cached", page.FromCache).Int("bytes", len(page.Body)).Msg("fetched page")
		root, err := htmldom.ParseBody(bytes.NewReader(page.Body))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", u, err)
		}
		return &source{name: page.URL, root: root}, nil
	}

	name := strings.TrimSpace(a.cfg.InputPath)
	var r io.Reader
	if name == "" || name == "-" {
		name = "stdin"
		r = a.Stdin
	} else {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	if strings.EqualFold(filepath.Ext(name), ".json") {
		root, err := snapshot.Decode(r)
		if err != nil {
			return nil, err
		}
		return &source{name: name, root: root}, nil
	}
	root, err := htmldom.ParseBody(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return &source{name: name, root: root}, nil
}

func (a *App) loadBrowser(ctx context.Context) (*source, error) {
	target := strings.TrimSpace(a.cfg.URL)
	if target == "" {
		abs, err := filepath.Abs(a.cfg.InputPath)
		if err != nil {
			return nil, fmt.Errorf("resolve input: %w", err)
		}
		target = (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	}
	s, err := browser.Open(ctx, browser.Config{
		RemoteURL: a.cfg.BrowserRemote,
		Headful:   a.cfg.BrowserHeadful,
		Stealth:   a.cfg.BrowserStealth,
		Logger:    log.Logger.With().Str("component", "browser").Logger(),
	}, target)
	if err != nil {
		return nil, err
	}
	root, err := s.Snapshot(ctx)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return &source{name: target, root: root, session: s}, nil
}
