// Package browser drives a Chrome page through Rod to capture the live
// document, measure elements and stream pointer positions.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"

	"github.com/hyperifyio/readables/internal/bounds"
	"github.com/hyperifyio/readables/internal/readable"
	"github.com/hyperifyio/readables/internal/snapshot"
)

// Config configures a browser session.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of a running Chrome. Empty
	// launches a local headless Chrome.
	RemoteURL string
	// Headful shows the browser window when launching locally.
	Headful bool
	// Stealth applies go-rod/stealth evasions to the page.
	Stealth bool
	// NavigateTimeout bounds navigation and load. Default: 30s.
	NavigateTimeout time.Duration
	// EvalTimeout bounds each measurement query. Default: 5s.
	EvalTimeout time.Duration

	Logger zerolog.Logger
}

func (c *Config) defaults() {
	if c.NavigateTimeout <= 0 {
		c.NavigateTimeout = 30 * time.Second
	}
	if c.EvalTimeout <= 0 {
		c.EvalTimeout = 5 * time.Second
	}
}

// Session is one page in a browser. It implements bounds.Provider and
// bounds.LineMeasurer for nodes that carry a document path.
type Session struct {
	cfg     Config
	browser *rod.Browser
	page    *rod.Page
	lnch    *launcher.Launcher
	log     zerolog.Logger

	closeOnce sync.Once
}

// Open starts or connects to Chrome and navigates a new page to pageURL.
func Open(ctx context.Context, cfg Config, pageURL string) (*Session, error) {
	cfg.defaults()
	s := &Session{cfg: cfg, log: cfg.Logger}

	controlURL := cfg.RemoteURL
	if controlURL == "" {
		s.lnch = launcher.New().Headless(!cfg.Headful).Context(ctx)
		u, err := s.lnch.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch chrome: %w", err)
		}
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		s.killLauncher()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	s.browser = b

	var page *rod.Page
	var err error
	if cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: create page: %w", err)
	}
	s.page = page

	navCtx, cancel := context.WithTimeout(ctx, cfg.NavigateTimeout)
	defer cancel()
	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		s.log.Warn().Err(err).Str("url", pageURL).Msg("wait load timed out")
	}
	s.log.Debug().Str("url", pageURL).Bool("stealth", cfg.Stealth).Msg("page opened")
	return s, nil
}

// Close closes the page and the browser, and kills a locally launched
// Chrome.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.page != nil {
			if cerr := s.page.Close(); cerr != nil {
				err = cerr
			}
		}
		if s.browser != nil {
			if cerr := s.browser.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		s.killLauncher()
	})
	return err
}

func (s *Session) killLauncher() {
	if s.lnch != nil {
		s.lnch.Kill()
		s.lnch.Cleanup()
	}
}

// Snapshot captures document.body as an indexed snapshot tree.
func (s *Session) Snapshot(ctx context.Context) (*snapshot.Node, error) {
	res, err := s.page.Context(ctx).Eval(snapshotJS)
	if err != nil {
		return nil, fmt.Errorf("browser: snapshot: %w", err)
	}
	raw := res.Value.Str()
	if raw == "" {
		return nil, errors.New("browser: snapshot: document has no body")
	}
	root, err := snapshot.Decode(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("browser: %w", err)
	}
	return root, nil
}

// Bounds returns the page-coordinate bounding box of n.
func (s *Session) Bounds(ctx context.Context, n readable.Node) (bounds.Rect, error) {
	path, err := bounds.PathOf(n)
	if err != nil {
		return bounds.Rect{}, err
	}
	var box struct {
		Left, Top, Width, Height, ScrollX, ScrollY float64
	}
	if err := s.evalJSON(ctx, boundsJS, path, &box); err != nil {
		return bounds.Rect{}, err
	}
	return bounds.FromViewport(box.Left, box.Top, box.Width, box.Height, box.ScrollX, box.ScrollY), nil
}

// FirstLineHeight measures the height of the first rendered line of n on a
// hidden clone, leaving the document unchanged.
func (s *Session) FirstLineHeight(ctx context.Context, n readable.Node) (float64, error) {
	path, err := bounds.PathOf(n)
	if err != nil {
		return 0, err
	}
	var out struct {
		Height float64
	}
	if err := s.evalJSON(ctx, firstLineJS, path, &out); err != nil {
		return 0, err
	}
	return out.Height, nil
}

func (s *Session) evalJSON(ctx context.Context, js string, path []int, dst interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.EvalTimeout)
	defer cancel()
	res, err := s.page.Context(ctx).Eval(js, path)
	if err != nil {
		return fmt.Errorf("browser: eval: %w", err)
	}
	raw := res.Value.Str()
	if raw == "" {
		return bounds.ErrDetached
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("browser: decode eval result: %w", err)
	}
	return nil
}

// PointerEvents subscribes to mousemove on window and streams page
// coordinates. The returned stop function removes the listener, ends the
// subscription and closes the channel; it is safe to call more than once.
// Cancelling ctx also ends the subscription.
func (s *Session) PointerEvents(ctx context.Context) (<-chan bounds.Point, func(), error) {
	if err := (proto.RuntimeAddBinding{Name: pointerBinding}).Call(s.page); err != nil {
		s.log.Warn().Err(err).Msg("add pointer binding failed (may already exist)")
	}

	lctx, cancel := context.WithCancel(ctx)
	out := make(chan bounds.Point, 64)
	wait := s.page.Context(lctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != pointerBinding {
			return
		}
		var p bounds.Point
		if err := json.Unmarshal([]byte(e.Payload), &p); err != nil {
			s.log.Debug().Err(err).Msg("bad pointer payload")
			return
		}
		select {
		case out <- p:
		case <-lctx.Done():
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(out)
		wait()
	}()

	if _, err := s.page.Context(lctx).Eval(installPointerJS); err != nil {
		cancel()
		<-done
		return nil, nil, fmt.Errorf("browser: install pointer listener: %w", err)
	}

	var once sync.Once
	stop := func() {
		once.Do(func() {
			rctx, rcancel := context.WithTimeout(context.Background(), s.cfg.EvalTimeout)
			defer rcancel()
			if _, err := s.page.Context(rctx).Eval(removePointerJS); err != nil {
				s.log.Debug().Err(err).Msg("remove pointer listener failed")
			}
			cancel()
			<-done
		})
	}
	return out, stop, nil
}
