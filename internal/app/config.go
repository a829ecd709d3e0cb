package app

import (
	"errors"
	"strings"
	"time"

	"github.com/hyperifyio/readables/internal/readable"
	"github.com/hyperifyio/readables/internal/report"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Input
	InputPath string
	URL       string

	// Output
	OutputPath   string
	PDFPath      string
	SnapshotPath string
	Format       string

	// Browser
	UseBrowser     bool
	BrowserRemote  string
	BrowserStealth bool
	BrowserHeadful bool
	Hover          bool

	// Selection
	Deny        []string
	DenyExtra   []string
	Containment string

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	// Narration
	NarrateDir         string
	NarrateVoice       string
	NarrateModel       string
	NarrateFormat      string
	NarrateConcurrency int

	// LLM
	LLMBaseURL string
	LLMAPIKey  string

	// Behavior
	ConfigPath   string
	EnvFiles     []string
	UserAgent    string
	IgnoreRobots bool
	Watch        bool
	Verbose      bool
}

// Denylist builds the selector denylist: Deny replaces the defaults when
// set, DenyExtra is always added.
func (c Config) Denylist() *readable.Denylist {
	d := readable.DefaultDenylist()
	if len(c.Deny) > 0 {
		d = readable.NewDenylist(c.Deny...)
	}
	if len(c.DenyExtra) > 0 {
		d = d.With(c.DenyExtra...)
	}
	return d
}

// ValidateConfig performs minimal validation of settings that would otherwise
// fail late.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.InputPath) != "" && strings.TrimSpace(cfg.URL) != "" {
		return errors.New("config: input and url are mutually exclusive")
	}
	if cfg.Hover && !cfg.UseBrowser {
		return errors.New("config: hover requires the browser")
	}
	if cfg.UseBrowser && strings.TrimSpace(cfg.URL) == "" && strings.TrimSpace(cfg.InputPath) == "" {
		return errors.New("config: browser mode needs a url or an input file")
	}
	if _, err := report.ParseFormat(cfg.Format); err != nil {
		return errors.New("config: " + err.Error())
	}
	if _, err := readable.ParseContainment(cfg.Containment); err != nil {
		return errors.New("config: " + err.Error())
	}
	if cfg.Watch && (cfg.UseBrowser || strings.TrimSpace(cfg.URL) != "" || strings.TrimSpace(cfg.InputPath) == "" || cfg.InputPath == "-") {
		return errors.New("config: watch needs an input file")
	}
	if cfg.CacheMaxAge < 0 {
		return errors.New("config: cache max age must not be negative")
	}
	return nil
}

// splitList parses a comma-separated list, dropping empty items.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			list = append(list, v)
		}
	}
	return list
}
