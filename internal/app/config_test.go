package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestParseArgs_Defaults(t *testing.T) {
	t.Setenv("READABLES_FORMAT", "")
	t.Setenv("CACHE_DIR", "")
	var out bytes.Buffer
	cfg, err := ParseArgs([]string{"-env=", "page.html"}, &out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.InputPath != "page.html" || cfg.Format != "text" || cfg.Containment != "descendants" || cfg.CacheDir != ".readables-cache" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.UserAgent != DefaultUserAgent() {
		t.Fatalf("unexpected user agent %q", cfg.UserAgent)
	}
}

func TestParseArgs_PositionalURL(t *testing.T) {
	cfg, err := ParseArgs([]string{"-env=", "https://example.com/a"}, &bytes.Buffer{})
	if err != nil || cfg.URL != "https://example.com/a" || cfg.InputPath != "" {
		t.Fatalf("unexpected cfg %+v err=%v", cfg, err)
	}
}

func TestParseArgs_DenyLists(t *testing.T) {
	cfg, err := ParseArgs([]string{"-env=", "-deny", "p, li ,", "-deny.extra", "x-card", "in.html"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff([]string{"p", "li"}, cfg.Deny); diff != "" {
		t.Fatalf("deny mismatch:\n%s", diff)
	}
	d := cfg.Denylist()
	if !d.Contains("li") || !d.Contains("x-card") || d.Contains("span") {
		t.Fatalf("unexpected denylist: %v", d.Tags())
	}
}

func TestParseArgs_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "readables.yaml", `
format: markdown
containment: children
cache:
  dir: /from/file
  maxAge: 48h
narrate:
  voice: nova
llm:
  base: http://file.example/v1
`)
	t.Setenv("CACHE_DIR", "/from/env")
	t.Setenv("LLM_BASE_URL", "")
	t.Setenv("NARRATE_VOICE", "")
	t.Setenv("READABLES_FORMAT", "json")

	cfg, err := ParseArgs([]string{"-env=", "-config", cfgPath, "-format", "text", "in.html"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Format != "text" {
		t.Fatalf("explicit flag should win, got format %q", cfg.Format)
	}
	if cfg.CacheDir != "/from/env" {
		t.Fatalf("env should override file, got cache dir %q", cfg.CacheDir)
	}
	if cfg.Containment != "children" || cfg.NarrateVoice != "nova" || cfg.LLMBaseURL != "http://file.example/v1" {
		t.Fatalf("file values missing: %+v", cfg)
	}
	if cfg.CacheMaxAge != 48*time.Hour {
		t.Fatalf("CacheMaxAge=%v, want 48h", cfg.CacheMaxAge)
	}
}

func TestParseArgs_DotenvFiles(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "NARRATE_MODEL=tts-1-hd\n")
	t.Setenv("NARRATE_MODEL", "")
	cfg, err := ParseArgs([]string{"-env", envPath + "," + filepath.Join(dir, "missing.env"), "in.html"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.NarrateModel != "tts-1-hd" {
		t.Fatalf("NarrateModel=%q, want value from dotenv", cfg.NarrateModel)
	}
}

func TestParseArgs_Version(t *testing.T) {
	var out bytes.Buffer
	if _, err := ParseArgs([]string{"-version"}, &out); !errors.Is(err, ErrVersion) {
		t.Fatalf("expected ErrVersion, got %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte(BuildVersion)) {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

func TestLoadConfigFile_JSON(t *testing.T) {
	p := writeFile(t, t.TempDir(), "c.json", `{"url":"https://example.com","browser":{"enable":true,"stealth":true},"hover":true,"cache":{"maxAge":"90m"},"deny":["p"]}`)
	fc, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var cfg Config
	ApplyFileConfig(&cfg, fc, nil)
	if !cfg.UseBrowser || !cfg.BrowserStealth || !cfg.Hover || cfg.URL != "https://example.com" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.CacheMaxAge != 90*time.Minute || len(cfg.Deny) != 1 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	p := writeFile(t, t.TempDir(), "c.yaml", "cache:\n  maxAge: soon\n")
	if _, err := LoadConfigFile(p); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestApplyEnvOverrides_RespectsExplicitFlags(t *testing.T) {
	t.Setenv("LLM_API_KEY", "env-key")
	t.Setenv("CACHE_STRICT_PERMS", "yes")
	t.Setenv("VERBOSE", "off")
	cfg := Config{LLMAPIKey: "flag-key", Verbose: true}
	ApplyEnvOverrides(&cfg, map[string]bool{"llm.key": true})
	if cfg.LLMAPIKey != "flag-key" {
		t.Fatalf("explicit flag overridden: %q", cfg.LLMAPIKey)
	}
	if !cfg.CacheStrictPerms || cfg.Verbose {
		t.Fatalf("boolean env overrides not applied: %+v", cfg)
	}
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"file", Config{InputPath: "a.html"}, true},
		{"both inputs", Config{InputPath: "a.html", URL: "https://x"}, false},
		{"hover without browser", Config{URL: "https://x", Hover: true}, false},
		{"browser without target", Config{UseBrowser: true}, false},
		{"bad format", Config{Format: "yaml"}, false},
		{"bad containment", Config{Containment: "sideways"}, false},
		{"negative age", Config{CacheMaxAge: -time.Second}, false},
		{"browser hover", Config{URL: "https://x", UseBrowser: true, Hover: true}, true},
		{"watch stdin", Config{Watch: true}, false},
		{"watch url", Config{Watch: true, URL: "https://x"}, false},
		{"watch file", Config{Watch: true, InputPath: "a.html"}, true},
	}
	for _, c := range cases {
		err := ValidateConfig(c.cfg)
		if (err == nil) != c.ok {
			t.Fatalf("%s: ValidateConfig err=%v, want ok=%v", c.name, err, c.ok)
		}
	}
}
