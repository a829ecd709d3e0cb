package app

import (
	"os"
	"strings"
	"time"
)

// envBinding ties an environment variable to the flag it mirrors.
type envBinding struct {
	env  string
	flag string
	set  func(cfg *Config, v string)
}

func boolValue(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

var envBindings = []envBinding{
	{"READABLES_INPUT", "input", func(c *Config, v string) { c.InputPath = v }},
	{"READABLES_URL", "url", func(c *Config, v string) { c.URL = v }},
	{"READABLES_FORMAT", "format", func(c *Config, v string) { c.Format = v }},
	{"READABLES_DENY", "deny", func(c *Config, v string) { c.Deny = splitList(v) }},
	{"READABLES_DENY_EXTRA", "deny.extra", func(c *Config, v string) { c.DenyExtra = splitList(v) }},
	{"READABLES_CONTAINMENT", "containment", func(c *Config, v string) { c.Containment = v }},
	{"READABLES_USER_AGENT", "ua", func(c *Config, v string) { c.UserAgent = v }},
	{"BROWSER_REMOTE_URL", "browser.remote", func(c *Config, v string) { c.BrowserRemote = v }},
	{"BROWSER_STEALTH", "browser.stealth", func(c *Config, v string) {
		if b, ok := boolValue(v); ok { c.BrowserStealth = b }
	}},
	{"ROBOTS_IGNORE", "robots.ignore", func(c *Config, v string) {
		if b, ok := boolValue(v); ok { c.IgnoreRobots = b }
	}},
	{"CACHE_DIR", "cache.dir", func(c *Config, v string) { c.CacheDir = v }},
	{"CACHE_MAX_AGE", "cache.maxAge", func(c *Config, v string) {
		if d, err := time.ParseDuration(v); err == nil { c.CacheMaxAge = d }
	}},
	{"CACHE_CLEAR", "cache.clear", func(c *Config, v string) {
		if b, ok := boolValue(v); ok { c.CacheClear = b }
	}},
	{"CACHE_STRICT_PERMS", "cache.strictPerms", func(c *Config, v string) {
		if b, ok := boolValue(v); ok { c.CacheStrictPerms = b }
	}},
	{"NARRATE_DIR", "narrate.dir", func(c *Config, v string) { c.NarrateDir = v }},
	{"NARRATE_VOICE", "narrate.voice", func(c *Config, v string) { c.NarrateVoice = v }},
	{"NARRATE_MODEL", "narrate.model", func(c *Config, v string) { c.NarrateModel = v }},
	{"LLM_BASE_URL", "llm.base", func(c *Config, v string) { c.LLMBaseURL = v }},
	{"LLM_API_KEY", "llm.key", func(c *Config, v string) { c.LLMAPIKey = v }},
	{"VERBOSE", "v", func(c *Config, v string) {
		if b, ok := boolValue(v); ok { c.Verbose = b }
	}},
}

// ApplyEnvOverrides overrides cfg fields with environment variables when they
// are set, so env wins over a config file. Fields whose flag name is in
// explicit keep their command-line value.
func ApplyEnvOverrides(cfg *Config, explicit map[string]bool) {
	if cfg == nil { return }
	for _, b := range envBindings {
		if explicit[b.flag] {
			continue
		}
		if v := strings.TrimSpace(os.Getenv(b.env)); v != "" {
			b.set(cfg, v)
		}
	}
}
