package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	Input       string   `yaml:"input" json:"input"`
	URL         string   `yaml:"url" json:"url"`
	Output      string   `yaml:"output" json:"output"`
	PDF         string   `yaml:"pdf" json:"pdf"`
	Snapshot    string   `yaml:"snapshot" json:"snapshot"`
	Format      string   `yaml:"format" json:"format"`
	Hover       bool     `yaml:"hover" json:"hover"`
	Deny        []string `yaml:"deny" json:"deny"`
	DenyExtra   []string `yaml:"denyExtra" json:"denyExtra"`
	Containment string   `yaml:"containment" json:"containment"`
	UserAgent   string   `yaml:"userAgent" json:"userAgent"`
	Watch       bool     `yaml:"watch" json:"watch"`
	Verbose     bool     `yaml:"verbose" json:"verbose"`

	Browser struct {
		Enable  bool   `yaml:"enable" json:"enable"`
		Remote  string `yaml:"remote" json:"remote"`
		Stealth bool   `yaml:"stealth" json:"stealth"`
		Headful bool   `yaml:"headful" json:"headful"`
	} `yaml:"browser" json:"browser"`

	Cache struct {
		Dir         string   `yaml:"dir" json:"dir"`
		MaxAge      Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool     `yaml:"clear" json:"clear"`
		StrictPerms bool     `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Narrate struct {
		Dir         string `yaml:"dir" json:"dir"`
		Voice       string `yaml:"voice" json:"voice"`
		Model       string `yaml:"model" json:"model"`
		Format      string `yaml:"format" json:"format"`
		Concurrency int    `yaml:"concurrency" json:"concurrency"`
	} `yaml:"narrate" json:"narrate"`

	Robots struct {
		Ignore bool `yaml:"ignore" json:"ignore"`
	} `yaml:"robots" json:"robots"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`
}

// Duration accepts Go duration strings such as "24h" in YAML and JSON.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	return d.set(s)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.set(s)
}

func (d *Duration) set(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc into cfg. Fields whose flag name is
// in explicit were set on the command line and are left alone.
func ApplyFileConfig(cfg *Config, fc FileConfig, explicit map[string]bool) {
	if cfg == nil { return }
	keep := func(flag string) bool { return explicit[flag] }

	if !keep("input") && fc.Input != "" { cfg.InputPath = fc.Input }
	if !keep("url") && fc.URL != "" { cfg.URL = fc.URL }
	if !keep("output") && fc.Output != "" { cfg.OutputPath = fc.Output }
	if !keep("pdf") && fc.PDF != "" { cfg.PDFPath = fc.PDF }
	if !keep("snapshot") && fc.Snapshot != "" { cfg.SnapshotPath = fc.Snapshot }
	if !keep("format") && fc.Format != "" { cfg.Format = fc.Format }
	if !keep("hover") && fc.Hover { cfg.Hover = true }
	if !keep("deny") && len(fc.Deny) > 0 { cfg.Deny = append([]string{}, fc.Deny...) }
	if !keep("deny.extra") && len(fc.DenyExtra) > 0 { cfg.DenyExtra = append([]string{}, fc.DenyExtra...) }
	if !keep("containment") && fc.Containment != "" { cfg.Containment = fc.Containment }
	if !keep("ua") && fc.UserAgent != "" { cfg.UserAgent = fc.UserAgent }
	if !keep("watch") && fc.Watch { cfg.Watch = true }
	if !keep("v") && fc.Verbose { cfg.Verbose = true }

	if !keep("browser") && fc.Browser.Enable { cfg.UseBrowser = true }
	if !keep("browser.remote") && fc.Browser.Remote != "" { cfg.BrowserRemote = fc.Browser.Remote }
	if !keep("browser.stealth") && fc.Browser.Stealth { cfg.BrowserStealth = true }
	if !keep("browser.headful") && fc.Browser.Headful { cfg.BrowserHeadful = true }

	if !keep("cache.dir") && fc.Cache.Dir != "" { cfg.CacheDir = fc.Cache.Dir }
	if !keep("cache.maxAge") && fc.Cache.MaxAge > 0 { cfg.CacheMaxAge = time.Duration(fc.Cache.MaxAge) }
	if !keep("cache.clear") && fc.Cache.Clear { cfg.CacheClear = true }
	if !keep("cache.strictPerms") && fc.Cache.StrictPerms { cfg.CacheStrictPerms = true }

	if !keep("narrate.dir") && fc.Narrate.Dir != "" { cfg.NarrateDir = fc.Narrate.Dir }
	if !keep("narrate.voice") && fc.Narrate.Voice != "" { cfg.NarrateVoice = fc.Narrate.Voice }
	if !keep("narrate.model") && fc.Narrate.Model != "" { cfg.NarrateModel = fc.Narrate.Model }
	if !keep("narrate.format") && fc.Narrate.Format != "" { cfg.NarrateFormat = fc.Narrate.Format }
	if !keep("narrate.concurrency") && fc.Narrate.Concurrency > 0 { cfg.NarrateConcurrency = fc.Narrate.Concurrency }

	if !keep("robots.ignore") && fc.Robots.Ignore { cfg.IgnoreRobots = true }

	if !keep("llm.base") && fc.LLM.BaseURL != "" { cfg.LLMBaseURL = fc.LLM.BaseURL }
	if !keep("llm.key") && fc.LLM.APIKey != "" { cfg.LLMAPIKey = fc.LLM.APIKey }
}
