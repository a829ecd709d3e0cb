package app

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// ErrVersion is returned by ParseArgs when -version was given.
var ErrVersion = fmt.Errorf("version requested")

// ParseArgs builds a Config from command-line args, dotenv files, an optional
// config file and the environment. Precedence, highest first: explicit flags,
// environment, config file, flag defaults.
func ParseArgs(args []string, output io.Writer) (Config, error) {
	var (
		cfg         Config
		deny        string
		denyExtra   string
		envFiles    string
		showVersion bool
	)
	fs := flag.NewFlagSet("readables", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.InputPath, "input", "", "Path to an HTML file or a .json snapshot; '-' reads stdin")
	fs.StringVar(&cfg.URL, "url", "", "http(s) URL to fetch, or to open with -browser")
	fs.StringVar(&cfg.OutputPath, "output", "", "Path to write the block report (default stdout)")
	fs.StringVar(&cfg.PDFPath, "pdf", "", "Optional path to also write the blocks as PDF")
	fs.StringVar(&cfg.SnapshotPath, "snapshot", "", "Optional path to also write the loaded tree as a JSON snapshot")
	fs.StringVar(&cfg.Format, "format", "text", "Report format: text, json or markdown")
	fs.BoolVar(&cfg.UseBrowser, "browser", false, "Load the page in Chrome and select on the live DOM")
	fs.StringVar(&cfg.BrowserRemote, "browser.remote", "", "DevTools WebSocket URL of a running Chrome (default launches one)")
	fs.BoolVar(&cfg.BrowserStealth, "browser.stealth", false, "Apply stealth evasions to the browser page")
	fs.BoolVar(&cfg.BrowserHeadful, "browser.headful", false, "Show the launched browser window")
	fs.BoolVar(&cfg.Hover, "hover", false, "Track the pointer and log the hovered block until interrupted (needs -browser)")
	fs.StringVar(&deny, "deny", "", "Comma-separated tags replacing the default denylist")
	fs.StringVar(&denyExtra, "deny.extra", "", "Comma-separated tags added to the denylist")
	fs.StringVar(&cfg.Containment, "containment", "descendants", "Container rejection: descendants or children")
	fs.StringVar(&cfg.ConfigPath, "config", "", "Path to a YAML or JSON config file")
	fs.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files to load (missing files are skipped)")
	fs.StringVar(&cfg.UserAgent, "ua", DefaultUserAgent(), "User-Agent for HTTP fetches")
	fs.BoolVar(&cfg.IgnoreRobots, "robots.ignore", false, "Fetch -url even when robots.txt disallows it")
	fs.BoolVar(&cfg.Watch, "watch", false, "Re-run whenever the input file changes, until interrupted")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	fs.StringVar(&cfg.CacheDir, "cache.dir", ".readables-cache", "HTTP cache directory; empty disables caching")
	fs.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this (e.g. 24h); 0 disables")
	fs.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear the cache directory before the run")
	fs.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.StringVar(&cfg.NarrateDir, "narrate.dir", "", "Write one audio file per block into this directory")
	fs.StringVar(&cfg.NarrateVoice, "narrate.voice", "", "Speech voice (default alloy)")
	fs.StringVar(&cfg.NarrateModel, "narrate.model", "", "Speech model (default tts-1)")
	fs.StringVar(&cfg.NarrateFormat, "narrate.format", "", "Audio format (default mp3)")
	fs.IntVar(&cfg.NarrateConcurrency, "narrate.concurrency", 2, "Parallel speech requests")
	fs.StringVar(&cfg.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL for speech")
	fs.StringVar(&cfg.LLMAPIKey, "llm.key", "", "API key for the OpenAI-compatible server")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if showVersion {
		fmt.Fprintf(output, "readables %s (%s)\n", BuildVersion, BuildCommit)
		return cfg, ErrVersion
	}
	cfg.Deny = splitList(deny)
	cfg.DenyExtra = splitList(denyExtra)
	cfg.EnvFiles = splitList(envFiles)

	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	// A single positional argument is a URL or an input path.
	if fs.NArg() > 0 && cfg.URL == "" && cfg.InputPath == "" {
		arg := fs.Arg(0)
		if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
			cfg.URL = arg
			explicit["url"] = true
		} else {
			cfg.InputPath = arg
			explicit["input"] = true
		}
	}

	if err := LoadEnvFiles(cfg.EnvFiles...); err != nil {
		return cfg, fmt.Errorf("load env files: %w", err)
	}
	if strings.TrimSpace(cfg.ConfigPath) != "" {
		fc, err := LoadConfigFile(cfg.ConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		ApplyFileConfig(&cfg, fc, explicit)
	}
	ApplyEnvOverrides(&cfg, explicit)
	return cfg, ValidateConfig(cfg)
}
