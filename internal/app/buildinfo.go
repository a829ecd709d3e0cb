package app

// Build information populated via -ldflags at build time.
var (
	BuildVersion = "0.0.0-dev"
	BuildCommit  = "unknown"
)

// DefaultUserAgent identifies HTTP fetches made by the CLI.
func DefaultUserAgent() string {
	return "readables/" + BuildVersion + " (+https://github.com/hyperifyio/readables)"
}
