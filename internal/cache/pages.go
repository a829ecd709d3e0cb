package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PageMeta is stored next to every cached page body. ETag and LastModified
// drive conditional revalidation.
type PageMeta struct {
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	SavedAt      time.Time `json:"saved_at"`
}

// Pages stores fetched HTML on disk as <sha256(url)>.meta.json and
// <sha256(url)>.html under Dir. There is no size-based eviction; see
// PurgeOlderThan and Clear.
type Pages struct {
	Dir string
	// StrictPerms writes 0700 directories and 0600 files.
	StrictPerms bool
}

const (
	metaSuffix = ".meta.json"
	bodySuffix = ".html"
)

var errNoDir = errors.New("cache: dir not configured")

func (p *Pages) dirMode() os.FileMode {
	if p.StrictPerms {
		return 0o700
	}
	return 0o755
}

func (p *Pages) fileMode() os.FileMode {
	if p.StrictPerms {
		return 0o600
	}
	return 0o644
}

func (p *Pages) ensureDir() error {
	if p == nil || p.Dir == "" {
		return errNoDir
	}
	return os.MkdirAll(p.Dir, p.dirMode())
}

func key(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])
}

func (p *Pages) metaPath(url string) string { return filepath.Join(p.Dir, key(url)+metaSuffix) }
func (p *Pages) bodyPath(url string) string { return filepath.Join(p.Dir, key(url)+bodySuffix) }

// Meta returns the stored metadata for url.
func (p *Pages) Meta(_ context.Context, url string) (*PageMeta, error) {
	if err := p.ensureDir(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p.metaPath(url))
	if err != nil {
		return nil, err
	}
	var m PageMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("cache: decode meta: %w", err)
	}
	return &m, nil
}

// Body returns the stored body for url.
func (p *Pages) Body(_ context.Context, url string) ([]byte, error) {
	if err := p.ensureDir(); err != nil {
		return nil, err
	}
	return os.ReadFile(p.bodyPath(url))
}

// Save writes body then meta. Meta is written through a temp file and
// renamed so readers never observe a partial record.
func (p *Pages) Save(_ context.Context, meta PageMeta, body []byte) error {
	if err := p.ensureDir(); err != nil {
		return err
	}
	if meta.SavedAt.IsZero() {
		meta.SavedAt = time.Now().UTC()
	}
	if err := os.WriteFile(p.bodyPath(meta.URL), body, p.fileMode()); err != nil {
		return fmt.Errorf("cache: write body: %w", err)
	}
	b, err := json.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("cache: encode meta: %w", err)
	}
	final := p.metaPath(meta.URL)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, b, p.fileMode()); err != nil {
		return fmt.Errorf("cache: write meta: %w", err)
	}
	return os.Rename(tmp, final)
}
