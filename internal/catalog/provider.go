package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/mod/semver"
)

// ErrUnavailable signals that the catalog source could not be reached
// or read. Callers are expected to degrade to an empty-catalog pass
// rather than treat this as "catalog has nothing".
var ErrUnavailable = errors.New("catalog unavailable")

// Provider supplies the read-only content tree.
type Provider interface {
	Fetch(ctx context.Context) ([]Trail, error)
}

// FileProvider loads the catalog from a JSON file on every fetch.
type FileProvider struct {
	Path string
}

// Fetch implements Provider. Read and parse failures are reported as
// ErrUnavailable so callers degrade instead of pruning.
func (f *FileProvider) Fetch(ctx context.Context) ([]Trail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := LoadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return doc.Trails, nil
}

// CachedProvider wraps a source of catalog documents and serves the
// newest version it has seen. A fetched document only replaces the
// cached one if its semver is strictly newer, so a stale or rolled-back
// source can never regress the catalog mid-run. Fetch failures fall
// back to the cached document when one exists.
type CachedProvider struct {
	mu     sync.Mutex
	source func(ctx context.Context) (*Document, error)
	cached *Document
}

// NewCachedProvider creates a CachedProvider over a file path.
func NewCachedProvider(path string) *CachedProvider {
	return &CachedProvider{
		source: func(ctx context.Context) (*Document, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return LoadFile(path)
		},
	}
}

// Fetch implements Provider.
func (c *CachedProvider) Fetch(ctx context.Context) ([]Trail, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.source(ctx)
	if err != nil {
		if c.cached != nil {
			return c.cached.Trails, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if c.cached == nil || semver.Compare(doc.Version, c.cached.Version) > 0 {
		c.cached = doc
	}
	return c.cached.Trails, nil
}

// Version returns the cached catalog version, or "" before the first
// successful fetch.
func (c *CachedProvider) Version() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached == nil {
		return ""
	}
	return c.cached.Version
}
