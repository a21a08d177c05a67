// Package catalog resolves practice-content catalogs from an ordered list
// of sources, preferring the dynamic store and falling back to the bundled
// static content.
package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/ssbprep/server/internal/domain"
)

// Source fetches the items for one test type. An empty slice with a nil
// error means the source has no content for that test type.
type Source interface {
	// Name identifies the source in logs.
	Name() string

	// Fetch returns the ordered items for a test type.
	Fetch(ctx context.Context, testType domain.TestType) ([]domain.CatalogItem, error)
}

// Chain tries each source in order and returns the first non-empty catalog.
// A source that errors or comes back empty just advances the chain; when
// every source is exhausted the result is an empty catalog, not an error.
// Nothing is cached between calls, so new content is visible immediately.
type Chain struct {
	sources []Source
	timeout time.Duration
}

// NewChain creates a source chain. Each Fetch against a source runs under
// its own timeout so a hung store cannot stall the test flow.
func NewChain(timeout time.Duration, sources ...Source) *Chain {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Chain{sources: sources, timeout: timeout}
}

// Fetch resolves the catalog for a test type.
func (c *Chain) Fetch(ctx context.Context, testType domain.TestType) (domain.Catalog, error) {
	for _, src := range c.sources {
		items, err := c.fetchOne(ctx, src, testType)
		if err != nil {
			slog.Warn("Catalog source failed, trying next",
				"source", src.Name(), "test_type", testType, "error", err)
			continue
		}
		if len(items) == 0 {
			slog.Debug("Catalog source empty, trying next",
				"source", src.Name(), "test_type", testType)
			continue
		}
		return domain.Catalog{TestType: testType, Items: items}, nil
	}

	return domain.Catalog{TestType: testType}, nil
}

func (c *Chain) fetchOne(ctx context.Context, src Source, testType domain.TestType) ([]domain.CatalogItem, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return src.Fetch(fetchCtx, testType)
}
