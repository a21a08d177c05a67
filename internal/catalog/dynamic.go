package catalog

import (
	"context"

	"github.com/ssbprep/server/internal/domain"
	"github.com/ssbprep/server/internal/store"
)

// DynamicSource serves catalog content from the admin-managed store. It is
// the first source in the chain so freshly ingested content wins over the
// static bundle.
type DynamicSource struct {
	catalog store.CatalogStore
}

// NewDynamicSource creates a source backed by the dynamic catalog store.
func NewDynamicSource(catalog store.CatalogStore) *DynamicSource {
	return &DynamicSource{catalog: catalog}
}

// Name identifies the source in logs.
func (s *DynamicSource) Name() string { return "dynamic" }

// Fetch returns the stored items for a test type.
func (s *DynamicSource) Fetch(ctx context.Context, testType domain.TestType) ([]domain.CatalogItem, error) {
	return s.catalog.ListItems(ctx, testType)
}
