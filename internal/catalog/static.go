package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/ssbprep/server/internal/domain"
)

// StaticSource serves the read-only catalog shipped with the binary. It is
// the fallback when the dynamic store is empty or unreachable.
//
// Each test type maps to one JSON file named "<testType>.json" holding an
// array of catalog items. A missing file means no bundled content for that
// test type, which is not an error.
type StaticSource struct {
	fsys fs.FS
}

// NewStaticSource creates a source over a bundle filesystem.
func NewStaticSource(fsys fs.FS) *StaticSource {
	return &StaticSource{fsys: fsys}
}

// Name identifies the source in logs.
func (s *StaticSource) Name() string { return "static" }

// Fetch parses the bundled file for a test type. The file is re-read on
// every call to match the no-caching contract of the chain.
func (s *StaticSource) Fetch(_ context.Context, testType domain.TestType) ([]domain.CatalogItem, error) {
	data, err := fs.ReadFile(s.fsys, string(testType)+".json")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read bundled catalog %q: %w", testType, err)
	}

	var items []domain.CatalogItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse bundled catalog %q: %w", testType, err)
	}

	out := items[:0]
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}
