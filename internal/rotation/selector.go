package rotation

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/ssbprep/server/internal/domain"
)

// CatalogFetcher resolves the catalog for a test type. An empty catalog is
// a valid result, not an error.
type CatalogFetcher interface {
	Fetch(ctx context.Context, testType domain.TestType) (domain.Catalog, error)
}

// Selector picks which practice items a user sees next. It prefers items
// the user has never seen and has no side effects: seen-state is only
// mutated by the Recorder once a session actually completes, so an
// abandoned test never consumes an item from the rotation.
type Selector struct {
	catalog CatalogFetcher
	history SeenHistory
	rng     *rand.Rand
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithRand overrides the randomness source. Intended for deterministic
// tests; the injected Rand must not be shared across goroutines.
func WithRand(r *rand.Rand) SelectorOption {
	return func(s *Selector) { s.rng = r }
}

// NewSelector creates a Selector over a catalog source and seen history.
func NewSelector(catalog CatalogFetcher, history SeenHistory, opts ...SelectorOption) *Selector {
	s := &Selector{catalog: catalog, history: history}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PickOne returns one uniformly random item the user has not seen yet.
// Returns domain.ErrEmptyCatalog when no content exists at all and
// domain.ErrAllItemsSeen when the user has exhausted the unseen pool.
func (s *Selector) PickOne(ctx context.Context, userID string, testType domain.TestType) (domain.CatalogItem, error) {
	cat, err := s.catalog.Fetch(ctx, testType)
	if err != nil {
		return domain.CatalogItem{}, err
	}
	if cat.IsEmpty() {
		return domain.CatalogItem{}, domain.ErrEmptyCatalog
	}

	seen := s.seenSet(ctx, userID, testType)

	available := make([]domain.CatalogItem, 0, len(cat.Items))
	for _, item := range cat.Items {
		if _, ok := seen[item.ID]; !ok {
			available = append(available, item)
		}
	}
	if len(available) == 0 {
		return domain.CatalogItem{}, domain.ErrAllItemsSeen
	}

	return available[s.intN(len(available))], nil
}

// PickBatch returns up to count items, shuffled, unseen items first. When
// the unseen pool is too small the batch is padded with previously seen
// items; when the whole catalog is too small the batch under-fills. An
// empty catalog yields an empty batch, never an error; the caller decides
// whether "not enough content" matters for its test.
func (s *Selector) PickBatch(ctx context.Context, userID string, testType domain.TestType, count int) ([]domain.CatalogItem, error) {
	if count <= 0 {
		return nil, nil
	}

	cat, err := s.catalog.Fetch(ctx, testType)
	if err != nil {
		return nil, err
	}
	if cat.IsEmpty() {
		return nil, nil
	}

	seen := s.seenSet(ctx, userID, testType)

	var unseen, old []domain.CatalogItem
	for _, item := range cat.Items {
		if _, ok := seen[item.ID]; ok {
			old = append(old, item)
		} else {
			unseen = append(unseen, item)
		}
	}

	s.shuffle(unseen)
	if len(unseen) >= count {
		return unseen[:count], nil
	}

	s.shuffle(old)
	fill := count - len(unseen)
	if fill > len(old) {
		fill = len(old)
	}
	return append(unseen, old[:fill]...), nil
}

// seenSet fetches the user's history, degrading to an empty set on failure
// so bookkeeping trouble never blocks a test from starting.
func (s *Selector) seenSet(ctx context.Context, userID string, testType domain.TestType) map[string]struct{} {
	seen, err := s.history.SeenIDs(ctx, userID, testType)
	if err != nil {
		slog.Warn("Seen-history read failed, selecting with no history",
			"user_id", userID, "test_type", testType, "error", err)
		return nil
	}
	return seen
}

func (s *Selector) intN(n int) int {
	if s.rng != nil {
		return s.rng.IntN(n)
	}
	return rand.IntN(n)
}

func (s *Selector) shuffle(items []domain.CatalogItem) {
	swap := func(i, j int) { items[i], items[j] = items[j], items[i] }
	if s.rng != nil {
		s.rng.Shuffle(len(items), swap)
		return
	}
	rand.Shuffle(len(items), swap)
}
