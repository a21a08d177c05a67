// Package rotation implements the content rotation nucleus: unseen-item
// selection, per-user seen-history bookkeeping, and session recording.
package rotation

import (
	"context"
	"fmt"
	"time"

	"github.com/ssbprep/server/internal/domain"
	"github.com/ssbprep/server/internal/store"
)

// SeenHistory is the rotation-facing view of a user's consumption history.
type SeenHistory interface {
	// SeenIDs returns the ids the user has already been shown for a test
	// type. Anonymous users (empty userID) always get an empty set.
	SeenIDs(ctx context.Context, userID string, testType domain.TestType) (map[string]struct{}, error)

	// MarkSeen merges ids into the user's seen set. Idempotent; a no-op
	// for anonymous users.
	MarkSeen(ctx context.Context, userID string, testType domain.TestType, ids []string) error
}

// History adapts the persistent history store to the rotation flow:
// anonymous users are never tracked, every store call runs under a bounded
// timeout, and failures are classified as domain.ErrHistoryUnavailable so
// callers can degrade instead of aborting the test.
type History struct {
	store   store.HistoryStore
	timeout time.Duration
}

// NewHistory creates a history adapter. timeout bounds each store call.
func NewHistory(hs store.HistoryStore, timeout time.Duration) *History {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &History{store: hs, timeout: timeout}
}

// SeenIDs returns the user's seen set for a test type.
func (h *History) SeenIDs(ctx context.Context, userID string, testType domain.TestType) (map[string]struct{}, error) {
	if userID == "" {
		return map[string]struct{}{}, nil
	}

	readCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	ids, err := h.store.SeenIDs(readCtx, userID, testType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrHistoryUnavailable, err)
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen, nil
}

// MarkSeen merges ids into the user's seen set.
func (h *History) MarkSeen(ctx context.Context, userID string, testType domain.TestType, ids []string) error {
	if userID == "" || len(ids) == 0 {
		return nil
	}

	writeCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.store.AddSeen(writeCtx, userID, testType, ids); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrHistoryUnavailable, err)
	}
	return nil
}
