// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/ssbprep/server/internal/domain"
)

// CatalogStore is the dynamic content catalog. An empty result is not an
// error; it means no items exist for that test type.
type CatalogStore interface {
	// ListItems returns the items for a test type in insertion order.
	ListItems(ctx context.Context, testType domain.TestType) ([]domain.CatalogItem, error)

	// PutItem inserts or updates one catalog item. New items are appended
	// at the end of the catalog order.
	PutItem(ctx context.Context, testType domain.TestType, item domain.CatalogItem) error

	// DeleteItem removes one catalog item.
	DeleteItem(ctx context.Context, testType domain.TestType, itemID string) error
}

// HistoryStore tracks which item ids each user has already consumed,
// per test type. The seen set only grows: AddSeen is a union merge, and
// the sole way to shrink it is the administrative ClearSeen.
type HistoryStore interface {
	// SeenIDs returns the ids the user has already been shown.
	SeenIDs(ctx context.Context, userID string, testType domain.TestType) ([]string, error)

	// AddSeen merges ids into the user's seen set. Idempotent.
	AddSeen(ctx context.Context, userID string, testType domain.TestType, ids []string) error

	// ClearSeen removes the user's seen set for a test type. Administrative
	// use only; the rotation flow never calls this.
	ClearSeen(ctx context.Context, userID string, testType domain.TestType) error
}

// SessionLog is the per-user append-only log of completed test attempts.
type SessionLog interface {
	// AppendSession records one completed session under a fresh id.
	AppendSession(ctx context.Context, session *domain.Session) error

	// ListSessions returns the user's sessions, newest first.
	ListSessions(ctx context.Context, userID string) ([]*domain.Session, error)
}

// Repository bundles all persistence concerns behind one handle.
type Repository interface {
	CatalogStore
	HistoryStore
	SessionLog

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
