package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ssbprep/server/internal/domain"
	"github.com/ssbprep/server/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS catalog_items (
		test_type TEXT NOT NULL,
		item_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (test_type, item_id)
	);
	CREATE INDEX IF NOT EXISTS idx_catalog_order ON catalog_items(test_type, position);

	CREATE TABLE IF NOT EXISTS seen_items (
		user_id TEXT NOT NULL,
		test_type TEXT NOT NULL,
		item_id TEXT NOT NULL,
		seen_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, test_type, item_id)
	);

	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		test_type TEXT NOT NULL,
		item_ids_json TEXT NOT NULL,
		responses_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id, created_at DESC);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ListItems returns the items for a test type in insertion order.
func (s *SQLiteStore) ListItems(ctx context.Context, testType domain.TestType) ([]domain.CatalogItem, error) {
	query := `
		SELECT item_id, payload, description
		FROM catalog_items WHERE test_type = ?
		ORDER BY position, item_id`

	rows, err := s.db.QueryContext(ctx, query, string(testType))
	if err != nil {
		return nil, fmt.Errorf("query catalog items: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close catalog rows", "error", closeErr)
		}
	}()

	var items []domain.CatalogItem
	for rows.Next() {
		var item domain.CatalogItem
		if err := rows.Scan(&item.ID, &item.Payload, &item.Description); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog rows: %w", err)
	}

	return items, nil
}

// PutItem inserts or updates one catalog item. New items go to the end of
// the catalog order; updates keep their original position.
func (s *SQLiteStore) PutItem(ctx context.Context, testType domain.TestType, item domain.CatalogItem) error {
	if item.ID == "" {
		return fmt.Errorf("catalog item missing id")
	}

	query := `
	INSERT INTO catalog_items (test_type, item_id, payload, description, position, created_at)
	VALUES (?, ?, ?, ?,
		(SELECT COALESCE(MAX(position), -1) + 1 FROM catalog_items WHERE test_type = ?),
		?)
	ON CONFLICT(test_type, item_id) DO UPDATE SET
		payload = excluded.payload,
		description = excluded.description`

	_, err := s.db.ExecContext(ctx, query,
		string(testType), item.ID, item.Payload, item.Description,
		string(testType), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("put catalog item: %w", err)
	}
	return nil
}

// DeleteItem removes one catalog item.
func (s *SQLiteStore) DeleteItem(ctx context.Context, testType domain.TestType, itemID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM catalog_items WHERE test_type = ? AND item_id = ?`,
		string(testType), itemID)
	if err != nil {
		return fmt.Errorf("delete catalog item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("DeleteItem affected 0 rows", "test_type", testType, "item_id", itemID)
	}
	return nil
}

// SeenIDs returns the ids the user has already been shown.
func (s *SQLiteStore) SeenIDs(ctx context.Context, userID string, testType domain.TestType) ([]string, error) {
	query := `SELECT item_id FROM seen_items WHERE user_id = ? AND test_type = ?`

	rows, err := s.db.QueryContext(ctx, query, userID, string(testType))
	if err != nil {
		return nil, fmt.Errorf("query seen items: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close seen rows", "error", closeErr)
		}
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan seen row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seen rows: %w", err)
	}

	return ids, nil
}

// AddSeen merges ids into the user's seen set. INSERT OR IGNORE against the
// composite primary key makes repeated marking idempotent.
func (s *SQLiteStore) AddSeen(ctx context.Context, userID string, testType domain.TestType, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	return s.withBusyRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin seen merge: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		now := time.Now().Unix()
		for _, id := range ids {
			if id == "" {
				continue
			}
			_, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO seen_items (user_id, test_type, item_id, seen_at) VALUES (?, ?, ?, ?)`,
				userID, string(testType), id, now)
			if err != nil {
				return fmt.Errorf("merge seen id %q: %w", id, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit seen merge: %w", err)
		}
		return nil
	})
}

// ClearSeen removes the user's seen set for a test type.
func (s *SQLiteStore) ClearSeen(ctx context.Context, userID string, testType domain.TestType) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM seen_items WHERE user_id = ? AND test_type = ?`,
		userID, string(testType))
	if err != nil {
		return fmt.Errorf("clear seen set: %w", err)
	}
	return nil
}

// AppendSession records one completed session.
func (s *SQLiteStore) AppendSession(ctx context.Context, session *domain.Session) error {
	itemIDs, err := json.Marshal(session.ItemIDs)
	if err != nil {
		return fmt.Errorf("marshal item ids: %w", err)
	}
	responses, err := json.Marshal(session.Responses)
	if err != nil {
		return fmt.Errorf("marshal responses: %w", err)
	}

	return s.withBusyRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO sessions (session_id, user_id, test_type, item_ids_json, responses_json, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			session.ID, session.UserID, string(session.TestType),
			string(itemIDs), string(responses), session.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("append session: %w", err)
		}
		return nil
	})
}

// ListSessions returns the user's sessions, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context, userID string) ([]*domain.Session, error) {
	query := `
		SELECT session_id, user_id, test_type, item_ids_json, responses_json, created_at
		FROM sessions WHERE user_id = ?
		ORDER BY created_at DESC, session_id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close session rows", "error", closeErr)
		}
	}()

	var sessions []*domain.Session
	for rows.Next() {
		var session domain.Session
		var testType string
		var itemIDs, responses string
		var createdAt int64

		if err := rows.Scan(&session.ID, &session.UserID, &testType, &itemIDs, &responses, &createdAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		if err := json.Unmarshal([]byte(itemIDs), &session.ItemIDs); err != nil {
			return nil, fmt.Errorf("unmarshal item ids for session %s: %w", session.ID, err)
		}
		if err := json.Unmarshal([]byte(responses), &session.Responses); err != nil {
			return nil, fmt.Errorf("unmarshal responses for session %s: %w", session.ID, err)
		}
		session.TestType = domain.TestType(testType)
		session.CreatedAt = time.Unix(createdAt, 0)
		sessions = append(sessions, &session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}

	return sessions, nil
}

// withBusyRetry retries fn with exponential backoff on SQLITE_BUSY or
// "database is locked" errors.
func (s *SQLiteStore) withBusyRetry(ctx context.Context, fn func() error) error {
	const maxRetries = 3
	baseDelay := 50 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) || i == maxRetries-1 {
			return err
		}
		delay := baseDelay * time.Duration(1<<i)
		slog.Debug("Database locked, retrying", "attempt", i+1, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return err
		}
	}
	return err
}
