package domain

import (
	"fmt"
	"time"
)

// Session is one completed test attempt. Sessions are append-only: once
// recorded they are never mutated.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TestType  TestType  `json:"test_type"`
	ItemIDs   []string  `json:"item_ids"`
	Responses []string  `json:"responses"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the session invariants: a known test type, at least one
// item, and responses parallel to item ids (empty string = unanswered).
func (s *Session) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("session missing user id")
	}
	if !s.TestType.IsValid() {
		return fmt.Errorf("unknown test type %q", s.TestType)
	}
	if len(s.ItemIDs) == 0 {
		return fmt.Errorf("session has no items")
	}
	if len(s.Responses) != len(s.ItemIDs) {
		return fmt.Errorf("responses/items length mismatch: %d responses for %d items",
			len(s.Responses), len(s.ItemIDs))
	}
	return nil
}
