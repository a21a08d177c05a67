package domain

import "errors"

// Sentinel errors for the content rotation flow. Only ErrEmptyCatalog and
// ErrAllItemsSeen block a test from starting; everything else degrades.
var (
	// ErrEmptyCatalog means no content exists for a test type at all,
	// from any source. The user should be told to contact an administrator.
	ErrEmptyCatalog = errors.New("no content available for this test")

	// ErrAllItemsSeen means the user has exhausted the unseen pool for a
	// single-item test. Recoverable once new content is added.
	ErrAllItemsSeen = errors.New("all items for this test have been seen")

	// ErrHistoryUnavailable marks a transient history-store failure. Never
	// surfaced to the user; reads degrade to an empty history and writes
	// are skipped.
	ErrHistoryUnavailable = errors.New("seen-history store unavailable")

	// ErrSessionPersist means the session-log write failed. The user sees
	// "results not saved" but the test outcome itself is still shown.
	ErrSessionPersist = errors.New("session could not be saved")
)
