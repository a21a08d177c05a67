package rotation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ssbprep/server/internal/domain"
	"github.com/ssbprep/server/internal/store"
)

// Recorder persists a completed test attempt: an immutable session-log
// entry plus a seen-set merge. This is the only place seen-state is
// mutated; a test abandoned before Record leaves history untouched and the
// same items may be offered again.
type Recorder struct {
	sessions store.SessionLog
	history  SeenHistory
	timeout  time.Duration
}

// NewRecorder creates a Recorder. timeout bounds the session-log write.
func NewRecorder(sessions store.SessionLog, history SeenHistory, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Recorder{sessions: sessions, history: history, timeout: timeout}
}

// Record persists one completed attempt for a user. Anonymous attempts are
// never persisted and return nil; the caller should tell the user their
// results were not saved.
//
// The session-log append and the seen-set merge are issued together and
// joined: each is attempted regardless of the other's outcome and each
// outcome is logged on its own. Only a session-log failure is reported to
// the caller (as domain.ErrSessionPersist); a history failure merely means
// some items may be re-shown once more.
func (r *Recorder) Record(ctx context.Context, userID string, testType domain.TestType, itemIDs, responses []string) error {
	if userID == "" {
		slog.Info("Anonymous session not persisted", "test_type", testType)
		return nil
	}

	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		TestType:  testType,
		ItemIDs:   itemIDs,
		Responses: responses,
		CreatedAt: time.Now().UTC(),
	}
	if err := session.Validate(); err != nil {
		return fmt.Errorf("invalid session: %w", err)
	}

	// Detach from the request context so a client that disconnects right
	// after finishing does not lose its own results.
	detached := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	var sessionErr, historyErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		writeCtx, cancel := context.WithTimeout(detached, r.timeout)
		defer cancel()
		sessionErr = r.sessions.AppendSession(writeCtx, session)
	}()
	go func() {
		defer wg.Done()
		historyErr = r.history.MarkSeen(detached, userID, testType, itemIDs)
	}()
	wg.Wait()

	if historyErr != nil {
		slog.Error("Seen-set merge failed, items may be re-shown",
			"user_id", userID, "test_type", testType, "error", historyErr)
	}
	if sessionErr != nil {
		slog.Error("Session log write failed",
			"user_id", userID, "test_type", testType, "session_id", session.ID, "error", sessionErr)
		return fmt.Errorf("%w: %v", domain.ErrSessionPersist, sessionErr)
	}

	slog.Info("Session recorded",
		"user_id", userID, "test_type", testType, "session_id", session.ID, "items", len(itemIDs))
	return nil
}
