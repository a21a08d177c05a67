package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ssbprep/server/internal/domain"
	"github.com/ssbprep/server/internal/identity"
	"github.com/ssbprep/server/internal/rotation"
	"github.com/ssbprep/server/internal/store"
)

// Default batch sizes per test type, used when the client does not ask for
// a specific count.
var defaultBatchSize = map[domain.TestType]int{
	domain.TestWAT: 60,
	domain.TestSRT: 20,
}

// TestHandler serves the practice-test selection and session endpoints.
type TestHandler struct {
	selector     *rotation.Selector
	recorder     *rotation.Recorder
	sessions     store.SessionLog
	maxBatchSize int
}

// NewTestHandler creates a TestHandler.
func NewTestHandler(selector *rotation.Selector, recorder *rotation.Recorder, sessions store.SessionLog, maxBatchSize int) *TestHandler {
	if maxBatchSize <= 0 {
		maxBatchSize = 100
	}
	return &TestHandler{
		selector:     selector,
		recorder:     recorder,
		sessions:     sessions,
		maxBatchSize: maxBatchSize,
	}
}

// RegisterRoutes registers the test endpoints.
func (h *TestHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/tests/{testType}/item", h.GetItem)
		r.Get("/tests/{testType}/batch", h.GetBatch)
		r.Post("/tests/{testType}/sessions", h.PostSession)
		r.Get("/sessions", h.ListSessions)
	})
}

// GetItem returns one unseen item for a single-item test (TAT slide,
// PPDT picture).
func (h *TestHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	testType := testTypeParam(w, chi.URLParam(r, "testType"))
	if testType == "" {
		return
	}
	userID := identity.UserIDFromContext(r.Context())

	item, err := h.selector.PickOne(r.Context(), userID, testType)
	switch {
	case errors.Is(err, domain.ErrEmptyCatalog):
		Error(w, http.StatusNotFound,
			"no content is available for this test yet, please contact an administrator")
		return
	case errors.Is(err, domain.ErrAllItemsSeen):
		Error(w, http.StatusConflict,
			"you have attempted every item in this test, check back once new content is added")
		return
	case err != nil:
		slog.Error("Item selection failed", "test_type", testType, "error", err)
		Error(w, http.StatusInternalServerError, "item selection failed")
		return
	}

	JSON(w, http.StatusOK, item)
}

// GetBatch returns a shuffled batch of items for a list test (WAT words,
// SRT situations). Unseen items come first; the batch under-fills when the
// catalog is too small.
func (h *TestHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	testType := testTypeParam(w, chi.URLParam(r, "testType"))
	if testType == "" {
		return
	}
	userID := identity.UserIDFromContext(r.Context())

	count := defaultBatchSize[testType]
	if count == 0 {
		count = 10
	}
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		count = n
	}
	if count > h.maxBatchSize {
		count = h.maxBatchSize
	}

	items, err := h.selector.PickBatch(r.Context(), userID, testType, count)
	if err != nil {
		slog.Error("Batch selection failed", "test_type", testType, "error", err)
		Error(w, http.StatusInternalServerError, "batch selection failed")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"test_type": testType,
		"items":     items,
		"count":     len(items),
	})
}

type sessionRequest struct {
	ItemIDs   []string `json:"item_ids"`
	Responses []string `json:"responses"`
}

// PostSession records a completed test attempt. Saving never blocks the
// test outcome: anonymous attempts and persistence failures both come back
// as saved=false with a reason, not as an HTTP error.
func (h *TestHandler) PostSession(w http.ResponseWriter, r *http.Request) {
	testType := testTypeParam(w, chi.URLParam(r, "testType"))
	if testType == "" {
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid session payload")
		return
	}
	if len(req.ItemIDs) == 0 {
		Error(w, http.StatusBadRequest, "session has no items")
		return
	}
	if len(req.Responses) != len(req.ItemIDs) {
		Error(w, http.StatusBadRequest, "responses must be parallel to item_ids")
		return
	}

	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		if err := h.recorder.Record(r.Context(), userID, testType, req.ItemIDs, req.Responses); err != nil {
			slog.Error("Anonymous record unexpectedly failed", "test_type", testType, "error", err)
		}
		JSON(w, http.StatusOK, map[string]interface{}{
			"saved":  false,
			"reason": "sign in to save your results and avoid repeated items",
		})
		return
	}

	err := h.recorder.Record(r.Context(), userID, testType, req.ItemIDs, req.Responses)
	switch {
	case errors.Is(err, domain.ErrSessionPersist):
		JSON(w, http.StatusOK, map[string]interface{}{
			"saved":  false,
			"reason": "your results could not be saved",
		})
		return
	case err != nil:
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"saved": true})
}

// ListSessions returns the caller's recorded sessions, newest first.
// Anonymous callers get an empty list.
func (h *TestHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		JSON(w, http.StatusOK, map[string]interface{}{"sessions": []interface{}{}})
		return
	}

	sessions, err := h.sessions.ListSessions(r.Context(), userID)
	if err != nil {
		slog.Error("Session list failed", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}
	if sessions == nil {
		sessions = []*domain.Session{}
	}

	JSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}
