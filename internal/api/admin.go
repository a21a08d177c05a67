package api

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ssbprep/server/internal/domain"
	"github.com/ssbprep/server/internal/store"
)

// AdminTokenHeader carries the shared admin secret.
const AdminTokenHeader = "X-Admin-Token"

// AdminHandler serves the content-ingestion and history-administration
// endpoints. These back the admin tool; the test-taking flow never reaches
// them.
type AdminHandler struct {
	catalog store.CatalogStore
	history store.HistoryStore
	token   string
}

// NewAdminHandler creates an AdminHandler. An empty token disables the
// whole admin surface.
func NewAdminHandler(catalog store.CatalogStore, history store.HistoryStore, token string) *AdminHandler {
	return &AdminHandler{catalog: catalog, history: history, token: token}
}

// RegisterRoutes registers the admin endpoints.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Post("/tests/{testType}/items", h.PutItem)
		r.Delete("/tests/{testType}/items/{itemID}", h.DeleteItem)
		r.Delete("/users/{userID}/history/{testType}", h.ClearHistory)
	})
}

func (h *AdminHandler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token == "" {
			Error(w, http.StatusForbidden, "admin API is disabled")
			return
		}
		got := r.Header.Get(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			Error(w, http.StatusUnauthorized, "invalid admin token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PutItem inserts or updates one catalog item in the dynamic store.
func (h *AdminHandler) PutItem(w http.ResponseWriter, r *http.Request) {
	testType := testTypeParam(w, chi.URLParam(r, "testType"))
	if testType == "" {
		return
	}

	var item domain.CatalogItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		Error(w, http.StatusBadRequest, "invalid item payload")
		return
	}
	if item.ID == "" || item.Payload == "" {
		Error(w, http.StatusBadRequest, "item requires id and payload")
		return
	}

	if err := h.catalog.PutItem(r.Context(), testType, item); err != nil {
		slog.Error("Catalog item write failed", "test_type", testType, "item_id", item.ID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to store item")
		return
	}

	slog.Info("Catalog item stored", "test_type", testType, "item_id", item.ID)
	JSON(w, http.StatusCreated, item)
}

// DeleteItem removes one catalog item from the dynamic store.
func (h *AdminHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	testType := testTypeParam(w, chi.URLParam(r, "testType"))
	if testType == "" {
		return
	}
	itemID := chi.URLParam(r, "itemID")

	if err := h.catalog.DeleteItem(r.Context(), testType, itemID); err != nil {
		slog.Error("Catalog item delete failed", "test_type", testType, "item_id", itemID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"deleted": itemID})
}

// ClearHistory wipes a user's seen set for one test type. This is the only
// way a seen set ever shrinks.
func (h *AdminHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	testType := testTypeParam(w, chi.URLParam(r, "testType"))
	if testType == "" {
		return
	}
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		Error(w, http.StatusBadRequest, "missing user id")
		return
	}

	if err := h.history.ClearSeen(r.Context(), userID, testType); err != nil {
		slog.Error("History clear failed", "user_id", userID, "test_type", testType, "error", err)
		Error(w, http.StatusInternalServerError, "failed to clear history")
		return
	}

	slog.Info("Seen history cleared", "user_id", userID, "test_type", testType)
	JSON(w, http.StatusOK, map[string]string{"cleared": string(testType)})
}
