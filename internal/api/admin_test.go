//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ssbprep/server/internal/domain"
)

type fakeCatalogStore struct {
	items map[domain.TestType][]domain.CatalogItem
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{items: make(map[domain.TestType][]domain.CatalogItem)}
}

func (f *fakeCatalogStore) ListItems(_ context.Context, testType domain.TestType) ([]domain.CatalogItem, error) {
	return f.items[testType], nil
}

func (f *fakeCatalogStore) PutItem(_ context.Context, testType domain.TestType, item domain.CatalogItem) error {
	for i, existing := range f.items[testType] {
		if existing.ID == item.ID {
			f.items[testType][i] = item
			return nil
		}
	}
	f.items[testType] = append(f.items[testType], item)
	return nil
}

func (f *fakeCatalogStore) DeleteItem(_ context.Context, testType domain.TestType, itemID string) error {
	kept := f.items[testType][:0]
	for _, item := range f.items[testType] {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	f.items[testType] = kept
	return nil
}

type fakeHistoryStore struct {
	cleared []string
}

func (f *fakeHistoryStore) SeenIDs(_ context.Context, _ string, _ domain.TestType) ([]string, error) {
	return nil, nil
}

func (f *fakeHistoryStore) AddSeen(_ context.Context, _ string, _ domain.TestType, _ []string) error {
	return nil
}

func (f *fakeHistoryStore) ClearSeen(_ context.Context, userID string, testType domain.TestType) error {
	f.cleared = append(f.cleared, userID+"/"+string(testType))
	return nil
}

func newAdminRouter(token string) (chi.Router, *fakeCatalogStore, *fakeHistoryStore) {
	catalog := newFakeCatalogStore()
	history := &fakeHistoryStore{}
	handler := NewAdminHandler(catalog, history, token)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, catalog, history
}

func adminDo(t *testing.T, r chi.Router, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set(AdminTokenHeader, token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminDisabledWithoutToken(t *testing.T) {
	r, _, _ := newAdminRouter("")

	w := adminDo(t, r, http.MethodPost, "/api/admin/tests/wat/items", "anything",
		domain.CatalogItem{ID: "x", Payload: "y"})

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

func TestAdminRejectsWrongToken(t *testing.T) {
	r, _, _ := newAdminRouter("secret")

	w := adminDo(t, r, http.MethodPost, "/api/admin/tests/wat/items", "wrong",
		domain.CatalogItem{ID: "x", Payload: "y"})

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestAdminPutItem(t *testing.T) {
	r, catalog, _ := newAdminRouter("secret")

	w := adminDo(t, r, http.MethodPost, "/api/admin/tests/wat/items", "secret",
		domain.CatalogItem{ID: "wat-100", Payload: "Integrity"})

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	items, _ := catalog.ListItems(context.Background(), domain.TestWAT)
	if len(items) != 1 || items[0].ID != "wat-100" {
		t.Errorf("Expected stored item wat-100, got %v", items)
	}
}

func TestAdminPutItemRequiresIDAndPayload(t *testing.T) {
	r, _, _ := newAdminRouter("secret")

	w := adminDo(t, r, http.MethodPost, "/api/admin/tests/wat/items", "secret",
		domain.CatalogItem{ID: "", Payload: "y"})

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestAdminDeleteItem(t *testing.T) {
	r, catalog, _ := newAdminRouter("secret")
	_ = catalog.PutItem(context.Background(), domain.TestSRT, domain.CatalogItem{ID: "srt-1", Payload: "x"})

	w := adminDo(t, r, http.MethodDelete, "/api/admin/tests/srt/items/srt-1", "secret", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	items, _ := catalog.ListItems(context.Background(), domain.TestSRT)
	if len(items) != 0 {
		t.Errorf("Expected item deleted, got %v", items)
	}
}

func TestAdminClearHistory(t *testing.T) {
	r, _, history := newAdminRouter("secret")

	w := adminDo(t, r, http.MethodDelete, "/api/admin/users/user1/history/wat", "secret", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if len(history.cleared) != 1 || history.cleared[0] != "user1/wat" {
		t.Errorf("Expected history cleared for user1/wat, got %v", history.cleared)
	}
}
