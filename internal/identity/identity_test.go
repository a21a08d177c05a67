package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func extractUserID(t *testing.T, req *http.Request) string {
	t.Helper()

	var got string
	handler := Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = UserIDFromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestMiddlewareReadsHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UserHeaderName, "firebase-uid-1234")

	if got := extractUserID(t, req); got != "firebase-uid-1234" {
		t.Errorf("Expected firebase-uid-1234, got %q", got)
	}
}

func TestMiddlewareFallsBackToCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: UserCookieName, Value: "cookie-uid-99"})

	if got := extractUserID(t, req); got != "cookie-uid-99" {
		t.Errorf("Expected cookie-uid-99, got %q", got)
	}
}

func TestMiddlewareHeaderWinsOverCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UserHeaderName, "header-uid")
	req.AddCookie(&http.Cookie{Name: UserCookieName, Value: "cookie-uid"})

	if got := extractUserID(t, req); got != "header-uid" {
		t.Errorf("Expected header-uid, got %q", got)
	}
}

func TestMiddlewareAnonymousWhenAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if got := extractUserID(t, req); got != "" {
		t.Errorf("Expected anonymous, got %q", got)
	}
}

func TestMiddlewareRejectsMalformedIDs(t *testing.T) {
	for _, id := range []string{"ab", "has spaces", "semi;colon", "x"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(UserHeaderName, id)

		if got := extractUserID(t, req); got != "" {
			t.Errorf("id %q: expected anonymous, got %q", id, got)
		}
	}
}

func TestUserIDFromContextDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := UserIDFromContext(req.Context()); got != "" {
		t.Errorf("Expected empty user id, got %q", got)
	}
}
