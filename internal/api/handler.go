// Package api provides HTTP handlers for the practice platform API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ssbprep/server/internal/domain"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// testTypeParam validates the {testType} URL parameter. Returns "" and
// writes a 400 response when the test type is unknown.
func testTypeParam(w http.ResponseWriter, raw string) domain.TestType {
	testType := domain.TestType(raw)
	if !testType.IsValid() {
		Error(w, http.StatusBadRequest, "unknown test type")
		return ""
	}
	return testType
}
