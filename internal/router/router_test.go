// Package router tests verify the routing configuration and the health
// endpoint.
package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ratehub/internal/handlers"
)

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	healthHandler(w, r)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("content-type: got %q, want %q", ct, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want %q", body["status"], "ok")
	}
}

// TestRouteShape drives the assembled router without backends: routes
// that exist but miss auth must not 404, and unknown routes must.
func TestRouteShape(t *testing.T) {
	r := New(nil, nil, nil,
		handlers.NewAuth(nil, nil, nil, nil),
		handlers.NewCategories(nil),
		handlers.NewGenres(nil),
		handlers.NewTitles(nil, nil, nil),
		handlers.NewReviews(nil, nil),
		handlers.NewComments(nil, nil, nil),
		handlers.NewUsers(nil),
	)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/health", http.StatusOK},
		// Anonymous writes stop at the permission gate, not the router.
		{"POST", "/api/v1/categories/", http.StatusUnauthorized},
		{"DELETE", "/api/v1/genres/some-slug/", http.StatusUnauthorized},
		{"GET", "/api/v1/users/me/", http.StatusUnauthorized},
		{"GET", "/api/v1/users/", http.StatusUnauthorized},
		// Outside the route tree.
		{"GET", "/api/v2/categories/", http.StatusNotFound},
		{"GET", "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tt.method, tt.path, nil)
		r.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("%s %s: got %d, want %d", tt.method, tt.path, w.Code, tt.want)
		}
	}
}
