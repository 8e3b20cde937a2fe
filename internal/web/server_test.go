package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dataunify/pipeline/internal/config"
	"github.com/dataunify/pipeline/internal/core"
)

func TestServer_SecurityHeadersSetOnEveryResponse(t *testing.T) {
	server := newTestServer(t, newFakeRepo(), newFakeDynamicStore())

	req := httptest.NewRequest(http.MethodGet, "/api/projects/", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("expected %s=%q, got %q", header, want, got)
		}
	}
}

func TestServer_APIKeyAuth_RejectsMissingKeyWhenRequired(t *testing.T) {
	runner := core.NewInlineRunner(nil)
	svc, err := core.NewService(newFakeRepo(), newFakeDynamicStore(), runner, t.TempDir(), t.TempDir(), "1", 3)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	server := NewServer(svc, config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}, config.UploadConfig{MaxFileSize: 10 << 20})

	req := httptest.NewRequest(http.MethodGet, "/api/projects/", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without an API key, got %d", rec.Code)
	}
}

func TestServer_APIKeyAuth_AcceptsValidKey(t *testing.T) {
	runner := core.NewInlineRunner(nil)
	svc, err := core.NewService(newFakeRepo(), newFakeDynamicStore(), runner, t.TempDir(), t.TempDir(), "1", 3)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	server := NewServer(svc, config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}, config.UploadConfig{MaxFileSize: 10 << 20})

	req := httptest.NewRequest(http.MethodGet, "/api/projects/", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with a valid API key, got %d", rec.Code)
	}
}
