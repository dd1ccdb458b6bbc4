package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestHealthCheck(t *testing.T) {
	srv := New(Config{Port: 0}, zerolog.Nop())

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := New(Config{Port: 0, AllowAll: true}, zerolog.Nop())

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestAPIRoutesHaveDeadline(t *testing.T) {
	srv := New(Config{RequestTimeout: time.Minute}, zerolog.Nop())

	var apiDeadline, rootDeadline bool
	srv.API().Get("/api-probe", func(w http.ResponseWriter, r *http.Request) {
		_, apiDeadline = r.Context().Deadline()
	})
	srv.Router().Get("/root-probe", func(w http.ResponseWriter, r *http.Request) {
		_, rootDeadline = r.Context().Deadline()
	})

	for _, path := range []string{"/api-probe", "/root-probe"} {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
	}
	if !apiDeadline {
		t.Error("api route has no deadline")
	}
	if rootDeadline {
		t.Error("root route has a deadline")
	}
}

func TestRecovererHidesPanics(t *testing.T) {
	srv := New(Config{}, zerolog.Nop())
	srv.API().Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}
