package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"urlfilter/bloom"
)

func testServer(t *testing.T) filterServer {
	t.Helper()

	f, err := bloom.Build([]string{"example.com", "example.org/blocked"}, 0.001, bloom.DefaultSeed)
	if err != nil {
		t.Fatalf("building filter: %s", err)
	}

	return filterServer{f: f}
}

func TestCheckHandler(t *testing.T) {
	s := testServer(t)

	cases := []struct {
		url  string
		code int
	}{
		{"/check?u=example.com", http.StatusOK},
		{"/check?u=example.org%2Fblocked", http.StatusOK},
		{"/check?u=not-in-the-filter.example", http.StatusNotFound},
		{"/check", http.StatusBadRequest},
	}

	for _, c := range cases {
		rec := httptest.NewRecorder()
		s.checkHandler(rec, httptest.NewRequest(http.MethodGet, c.url, nil))

		if rec.Code != c.code {
			t.Errorf("expected status %d for %s, got %d", c.code, c.url, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	s.checkHandler(rec, httptest.NewRequest(http.MethodPost, "/check?u=example.com", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d for POST, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestStatsHandler(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	s.statsHandler(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if !strings.Contains(rec.Body.String(), "fill ratio") {
		t.Errorf("expected the summary in the response, got %q", rec.Body.String())
	}
}
