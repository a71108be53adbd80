package server

import (
	"net/http"
	"strings"
	"testing"
)

func TestHome_CountsVisitsOfSignedInUsers(t *testing.T) {
	s := newTestServer(t)
	s.login()

	for want := 2; want <= 3; want++ {
		rec := s.do(http.MethodGet, "/", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), testIndexHTML) {
			t.Errorf("body = %q, want index.html", rec.Body.String())
		}
		if got := s.session().AccessCount; got != want {
			t.Errorf("AccessCount = %d, want %d", got, want)
		}
	}
}

func TestHome_AnonymousNotCounted(t *testing.T) {
	s := newTestServer(t)
	s.postJSON("/loginAnonymously", "")

	s.do(http.MethodGet, "/", "", "")
	s.do(http.MethodGet, "/", "", "")

	if got := s.session().AccessCount; got != 0 {
		t.Errorf("AccessCount = %d, want 0", got)
	}
}

func TestHome_NoSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/", "", "")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if s.cookie != nil {
		t.Error("visiting the home page should not create a session")
	}
}

func TestStaticFiles(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/index.html", "", "")
	if rec.Code != http.StatusMovedPermanently {
		t.Errorf("status = %d, want 301 to the entry page", rec.Code)
	}

	rec = s.do(http.MethodGet, "/missing.js", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", "", "")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if body := decodeJSON(t, rec); body["status"] != "ok" || body["session_store"] != "ok" {
		t.Errorf("body = %v, want ok", body)
	}
}

func TestHealth_StoreClosed(t *testing.T) {
	s := newTestServer(t)
	s.store.Close()

	rec := s.do(http.MethodGet, "/health", "", "")

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
