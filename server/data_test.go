package server

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/creastat/booking"
	"github.com/creastat/booking/config"
)

func TestGetSiteData_SharedCache(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 3; i++ {
		rec := s.do(http.MethodGet, "/getSiteData", "", "")
		if body := decodeJSON(t, rec); body["title"] != "Welcome" {
			t.Fatalf("site = %v, want title Welcome", body)
		}
	}

	if n := s.backend.count("GetSiteData"); n != 1 {
		t.Errorf("GetSiteData calls = %d, want 1", n)
	}
	if s.cookie != nil {
		t.Error("anonymous read should not create a session")
	}
}

func TestGetSiteData_MirroredWhenSignedIn(t *testing.T) {
	s := newTestServer(t)
	s.login()

	s.do(http.MethodGet, "/getSiteData", "", "")

	if sess := s.session(); sess.Site.String("title") != "Welcome" {
		t.Errorf("session site = %v, want title Welcome", sess.Site)
	}
}

func TestSiteData_SharedLoadIsDetached(t *testing.T) {
	s := newTestServer(t)
	s.login()

	s.do(http.MethodGet, "/getSiteData", "", "")
	if p := s.backend.lastPrincipal; p != nil {
		t.Errorf("shared load used principal %+v, want project key", p)
	}

	s.h.cache.Clear(siteCacheKey)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.h.siteData(ctx); err != nil {
		t.Fatalf("siteData() error = %v", err)
	}
	if err := s.backend.siteCtxErr; err != nil {
		t.Errorf("backend saw ctx error %v, want detached context", err)
	}
}

func TestGetSiteData_Error(t *testing.T) {
	s := newTestServer(t)
	s.backend.siteErr = &booking.BackendError{Op: "getSiteData", Reason: "permission denied", Status: 403}

	rec := s.do(http.MethodGet, "/getSiteData", "", "")

	assertError(t, rec, ptr("permission denied"))
}

func TestGetScheduleItems(t *testing.T) {
	s := newTestServer(t)
	s.login()

	rec := s.do(http.MethodGet, "/getScheduleItems", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"day":"mon"`) {
		t.Errorf("body = %s, want schedule items", rec.Body.String())
	}
	if sess := s.session(); len(sess.Schedule) != 1 || sess.Mirror.ScheduleAt.IsZero() {
		t.Errorf("schedule not mirrored: %v", sess.Schedule)
	}
}

func TestGetReservations_Bounded(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.SessionMaxReservations = 2 })
	s.login()
	s.backend.reservations = []booking.Record{{"id": 1}, {"id": 2}, {"id": 3}, {"id": 4}, {"id": 5}}

	rec := s.do(http.MethodGet, "/getReservations", "", "")
	if strings.Count(rec.Body.String(), `"id"`) != 5 {
		t.Errorf("body = %s, want all 5 reservations", rec.Body.String())
	}

	sess := s.session()
	if len(sess.Reservations) != 2 {
		t.Fatalf("session reservations = %d, want 2", len(sess.Reservations))
	}
	if sess.Reservations[1].String("id") != "5" {
		t.Errorf("last reservation = %v, want id 5", sess.Reservations[1])
	}
	if sess.ReservationCount != 5 {
		t.Errorf("ReservationCount = %d, want 5", sess.ReservationCount)
	}
}

func TestInsertReservation_Validation(t *testing.T) {
	s := newTestServer(t)
	s.login()

	rec := s.postJSON("/insertReservation", `{"firstName":"Ada","lastName":"Lovelace"}`)

	assertError(t, rec, ptr("Invalid Email/Password/phone information"))
	if n := s.backend.count("InsertReservation"); n != 0 {
		t.Errorf("InsertReservation calls = %d, want 0", n)
	}
}

func TestInsertReservation_Guest(t *testing.T) {
	s := newTestServer(t)

	rec := s.postJSON("/insertReservation", `{"firstName":"Ada","lastName":"Lovelace","phone":"555"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeJSON(t, rec)
	if body["phone"] != "555" {
		t.Errorf("result = %v, want phone 555", body)
	}
	if _, ok := body["userid"]; ok {
		t.Errorf("guest reservation has userid %v", body["userid"])
	}
	if n := s.backend.count("InsertReservation"); n != 1 {
		t.Errorf("InsertReservation calls = %d, want 1", n)
	}
	if n := s.backend.count("GetReservations"); n != 0 {
		t.Errorf("GetReservations calls = %d, want 0", n)
	}
}

func TestInsertReservation_RefreshesMirror(t *testing.T) {
	s := newTestServer(t)
	s.login()

	rec := s.postJSON("/insertReservation", `{"firstName":"Ada","lastName":"Lovelace","phone":"555","slot":"10:00"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := decodeJSON(t, rec); body["slot"] != "10:00" {
		t.Errorf("result = %v, want slot 10:00", body)
	}
	if s.backend.insertUserID != "user-1" {
		t.Errorf("insert userID = %q, want user-1", s.backend.insertUserID)
	}
	if sess := s.session(); len(sess.Reservations) != 3 || sess.ReservationCount != 3 {
		t.Errorf("session reservations = %d (count %d), want 3", len(sess.Reservations), sess.ReservationCount)
	}
}

func TestEditProfile_Validation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPut, "/editProfile", "application/json", `{"email":"ada@example.com","firstname":"Ada"}`)

	assertError(t, rec, ptr("Ensure valid Name and Email"))
}

func TestEditProfile_UpdatesSession(t *testing.T) {
	s := newTestServer(t)
	s.login()

	rec := s.do(http.MethodPut, "/editProfile", "application/json", `{"email":"ada@new.example.com","firstname":"Augusta","phone":"555"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	profile, _ := decodeJSON(t, rec)["profile"].(map[string]any)
	if profile["firstname"] != "Augusta" {
		t.Errorf("profile = %v, want firstname Augusta", profile)
	}

	sess := s.session()
	if sess.Profile.String("firstname") != "Augusta" {
		t.Errorf("session profile = %v, want firstname Augusta", sess.Profile)
	}
	if sess.User == nil || sess.User.Email != "ada@new.example.com" {
		t.Errorf("session user = %+v, want new email", sess.User)
	}
}

func TestEditProfile_RawError(t *testing.T) {
	s := newTestServer(t)
	s.login()
	s.backend.editErr = &booking.BackendError{Op: "editProfile", Reason: "row level security", Status: 403}

	rec := s.do(http.MethodPut, "/editProfile", "application/json", `{"email":"a@b.c","firstname":"A","phone":"1"}`)

	assertError(t, rec, ptr("editProfile: row level security (status 403)"))
}

func TestGetProfile(t *testing.T) {
	s := newTestServer(t)
	s.login()

	rec := s.do(http.MethodGet, "/getProfile", "", "")
	if body := decodeJSON(t, rec); body["userid"] != "user-1" {
		t.Errorf("profile = %v, want userid user-1", body)
	}
}

func TestGetProfile_Error(t *testing.T) {
	s := newTestServer(t)
	s.backend.profileErr = &booking.BackendError{Op: "getProfile", Reason: "not allowed", Status: 403}

	rec := s.do(http.MethodGet, "/getProfile", "", "")

	assertError(t, rec, ptr("403not allowed"))
}
