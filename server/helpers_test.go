package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creastat/booking"
	"github.com/creastat/booking/cache"
	"github.com/creastat/booking/config"
	"github.com/creastat/booking/session"
	"github.com/creastat/booking/session/drivers"
	"github.com/creastat/booking/supabase"
)

const testIndexHTML = "<html>booking</html>"

// fakeBackend records calls and returns canned data.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	signInErr    error
	registerErr  error
	profileErr   error
	editErr      error
	siteErr      error
	addErr       error
	profile      booking.Record
	reservations []booking.Record
	site         booking.Record
	schedule     []booking.Record

	lastPrincipal *booking.Principal
	siteCtxErr    error
	insertUserID  string
	homeData      booking.Record
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls:        make(map[string]int),
		profile:      booking.Record{"userid": "user-1", "firstname": "Ada", "email": "ada@example.com"},
		reservations: []booking.Record{{"id": 1}, {"id": 2}},
		site:         booking.Record{"screen": "home_general", "title": "Welcome"},
		schedule:     []booking.Record{{"day": "mon"}},
	}
}

func (f *fakeBackend) record(op string, p *booking.Principal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	f.lastPrincipal = p
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func userPrincipal() *booking.Principal {
	return &booking.Principal{
		UserID:       "user-1",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func (f *fakeBackend) SignIn(ctx context.Context, email, password string) (*booking.Principal, *booking.User, error) {
	f.record("SignIn", nil)
	if f.signInErr != nil {
		return nil, nil, f.signInErr
	}
	return userPrincipal(), &booking.User{ID: "user-1", Email: email, Profile: f.profile}, nil
}

func (f *fakeBackend) SignInAnonymously(ctx context.Context) (*booking.Principal, *booking.User, error) {
	f.record("SignInAnonymously", nil)
	p := &booking.Principal{UserID: "anon-1", AccessToken: "anon-access", Anonymous: true}
	return p, &booking.User{ID: "anon-1", Anonymous: true}, nil
}

func (f *fakeBackend) Register(ctx context.Context, reg booking.Registration) (*booking.Principal, booking.Record, error) {
	f.record("Register", nil)
	if f.registerErr != nil {
		return nil, nil, f.registerErr
	}
	return userPrincipal(), f.profile, nil
}

func (f *fakeBackend) Refresh(ctx context.Context, p *booking.Principal) (*booking.Principal, error) {
	f.record("Refresh", p)
	fresh := userPrincipal()
	fresh.AccessToken = "access-2"
	return fresh, nil
}

func (f *fakeBackend) SignOut(ctx context.Context, p *booking.Principal) error {
	f.record("SignOut", p)
	return nil
}

func (f *fakeBackend) GetProfile(ctx context.Context, p *booking.Principal) (booking.Record, error) {
	f.record("GetProfile", p)
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}

func (f *fakeBackend) EditProfile(ctx context.Context, p *booking.Principal, edit booking.ProfileEdit) (booking.Record, error) {
	f.record("EditProfile", p)
	if f.editErr != nil {
		return nil, f.editErr
	}
	return booking.Record{"userid": "user-1", "firstname": edit.FirstName, "email": edit.Email, "phone": edit.Phone}, nil
}

func (f *fakeBackend) GetSiteData(ctx context.Context, p *booking.Principal) (booking.Record, error) {
	f.record("GetSiteData", p)
	f.mu.Lock()
	f.siteCtxErr = ctx.Err()
	f.mu.Unlock()
	if f.siteErr != nil {
		return nil, f.siteErr
	}
	return f.site, nil
}

func (f *fakeBackend) GetScheduleItems(ctx context.Context, p *booking.Principal) ([]booking.Record, error) {
	f.record("GetScheduleItems", p)
	return f.schedule, nil
}

func (f *fakeBackend) GetReservations(ctx context.Context, p *booking.Principal) ([]booking.Record, error) {
	f.record("GetReservations", p)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reservations, nil
}

func (f *fakeBackend) InsertReservation(ctx context.Context, p *booking.Principal, reservation booking.Record, userID string) (booking.Record, error) {
	f.record("InsertReservation", p)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertUserID = userID
	row := reservation.Clone()
	if userID != "" {
		row["userid"] = userID
	}
	f.reservations = append(f.reservations, row)
	return row, nil
}

func (f *fakeBackend) AddScheduledItem(ctx context.Context, p *booking.Principal, item booking.Record) (booking.Record, error) {
	f.record("AddScheduledItem", p)
	if f.addErr != nil {
		return nil, f.addErr
	}
	return booking.Record{"added": true}, nil
}

func (f *fakeBackend) RemoveScheduledItems(ctx context.Context, p *booking.Principal) (booking.Record, error) {
	f.record("RemoveScheduledItems", p)
	return booking.Record{"removed": true}, nil
}

func (f *fakeBackend) EditHomeData(ctx context.Context, p *booking.Principal, data booking.Record) (booking.Record, error) {
	f.record("EditHomeData", p)
	f.mu.Lock()
	f.homeData = data
	f.mu.Unlock()
	return booking.Record{"updated": true}, nil
}

func (f *fakeBackend) Close() error { return nil }

var _ supabase.Backend = (*fakeBackend)(nil)

// testServer bundles a router with the collaborators tests inspect.
type testServer struct {
	t       *testing.T
	h       *Handler
	router  http.Handler
	backend *fakeBackend
	store   *drivers.InMemoryStore
	cookie  *http.Cookie
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()

	static := t.TempDir()
	if err := os.WriteFile(filepath.Join(static, "index.html"), []byte(testIndexHTML), 0o644); err != nil {
		t.Fatalf("write index.html: %v", err)
	}

	cfg := &config.Config{
		StaticAppPath:          static,
		SessionsSecret:         "test-secret",
		SessionsName:           "booking.sid",
		SessionTTL:             15 * time.Minute,
		SessionMaxReservations: 100,
		CacheTTL:               time.Minute,
		RateLimitAuth:          20,
	}
	for _, m := range mutate {
		m(cfg)
	}

	store := drivers.NewInMemoryStore(cfg.SessionTTL, time.Minute)
	t.Cleanup(func() { store.Close() })

	c := cache.New(cfg.CacheTTL)
	t.Cleanup(c.Close)

	backend := newFakeBackend()
	h := NewHandler(cfg, backend, store, c)

	return &testServer{
		t:       t,
		h:       h,
		router:  NewRouter(h),
		backend: backend,
		store:   store,
	}
}

// do sends a request carrying the current session cookie and keeps any
// session cookie the response sets.
func (s *testServer) do(method, path, contentType, body string) *httptest.ResponseRecorder {
	s.t.Helper()

	req := httptest.NewRequest(method, s.h.cfg.BasePath+path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name != s.h.cfg.SessionsName {
			continue
		}
		if c.MaxAge < 0 {
			s.cookie = nil
		} else {
			s.cookie = c
		}
	}
	return rec
}

func (s *testServer) postJSON(path, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	return s.do(http.MethodPost, path, "application/json", body)
}

func (s *testServer) login() {
	s.t.Helper()
	rec := s.postJSON("/login", `{"email":"ada@example.com","password":"secret"}`)
	if rec.Code != http.StatusOK {
		s.t.Fatalf("login status = %d, want 200", rec.Code)
	}
	if s.cookie == nil {
		s.t.Fatal("login should set a session cookie")
	}
}

// session returns the stored session referenced by the current cookie.
func (s *testServer) session() *session.SessionData {
	s.t.Helper()
	if s.cookie == nil {
		s.t.Fatal("no session cookie")
	}
	id, err := session.Verify(s.h.secret, s.cookie.Value)
	if err != nil {
		s.t.Fatalf("Verify() error = %v", err)
	}
	data, err := s.store.Get(context.Background(), id)
	if err != nil {
		s.t.Fatalf("store.Get() error = %v", err)
	}
	if data == nil {
		s.t.Fatal("session not found in store")
	}
	return data
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

// assertError checks an in-band {"error": ...} body; want nil means null.
func assertError(t *testing.T, rec *httptest.ResponseRecorder, want *string) {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	body := decodeJSON(t, rec)
	got, ok := body["error"]
	if !ok {
		t.Fatalf("response %q has no error key", rec.Body.String())
	}
	if want == nil {
		if got != nil {
			t.Errorf("error = %v, want null", got)
		}
		return
	}
	if got != *want {
		t.Errorf("error = %v, want %q", got, *want)
	}
}

func ptr(s string) *string { return &s }

var errBoom = errors.New("boom")
