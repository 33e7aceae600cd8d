package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"yoruba-proverbs/internal/broadcast"
	"yoruba-proverbs/internal/proverb"
	"yoruba-proverbs/internal/ratelimit"
	"yoruba-proverbs/internal/resend"
	"yoruba-proverbs/internal/subscription"
)

// fakeBackend stands in for the Resend API across all handler tests.
type fakeBackend struct {
	contacts   map[string]*resend.Contact
	emails     []resend.SendEmailParams
	broadcasts []resend.CreateBroadcastParams
	sent       []string
	scheduled  []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{contacts: map[string]*resend.Contact{}}
}

func (f *fakeBackend) GetContact(_ context.Context, _, email string) (*resend.Contact, error) {
	c, ok := f.contacts[email]
	if !ok {
		return nil, resend.ErrContactNotFound
	}
	return c, nil
}

func (f *fakeBackend) CreateContact(_ context.Context, _ string, p resend.ContactParams) (string, error) {
	if _, ok := f.contacts[p.Email]; ok {
		return "", resend.ErrContactExists
	}
	f.contacts[p.Email] = &resend.Contact{Email: p.Email, FirstName: p.FirstName}
	return "contact_1", nil
}

func (f *fakeBackend) UpdateContact(_ context.Context, _, email string, p resend.ContactParams) error {
	c, ok := f.contacts[email]
	if !ok {
		return resend.ErrContactNotFound
	}
	if p.Unsubscribed != nil {
		c.Unsubscribed = *p.Unsubscribed
	}
	return nil
}

func (f *fakeBackend) SendEmail(_ context.Context, p resend.SendEmailParams) (string, error) {
	f.emails = append(f.emails, p)
	return "email_1", nil
}

func (f *fakeBackend) CreateBroadcast(_ context.Context, p resend.CreateBroadcastParams) (string, error) {
	f.broadcasts = append(f.broadcasts, p)
	return "bc_1", nil
}

func (f *fakeBackend) SendBroadcast(_ context.Context, id, scheduledAt string) error {
	f.sent = append(f.sent, id)
	f.scheduled = append(f.scheduled, scheduledAt)
	return nil
}

type fakeNotifier struct{ joined []string }

func (f *fakeNotifier) SubscriberJoined(email string) { f.joined = append(f.joined, email) }

func newTestServer(t *testing.T, limit int) (*Server, *fakeBackend, *fakeNotifier) {
	t.Helper()
	col, err := proverb.NewCollection([]proverb.Proverb{
		{ID: 1, Proverb: "Ìwà l'ẹwà.", Translation: "Character is beauty.", Wisdom: "Inner character outlasts appearance."},
	})
	if err != nil {
		t.Fatalf("collection: %v", err)
	}
	backend := newFakeBackend()
	notifier := &fakeNotifier{}
	srv := &Server{
		Addr:       ":0",
		Subs:       subscription.NewManager(backend, backend, col, "aud_1", "Yoruba Proverbs <p@x.com>", "https://proverbs.example.com"),
		Broadcasts: broadcast.NewController(backend, "aud_1", "Yoruba Proverbs <p@x.com>"),
		Proverbs:   col,
		Limiter:    ratelimit.New(ratelimit.NewMemoryStore(), 15*time.Minute, limit),
		Notifier:   notifier,
		AdminKey:   "admin-secret",
	}
	return srv, backend, notifier
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSubscribeCreated(t *testing.T) {
	srv, backend, notifier := newTestServer(t, 5)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/subscribe", `{"email":"ada@x.com","name":"Ada"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("RateLimit-Limit"); got != "5" {
		t.Errorf("RateLimit-Limit = %q", got)
	}
	if got := rec.Header().Get("RateLimit-Remaining"); got != "4" {
		t.Errorf("RateLimit-Remaining = %q", got)
	}
	if rec.Header().Get("RateLimit-Reset") == "" {
		t.Error("RateLimit-Reset header missing")
	}
	if _, ok := backend.contacts["ada@x.com"]; !ok {
		t.Error("contact was not created")
	}
	if len(backend.emails) != 1 {
		t.Fatalf("welcome emails = %d, want 1", len(backend.emails))
	}
	if len(notifier.joined) != 1 || notifier.joined[0] != "ada@x.com" {
		t.Errorf("notifier calls = %v", notifier.joined)
	}
}

func TestSubscribeAlreadySubscribed(t *testing.T) {
	srv, backend, notifier := newTestServer(t, 5)
	backend.contacts["ada@x.com"] = &resend.Contact{Email: "ada@x.com"}

	rec := doJSON(t, srv.Router(), http.MethodPost, "/subscribe", `{"email":"ada@x.com","name":"Ada"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp subscribeResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !strings.Contains(resp.Message, "already subscribed") {
		t.Errorf("message = %q", resp.Message)
	}
	if len(notifier.joined) != 0 {
		t.Errorf("notifier should not fire on duplicate, got %v", notifier.joined)
	}
}

func TestSubscribeValidation(t *testing.T) {
	srv, _, _ := newTestServer(t, 5)

	rec := doJSON(t, srv.Router(), http.MethodPost, "/subscribe", `{"email":"not-an-email","name":""}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp errorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Details["email"] == "" || resp.Details["name"] == "" {
		t.Errorf("details = %v, want email and name messages", resp.Details)
	}
}

func TestSubscribeMalformedBody(t *testing.T) {
	srv, _, _ := newTestServer(t, 5)
	rec := doJSON(t, srv.Router(), http.MethodPost, "/subscribe", `{"email":`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSubscribeRateLimited(t *testing.T) {
	srv, backend, _ := newTestServer(t, 2)
	router := srv.Router()

	for i := 0; i < 2; i++ {
		rec := doJSON(t, router, http.MethodPost, "/subscribe", `{"email":"bad","name":""}`, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	rec := doJSON(t, router, http.MethodPost, "/subscribe", `{"email":"ada@x.com","name":"Ada"}`, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("RateLimit-Remaining"); got != "0" {
		t.Errorf("RateLimit-Remaining = %q, want 0", got)
	}
	// The handler never ran: no contact was created past the limit.
	if len(backend.contacts) != 0 {
		t.Errorf("contacts = %v, want none", backend.contacts)
	}
}

func TestUnsubscribe(t *testing.T) {
	srv, backend, _ := newTestServer(t, 5)
	backend.contacts["ada@x.com"] = &resend.Contact{Email: "ada@x.com"}

	rec := doJSON(t, srv.Router(), http.MethodGet, "/unsubscribe?email=ada%40x.com", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "ada@x.com") {
		t.Error("confirmation page missing the email")
	}
	if !backend.contacts["ada@x.com"].Unsubscribed {
		t.Error("contact was not marked unsubscribed")
	}
}

func TestUnsubscribeMissingEmail(t *testing.T) {
	srv, _, _ := newTestServer(t, 5)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/unsubscribe", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAdminAuth(t *testing.T) {
	srv, _, _ := newTestServer(t, 5)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/admin/create-broadcast", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no key: status = %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/admin/create-broadcast", "", map[string]string{"x-api-key": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: status = %d", rec.Code)
	}
}

func TestAdminAuthUnsetKeyLocks(t *testing.T) {
	srv, _, _ := newTestServer(t, 5)
	srv.AdminKey = ""
	rec := doJSON(t, srv.Router(), http.MethodPost, "/admin/create-broadcast", "", map[string]string{"x-api-key": ""})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 when no admin key is configured", rec.Code)
	}
}

func TestCreateBroadcast(t *testing.T) {
	srv, backend, _ := newTestServer(t, 5)

	rec := doJSON(t, srv.Router(), http.MethodPost, "/admin/create-broadcast", "", map[string]string{"x-api-key": "admin-secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["broadcastId"] != "bc_1" {
		t.Errorf("broadcastId = %q", resp["broadcastId"])
	}
	if len(backend.broadcasts) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(backend.broadcasts))
	}
}

func TestSendBroadcast(t *testing.T) {
	srv, backend, _ := newTestServer(t, 5)
	router := srv.Router()
	auth := map[string]string{"x-api-key": "admin-secret"}

	rec := doJSON(t, router, http.MethodPost, "/admin/send-broadcast/bc_1", "", auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if backend.sent[0] != "bc_1" || backend.scheduled[0] != "" {
		t.Errorf("sent = %v scheduled = %v", backend.sent, backend.scheduled)
	}

	rec = doJSON(t, router, http.MethodPost, "/admin/send-broadcast/bc_2", `{"scheduledAt":"in 1 hour"}`, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("scheduled: status = %d, body %s", rec.Code, rec.Body)
	}
	if backend.scheduled[1] != "in 1 hour" {
		t.Errorf("scheduled = %v", backend.scheduled)
	}
}

func TestProverbRoutes(t *testing.T) {
	srv, _, _ := newTestServer(t, 5)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodGet, "/proverb", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("random: status = %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/proverb/1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("by id: status = %d", rec.Code)
	}
	var p proverb.Proverb
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.ID != 1 {
		t.Errorf("id = %d, want 1", p.ID)
	}

	rec = doJSON(t, router, http.MethodGet, "/proverb/99", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing id: status = %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/proverb/abc", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t, 5)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
