// Package testutil provides a fake calendar-assistant backend and a wired
// client environment for package tests.
package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/systematicmess/calendar-assistant/internal/cache"
	"github.com/systematicmess/calendar-assistant/internal/dto"
	"github.com/systematicmess/calendar-assistant/internal/httpclient"
	"github.com/systematicmess/calendar-assistant/internal/navigation"
	"github.com/systematicmess/calendar-assistant/internal/pkg/logger"
	"github.com/systematicmess/calendar-assistant/internal/session"
	"github.com/systematicmess/calendar-assistant/internal/storage"
)

const (
	PathAuthURL = "/auth/url"
	PathEvents  = "/cal/events"
	PathChat    = "/agent/chat"
	PathHealth  = "/healthz"
)

const ConsentURL = "https://accounts.example.com/o/oauth2/auth?client_id=test"

// Backend mimics the API: it accepts a fixed set of session ids and counts
// every request per path.
type Backend struct {
	Server *httptest.Server

	mu        sync.Mutex
	sessions  map[string]bool
	hits      map[string]int
	overrides map[string]int
	events    dto.EventsResponse
	reply     func(message string) string
	chats     []dto.ChatRequest
	gate      chan struct{}
}

func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		sessions:  make(map[string]bool),
		hits:      make(map[string]int),
		overrides: make(map[string]int),
		events:    SampleEvents(),
		reply:     func(string) string { return "hello" },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+PathAuthURL, b.authURL)
	mux.HandleFunc("GET "+PathEvents, b.calendarEvents)
	mux.HandleFunc("POST "+PathChat, b.chat)
	mux.HandleFunc("GET "+PathHealth, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dto.HealthResponse{Status: "ok"})
	})

	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.URL.Path]++
		status, forced := b.overrides[r.URL.Path]
		gate := b.gate
		b.mu.Unlock()

		if gate != nil {
			<-gate
		}
		if forced {
			writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.Server.Close)
	return b
}

func (b *Backend) URL() string { return b.Server.URL }

// AcceptSession makes id valid.
func (b *Backend) AcceptSession(id string) {
	b.mu.Lock()
	b.sessions[id] = true
	b.mu.Unlock()
}

// RevokeSession makes the backend answer 401 for id.
func (b *Backend) RevokeSession(id string) {
	b.mu.Lock()
	delete(b.sessions, id)
	b.mu.Unlock()
}

// Fail forces status on every request to path. Zero removes the override.
func (b *Backend) Fail(path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.overrides, path)
		return
	}
	b.overrides[path] = status
}

// Hold blocks every request until the returned release func is called.
func (b *Backend) Hold() (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.gate = gate
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.gate = nil
			b.mu.Unlock()
			close(gate)
		})
	}
}

func (b *Backend) SetEvents(events dto.EventsResponse) {
	b.mu.Lock()
	b.events = events
	b.mu.Unlock()
}

func (b *Backend) SetReply(fn func(message string) string) {
	b.mu.Lock()
	b.reply = fn
	b.mu.Unlock()
}

func (b *Backend) Hits(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

// ChatRequests returns the decoded bodies of every chat request received.
func (b *Backend) ChatRequests() []dto.ChatRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]dto.ChatRequest(nil), b.chats...)
}

func (b *Backend) authURL(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dto.AuthURLResponse{URL: ConsentURL, State: "state-123"})
}

func (b *Backend) calendarEvents(w http.ResponseWriter, r *http.Request) {
	if !b.valid(r.URL.Query().Get("session_id")) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Unknown session"})
		return
	}
	b.mu.Lock()
	events := b.events
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, events)
}

func (b *Backend) chat(w http.ResponseWriter, r *http.Request) {
	var req dto.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	b.mu.Lock()
	b.chats = append(b.chats, req)
	reply := b.reply
	b.mu.Unlock()

	if !b.valid(req.SessionID) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Unknown session"})
		return
	}
	writeJSON(w, http.StatusOK, dto.ChatResponse{Reply: reply(req.Message)})
}

func (b *Backend) valid(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[id]
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// SampleEvents is three events totalling 4.5 hours.
func SampleEvents() dto.EventsResponse {
	day := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	standup := "Standup"
	review := "Design review"
	link := "https://meet.example.com/abc-defg-hij"
	return dto.EventsResponse{
		Events: []dto.CalendarEvent{
			{ID: "evt-1", Summary: &standup, Start: day, End: day.Add(30 * time.Minute), HangoutLink: &link},
			{ID: "evt-2", Summary: &review, Start: day.Add(2 * time.Hour), End: day.Add(4 * time.Hour)},
			{ID: "evt-3", Start: day.Add(5 * time.Hour), End: day.Add(7 * time.Hour)},
		},
		TotalHours: 4.5,
	}
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Env is a fully wired client against a Backend.
type Env struct {
	Backend  *Backend
	Log      logger.ILogger
	Storage  storage.Store
	Sessions *session.Store
	Router   *navigation.Router
	Client   *httpclient.Client
	Cache    *cache.Cache
	Clock    *Clock
	// Opened records every URL handed to the system browser.
	Opened *Recorder
}

func NewEnv(t *testing.T) *Env {
	t.Helper()

	env := &Env{
		Backend: NewBackend(t),
		Log:     logger.NewNopLogger(),
		Storage: storage.NewMemoryStore(),
		Clock:   NewClock(),
		Opened:  &Recorder{},
	}
	env.Sessions = session.Open(context.Background(), env.Storage, env.Log)
	env.Router = navigation.NewRouter(navigation.RouteLogin, env.Opened.Open)
	env.Cache = cache.New(env.Sessions, env.Log, cache.WithClock(env.Clock.Now))

	client, err := httpclient.New(env.Backend.URL(), env.Backend.Server.Client(),
		httpclient.RequestID(),
		httpclient.Logging(env.Log),
		httpclient.Authorization(env.Sessions, env.Router, env.Log),
	)
	require.NoError(t, err)
	env.Client = client
	return env
}

// SignIn establishes id on the client and makes the backend accept it.
func (e *Env) SignIn(id string) {
	e.Backend.AcceptSession(id)
	e.Sessions.Establish(id)
}

// Recorder is a navigation.Opener that remembers what it was asked to open.
type Recorder struct {
	mu   sync.Mutex
	urls []string
	Err  error
}

func (r *Recorder) Open(rawURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, rawURL)
	return r.Err
}

func (r *Recorder) URLs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urls...)
}
