package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeAssistant emulates the IAM token endpoint and the Watson Assistant v2
// session/message endpoints.
type fakeAssistant struct {
	srv *httptest.Server

	mu        sync.Mutex
	sessions  map[string]bool
	nextID    int
	lastInput string

	tokenCalls   atomic.Int32
	createCalls  atomic.Int32
	messageCalls atomic.Int32

	// failCreate makes the session endpoint return 500.
	failCreate bool
	// reply builds the message response body; nil = echo as one fragment.
	reply func(text string) (status int, body string)
}

func newFakeAssistant(t *testing.T) *fakeAssistant {
	t.Helper()
	f := &fakeAssistant{sessions: map[string]bool{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/identity/token", f.handleToken)
	mux.HandleFunc("/v2/assistants/", f.handleAssistant)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAssistant) config() SessionConfig {
	return SessionConfig{
		APIKey:      "watson-key",
		URL:         f.srv.URL,
		AssistantID: "asst-1",
		IAMURL:      f.srv.URL + "/identity/token",
	}
}

// expire forgets every session so the next message gets a 404.
func (f *fakeAssistant) expire() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = map[string]bool{}
}

func (f *fakeAssistant) handleToken(w http.ResponseWriter, r *http.Request) {
	f.tokenCalls.Add(1)
	if err := r.ParseForm(); err != nil || r.Form.Get("apikey") != "watson-key" {
		http.Error(w, `{"errorMessage":"bad api key"}`, http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"access_token":"opaque-token","expires_in":3600}`) //nolint:errcheck
}

func (f *fakeAssistant) handleAssistant(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer opaque-token" {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	if r.URL.Query().Get("version") == "" {
		http.Error(w, `{"error":"missing version"}`, http.StatusBadRequest)
		return
	}
	// /v2/assistants/{id}/sessions[/{sid}/message]
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/v2/assistants/"), "/")
	switch {
	case len(parts) == 2 && parts[1] == "sessions":
		f.createSession(w)
	case len(parts) == 4 && parts[1] == "sessions" && parts[3] == "message":
		f.message(w, r, parts[2])
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAssistant) createSession(w http.ResponseWriter) {
	f.createCalls.Add(1)
	if f.failCreate {
		http.Error(w, `{"error":"down"}`, http.StatusInternalServerError)
		return
	}
	f.mu.Lock()
	f.nextID++
	sid := fmt.Sprintf("sess-%d", f.nextID)
	f.sessions[sid] = true
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"session_id": sid}) //nolint:errcheck
}

func (f *fakeAssistant) message(w http.ResponseWriter, r *http.Request, sid string) {
	f.messageCalls.Add(1)
	f.mu.Lock()
	known := f.sessions[sid]
	f.mu.Unlock()
	if !known {
		http.Error(w, `{"error":"Invalid Session"}`, http.StatusNotFound)
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad body"}`, http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.lastInput = req.Input.Text
	reply := f.reply
	f.mu.Unlock()

	status, body := http.StatusOK, fmt.Sprintf(`{"output":{"generic":[{"response_type":"text","text":%q}]}}`, "echo: "+req.Input.Text)
	if reply != nil {
		status, body = reply(req.Input.Text)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, body) //nolint:errcheck
}

// newGenerationServer returns a server that answers every POST with status/body
// and counts the calls.
func newGenerationServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer granite-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// readerStub is a Reader returning a fixed answer and recording its input.
type readerStub struct {
	answer Answer
	err    error
	panics bool

	mu          sync.Mutex
	gotQuestion string
	gotPassage  string
}

func (r *readerStub) Name() string { return "stub" }

func (r *readerStub) Read(_ context.Context, question, passage string) (Answer, error) {
	if r.panics {
		panic("reader exploded")
	}
	r.mu.Lock()
	r.gotQuestion, r.gotPassage = question, passage
	r.mu.Unlock()
	return r.answer, r.err
}
