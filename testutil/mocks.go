// Package testutil provides shared test doubles: a mock Twitch API server and
// a recording notifier.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// MockTwitchServer creates a test server that mocks Twitch id/Helix endpoints.
type MockTwitchServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockTwitchServer creates a new mock Twitch API server. A default
// /oauth2/token handler is installed so client-credentials flows succeed.
func NewMockTwitchServer(t *testing.T) *MockTwitchServer {
	t.Helper()
	m := &MockTwitchServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Handlers["/oauth2/token"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-app-token",
			"expires_in":   3600,
			"token_type":   "bearer",
		})
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := m.Handlers[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockUserResponse adds a handler for the /helix/users endpoint.
func (m *MockTwitchServer) MockUserResponse(userID, login string) {
	m.Handlers["/helix/users"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]any{
			"data": []map[string]string{
				{"id": userID, "login": login},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}
}

// MockStreamResponse adds a handler for /helix/streams. A nil startedAt
// mocks an offline channel (empty data array).
func (m *MockTwitchServer) MockStreamResponse(title string, startedAt *time.Time) {
	m.Handlers["/helix/streams"] = func(w http.ResponseWriter, r *http.Request) {
		data := []map[string]string{}
		if startedAt != nil {
			data = append(data, map[string]string{
				"title":      title,
				"started_at": startedAt.Format(time.RFC3339),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}
}

// RecorderNotifier captures delivered reminders for assertions.
type RecorderNotifier struct {
	mu        sync.Mutex
	Delivered []DeliveredReminder
}

// DeliveredReminder is one captured Notify call.
type DeliveredReminder struct {
	Type    string
	Message string
}

// Notify implements the scheduler's Notifier contract.
func (r *RecorderNotifier) Notify(reminderType, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Delivered = append(r.Delivered, DeliveredReminder{Type: reminderType, Message: message})
}

// Count returns how many reminders were delivered.
func (r *RecorderNotifier) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Delivered)
}

// Types returns delivered reminder types in order.
func (r *RecorderNotifier) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Delivered))
	for _, d := range r.Delivered {
		out = append(out, d.Type)
	}
	return out
}
