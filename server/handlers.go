package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/onnwee/stream-coach/coach"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	scheduler *coach.Scheduler
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(scheduler *coach.Scheduler) *Handlers {
	return &Handlers{scheduler: scheduler}
}

// HandleHealthz responds to liveness probe requests.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleStatus reports stream duration, chat context, and per-timer state.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.scheduler.Snapshot())
}

// HandleTimerReset handles POST /timers/{name}/reset, the manual override
// hook mirroring the !reset chat command.
func (h *Handlers) HandleTimerReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// expected: timers/{name}/reset
	if len(parts) != 3 || parts[0] != "timers" || parts[2] != "reset" {
		http.NotFound(w, r)
		return
	}
	name := parts[1]
	if err := h.scheduler.Reset(name); err != nil {
		if errors.Is(err, coach.ErrUnknownTimer) {
			http.Error(w, "unknown timer: "+name, http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "reset", "timer": name})
}
