package twitchapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/onnwee/stream-coach/testutil"
)

func newTestClient(m *testutil.MockTwitchServer) *HelixClient {
	return &HelixClient{
		AppTokenSource: &TokenSource{
			ClientID:     "test-client-id",
			ClientSecret: "test-secret",
			TokenURL:     m.URL + "/oauth2/token",
		},
		ClientID: "test-client-id",
		BaseURL:  m.URL,
	}
}

func TestGetUserID(t *testing.T) {
	m := testutil.NewMockTwitchServer(t)
	m.MockUserResponse("u-456", "somestreamer")

	client := newTestClient(m)
	userID, err := client.GetUserID(context.Background(), "somestreamer")
	if err != nil {
		t.Fatalf("GetUserID() error: %v", err)
	}
	if userID != "u-456" {
		t.Errorf("GetUserID() = %q, want u-456", userID)
	}
}

func TestGetUserIDNotFound(t *testing.T) {
	m := testutil.NewMockTwitchServer(t)
	m.Handlers["/helix/users"] = func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}

	client := newTestClient(m)
	if _, err := client.GetUserID(context.Background(), "ghost"); err == nil {
		t.Error("expected error for unknown user")
	}
}

func TestGetStreamLive(t *testing.T) {
	m := testutil.NewMockTwitchServer(t)
	startedAt := time.Date(2024, 10, 15, 14, 30, 0, 0, time.UTC)
	m.MockStreamResponse("Live Now", &startedAt)

	client := newTestClient(m)
	stream, err := client.GetStream(context.Background(), "somestreamer")
	if err != nil {
		t.Fatalf("GetStream() error: %v", err)
	}
	if stream == nil {
		t.Fatal("GetStream() = nil, want live stream")
	}
	if stream.Title != "Live Now" {
		t.Errorf("title = %q, want Live Now", stream.Title)
	}
	if !stream.StartedAt.Equal(startedAt) {
		t.Errorf("started_at = %v, want %v", stream.StartedAt, startedAt)
	}
}

func TestGetStreamOffline(t *testing.T) {
	m := testutil.NewMockTwitchServer(t)
	m.MockStreamResponse("", nil)

	client := newTestClient(m)
	stream, err := client.GetStream(context.Background(), "somestreamer")
	if err != nil {
		t.Fatalf("GetStream() error: %v", err)
	}
	if stream != nil {
		t.Errorf("GetStream() = %+v, want nil for offline channel", stream)
	}
}

func TestGetStreamServerError(t *testing.T) {
	m := testutil.NewMockTwitchServer(t)
	m.Handlers["/helix/streams"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}

	client := newTestClient(m)
	if _, err := client.GetStream(context.Background(), "somestreamer"); err == nil {
		t.Error("expected error on 5xx response")
	}
}

func TestTokenSourceCachesToken(t *testing.T) {
	m := testutil.NewMockTwitchServer(t)
	tokenRequests := 0
	m.Handlers["/oauth2/token"] = func(w http.ResponseWriter, r *http.Request) {
		tokenRequests++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok",
			"expires_in":   3600,
			"token_type":   "bearer",
		})
	}
	startedAt := time.Date(2024, 10, 15, 14, 30, 0, 0, time.UTC)
	m.MockStreamResponse("Live", &startedAt)

	client := newTestClient(m)
	for i := 0; i < 3; i++ {
		if _, err := client.GetStream(context.Background(), "somestreamer"); err != nil {
			t.Fatalf("GetStream() #%d error: %v", i, err)
		}
	}
	if tokenRequests != 1 {
		t.Errorf("token requests = %d, want 1 (cached)", tokenRequests)
	}
}
