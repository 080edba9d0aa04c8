package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClient_Create(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/calls", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var params CreateParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		require.Equal(t, "be helpful", params.SystemPrompt)

		json.NewEncoder(w).Encode(map[string]any{
			"call_id":    "call-123",
			"status":     "queued",
			"join_url":   "https://provider.example/join/call-123",
			"created_at": time.Now().UTC().Format(time.RFC3339),
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 5*time.Second)
	result, err := c.Create(context.Background(), CreateParams{SystemPrompt: "be helpful", Model: "gpt-4o", Voice: "alloy"})
	require.NoError(t, err)
	require.Equal(t, "call-123", result.CallID)
	require.Equal(t, "queued", result.Status)
	require.Equal(t, "https://provider.example/join/call-123", result.JoinURL)
}

func TestClient_GetStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/calls/call-123", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"status":        "completed",
			"duration":      42,
			"recording_url": "https://provider.example/rec/call-123.mp3",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second)
	result, err := c.GetStatus(context.Background(), "call-123")
	require.NoError(t, err)
	require.Equal(t, "completed", result.Status)
	require.NotNil(t, result.DurationSec)
	require.Equal(t, 42, *result.DurationSec)
	require.Equal(t, "https://provider.example/rec/call-123.mp3", result.RecordingURL)

	// The raw payload is preserved for the call's event list.
	require.Equal(t, "completed", result.Payload["status"])
	require.EqualValues(t, 42, result.Payload["duration"])
}

func TestClient_GetStatus_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "internal", "error_description": "boom"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second)
	_, err := c.GetStatus(context.Background(), "call-123")
	require.Error(t, err)
	require.Contains(t, err.Error(), "internal")
}

func TestClient_GetTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/calls/call-123/transcript", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"transcript": []map[string]string{
				{"speaker": "assistant", "text": "hello", "timestamp": "2026-01-01T00:00:00Z"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second)
	segments, err := c.GetTranscript(context.Background(), "call-123")
	require.NoError(t, err)
	require.Len(t, segments, 1)
	require.Equal(t, "assistant", segments[0].Speaker)
}

func TestClient_GetTranscript_NotReadyYet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second)
	segments, err := c.GetTranscript(context.Background(), "call-123")
	require.NoError(t, err)
	require.Nil(t, segments)
}

func TestClient_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GetStatus(ctx, "call-123")
	require.Error(t, err)
}
