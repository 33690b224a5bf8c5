package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Complete(t *testing.T) {
	var got messagesRequest
	var headers http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"category\":\"Work\"}"}]}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Config{URL: srv.URL, APIKey: "secret"})
	out, err := c.Complete(context.Background(), Prompt("classify this", 0))
	require.NoError(t, err)

	assert.Equal(t, `{"category":"Work"}`, out)
	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "classify this", got.Messages[0].Content)
	assert.Equal(t, "secret", headers.Get("x-api-key"))
	assert.Equal(t, DefaultVersion, headers.Get("anthropic-version"))
}

func TestClient_Complete_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, ErrRemoteCall},
		{"throttled", http.StatusTooManyRequests, `slow down`, ErrRemoteCall},
		{"bad envelope", http.StatusOK, `not json`, ErrParse},
		{"no text block", http.StatusOK, `{"content":[{"type":"tool_use"}]}`, ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			_, err := NewClient(Config{URL: srv.URL}).Complete(context.Background(), Prompt("x", 10))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_Complete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(Config{URL: srv.URL, Timeout: 20 * time.Millisecond}).Complete(context.Background(), Prompt("x", 10))
	assert.ErrorIs(t, err, ErrRemoteCall)
}

func TestClient_Complete_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(Config{URL: url}).Complete(context.Background(), Prompt("x", 10))
	assert.ErrorIs(t, err, ErrRemoteCall)
}
