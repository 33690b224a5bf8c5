package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskorg/internal/core/task"
	"github.com/colonyops/taskorg/internal/organizer"
)

func TestClient_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req organizer.Request
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, organizer.Request{Task: "Buy milk", Source: "mac"}, req)

			_ = json.NewEncoder(w).Encode(organizer.Response{
				ID:      "abc",
				Message: organizer.StoredMessage,
				OrganizedTask: task.Classification{
					Text:     "Buy milk",
					Category: task.CategoryShopping,
					Priority: task.PriorityLow,
				},
			})
		}))
		defer srv.Close()

		resp, err := New(srv.URL, 0).Submit(ctx, "Buy milk", "mac")
		require.NoError(t, err)
		assert.Equal(t, "abc", resp.ID)
		assert.Equal(t, task.CategoryShopping, resp.OrganizedTask.Category)
	})

	t.Run("rejected with error body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid task input"}`))
		}))
		defer srv.Close()

		_, err := New(srv.URL, 0).Submit(ctx, "x", "cli")
		require.ErrorIs(t, err, ErrRejected)
		assert.Contains(t, err.Error(), "status 400: invalid task input")
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		_, err := New(srv.URL, 20*time.Millisecond).Submit(ctx, "Buy milk", "cli")
		require.Error(t, err)
	})

	t.Run("bad response body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		}))
		defer srv.Close()

		_, err := New(srv.URL, 0).Submit(ctx, "Buy milk", "cli")
		require.ErrorContains(t, err, "decode response")
	})
}
