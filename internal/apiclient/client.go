// Package apiclient submits tasks to a running ingest endpoint.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/colonyops/taskorg/internal/organizer"
)

// DefaultTimeout bounds a single submission.
const DefaultTimeout = 10 * time.Second

// ErrRejected is returned when the endpoint answers with a non-2xx status.
var ErrRejected = errors.New("task rejected by endpoint")

// Client posts tasks to the ingest endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// New creates a Client for endpoint. A zero timeout uses DefaultTimeout.
func New(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// Submit sends one task and returns the organized result.
func (c *Client) Submit(ctx context.Context, text, source string) (organizer.Response, error) {
	payload, err := json.Marshal(organizer.Request{Task: text, Source: source})
	if err != nil {
		return organizer.Response{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return organizer.Response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return organizer.Response{}, fmt.Errorf("post task: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return organizer.Response{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
			msg = eb.Error
		}
		return organizer.Response{}, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, msg)
	}

	var out organizer.Response
	if err := json.Unmarshal(body, &out); err != nil {
		return organizer.Response{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
