// Package inference is a narrow client for a hosted Messages-style language
// model endpoint.
package inference

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
)

const (
	DefaultModel     = "claude-3-haiku-20240307"
	DefaultVersion   = "2023-06-01"
	DefaultMaxTokens = 300
	DefaultTimeout   = 30 * time.Second

	maxErrorBody = 512
)

var (
	// ErrRemoteCall covers transport failures, timeouts and non-2xx replies.
	ErrRemoteCall = errors.New("inference call failed")
	// ErrParse is returned when a reply cannot be read as the expected structure.
	ErrParse = errors.New("inference reply not parseable")
)

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is an instruction sent to the model.
type Request struct {
	System    string
	Messages  []Message
	MaxTokens int
}

// Prompt builds a single-turn user request.
func Prompt(text string, maxTokens int) Request {
	return Request{
		Messages:  []Message{{Role: "user", Content: text}},
		MaxTokens: maxTokens,
	}
}

// Completer returns the model's text reply for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config configures a Client.
type Config struct {
	URL     string
	APIKey  string
	Model   string
	Version string
	Timeout time.Duration
}

// Client calls the endpoint over HTTP.
type Client struct {
	url     string
	apiKey  string
	model   string
	version string
	client  *http.Client
}

var _ Completer = (*Client)(nil)

// NewClient creates a client. Zero values in cfg fall back to defaults.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		version: cfg.Version,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends req and returns the text of the first text block in the reply.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages:  req.Messages,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %w", ErrRemoteCall, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("anthropic-version", c.version)
	if c.apiKey != "" {
		httpReq.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRemoteCall, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", ErrRemoteCall, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(data))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return "", fmt.Errorf("%w: status %d: %s", ErrRemoteCall, resp.StatusCode, snippet)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode envelope: %w", ErrParse, err)
	}

	for _, block := range parsed.Content {
		if block.Type == "text" || block.Type == "" {
			return block.Text, nil
		}
	}

	return "", fmt.Errorf("%w: reply has no text content", ErrParse)
}
