// Package openai drives streaming completion calls against an
// OpenAI-compatible chat endpoint: connect, decode the event stream,
// classify failures as transient or fatal, and retry with bounded backoff.
package openai

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

	"github.com/davidbz/promptforge/internal/domain"
	"github.com/davidbz/promptforge/internal/observability"
)

const (
	providerName = "openai"

	// maxBackoff caps the sleep between retry attempts.
	maxBackoff = 10 * time.Second

	// errorBodyLimit bounds how much of a failed response body is read.
	errorBodyLimit = 2048

	readBufferSize = 4096
)

// Client implements domain.Provider against an OpenAI-compatible endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a new streaming client. The per-attempt deadline is
// enforced through the request context, so the underlying http.Client
// carries no global timeout.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
	}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return providerName
}

// wire request/response structures.
type wireRequest struct {
	Model       string        `json:"model"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature,omitempty"`
	Messages    []wireMessage `json:"messages"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamCompletion drives one provider call end to end and returns the full
// accumulated text, trimmed. Transient failures are retried with a fresh
// connection up to the configured bound; text accumulated by a failed
// attempt is discarded, never carried into the retry.
func (c *Client) StreamCompletion(ctx context.Context, req *domain.CompletionRequest, onChunk func(string)) (string, error) {
	if req == nil {
		return "", errors.New("request cannot be nil")
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = time.Duration(c.cfg.Timeout) * time.Second
	}
	maxRetries := req.MaxRetries
	if maxRetries <= 0 {
		maxRetries = c.cfg.MaxRetries
	}
	baseDelay := req.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Duration(c.cfg.RetryBaseDelayMS) * time.Millisecond
	}

	logger := observability.FromContext(ctx)
	attempts := maxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := c.attempt(ctx, req, timeout, onChunk)
		if err == nil {
			return strings.TrimSpace(text), nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return "", cerr
		}

		lastErr = err
		if !isTransient(err) || attempt == attempts {
			return "", err
		}

		delay := min(baseDelay*time.Duration(attempt), maxBackoff)
		logger.Warn("transient provider failure, retrying",
			observability.Int("attempt", attempt),
			observability.Duration("backoff", delay),
			observability.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	return "", lastErr
}

// attempt opens one streaming connection and reads it to completion.
func (c *Client) attempt(ctx context.Context, req *domain.CompletionRequest, timeout time.Duration, onChunk func(string)) (string, error) {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.connect(actx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	decoder := NewDecoder()
	buf := make([]byte, readBufferSize)
	var acc strings.Builder

	apply := func(frame string) (bool, error) {
		event, ok := parseFrame(frame)
		if !ok {
			return false, nil
		}
		switch event.Type {
		case domain.EventChunk:
			acc.WriteString(event.Text)
			if onChunk != nil {
				onChunk(event.Text)
			}
		case domain.EventDone:
			return true, nil
		case domain.EventError:
			return false, &ProviderError{
				Status:    event.Status,
				Message:   event.Message,
				Transient: transientMessage(event.Message) || transientStatus(event.Status),
			}
		}
		return false, nil
	}

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, frame := range decoder.Feed(string(buf[:n])) {
				done, err := apply(frame)
				if err != nil {
					return "", err
				}
				if done {
					return acc.String(), nil
				}
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				// A non-conformant final event may arrive without its
				// trailing blank line; don't lose it.
				if rest := decoder.Rest(); strings.TrimSpace(rest) != "" {
					if _, err := apply(rest); err != nil {
						return "", err
					}
				}
				return acc.String(), nil
			}
			return "", &ProviderError{Message: readErr.Error(), Transient: true}
		}
	}
}

// connect sends the streaming request and checks the response status.
func (c *Client) connect(ctx context.Context, req *domain.CompletionRequest) (*http.Response, error) {
	messages := make([]wireMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, wireMessage{Role: "system", Content: req.System})
	}
	for _, msg := range req.Messages {
		messages = append(messages, wireMessage{Role: msg.Role, Content: msg.Content})
	}

	body, err := json.Marshal(wireRequest{
		Model:       c.cfg.Model,
		Stream:      true,
		Temperature: req.Temperature,
		Messages:    messages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Connection and timeout failures are transient.
		return nil, &ProviderError{Message: err.Error(), Transient: true}
	}

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		_ = resp.Body.Close()
		return nil, &ProviderError{
			Status:    resp.StatusCode,
			Message:   strings.TrimSpace(string(detail)),
			Transient: transientStatus(resp.StatusCode),
		}
	}

	return resp, nil
}

// isTransient reports whether an executor error is eligible for retry.
func isTransient(err error) bool {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Transient
	}
	return false
}
