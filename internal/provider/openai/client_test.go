package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/promptforge/internal/domain"
	"github.com/davidbz/promptforge/internal/provider/openai"
)

func testConfig(baseURL string, maxRetries int) openai.Config {
	return openai.Config{
		APIKey:           "test-key",
		BaseURL:          baseURL,
		Model:            "gpt-4o-mini",
		Timeout:          5,
		MaxRetries:       maxRetries,
		RetryBaseDelayMS: 1,
	}
}

func completionRequest() *domain.CompletionRequest {
	return &domain.CompletionRequest{
		Messages:    []domain.Message{{Role: "user", Content: "hello"}},
		System:      "system directive",
		Temperature: 0.7,
	}
}

func sseBody(chunks ...string) string {
	body := ""
	for _, chunk := range chunks {
		data, _ := json.Marshal(map[string]any{
			"choices": []map[string]any{{"delta": map[string]any{"content": chunk}}},
		})
		body += "data: " + string(data) + "\n\n"
	}
	return body + "data: [DONE]\n\n"
}

func TestClientStreamCompletion(t *testing.T) {
	t.Run("should accumulate chunks in arrival order", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var wire struct {
				Model    string `json:"model"`
				Stream   bool   `json:"stream"`
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &wire))
			require.Equal(t, "gpt-4o-mini", wire.Model)
			require.True(t, wire.Stream)
			require.Equal(t, "system", wire.Messages[0].Role)

			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = io.WriteString(w, sseBody("Hello", " ", "world", "  "))
		}))
		defer server.Close()

		client, err := openai.NewClient(testConfig(server.URL, 0))
		require.NoError(t, err)

		var chunks []string
		text, err := client.StreamCompletion(context.Background(), completionRequest(), func(chunk string) {
			chunks = append(chunks, chunk)
		})

		require.NoError(t, err)
		require.Equal(t, "Hello world", text)
		require.Equal(t, []string{"Hello", " ", "world", "  "}, chunks)
	})

	t.Run("should decode a CRLF-delimited stream", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			body := strings.ReplaceAll(sseBody("Hello", " world"), "\n", "\r\n")
			_, _ = io.WriteString(w, body)
		}))
		defer server.Close()

		client, err := openai.NewClient(testConfig(server.URL, 0))
		require.NoError(t, err)

		text, err := client.StreamCompletion(context.Background(), completionRequest(), nil)

		require.NoError(t, err)
		require.Equal(t, "Hello world", text)
	})

	t.Run("should keep a final event that arrives without its delimiter", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"first\"}}]}\n\n")
			// Stream ends abruptly: no blank line after the last event.
			_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\" last\"}}]}")
		}))
		defer server.Close()

		client, err := openai.NewClient(testConfig(server.URL, 0))
		require.NoError(t, err)

		text, err := client.StreamCompletion(context.Background(), completionRequest(), nil)

		require.NoError(t, err)
		require.Equal(t, "first last", text)
	})

	t.Run("should retry a transient status once then succeed", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if attempts.Add(1) == 1 {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}
			_, _ = io.WriteString(w, sseBody("ok"))
		}))
		defer server.Close()

		client, err := openai.NewClient(testConfig(server.URL, 1))
		require.NoError(t, err)

		text, err := client.StreamCompletion(context.Background(), completionRequest(), nil)

		require.NoError(t, err)
		require.Equal(t, "ok", text)
		require.Equal(t, int32(2), attempts.Load())
	})

	t.Run("should make exactly two attempts with one retry allowed", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			attempts.Add(1)
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client, err := openai.NewClient(testConfig(server.URL, 1))
		require.NoError(t, err)

		_, err = client.StreamCompletion(context.Background(), completionRequest(), nil)

		require.Error(t, err)
		require.Equal(t, int32(2), attempts.Load())
	})

	t.Run("should not retry a fatal status", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			attempts.Add(1)
			http.Error(w, "bad request", http.StatusBadRequest)
		}))
		defer server.Close()

		client, err := openai.NewClient(testConfig(server.URL, 3))
		require.NoError(t, err)

		_, err = client.StreamCompletion(context.Background(), completionRequest(), nil)

		require.Error(t, err)
		require.Equal(t, int32(1), attempts.Load())

		var perr *openai.ProviderError
		require.ErrorAs(t, err, &perr)
		require.False(t, perr.Transient)
		require.Equal(t, http.StatusBadRequest, perr.Status)
	})

	t.Run("should not retry a fatal mid-stream error event", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			attempts.Add(1)
			_, _ = io.WriteString(w, `data: {"error":{"message":"invalid schema in request"}}`+"\n\n")
		}))
		defer server.Close()

		client, err := openai.NewClient(testConfig(server.URL, 3))
		require.NoError(t, err)

		_, err = client.StreamCompletion(context.Background(), completionRequest(), nil)

		require.Error(t, err)
		require.Equal(t, int32(1), attempts.Load())
	})

	t.Run("should retry a transient mid-stream error event", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if attempts.Add(1) == 1 {
				_, _ = io.WriteString(w, `data: {"error":{"message":"connection reset by peer"}}`+"\n\n")
				return
			}
			_, _ = io.WriteString(w, sseBody("recovered"))
		}))
		defer server.Close()

		client, err := openai.NewClient(testConfig(server.URL, 1))
		require.NoError(t, err)

		text, err := client.StreamCompletion(context.Background(), completionRequest(), nil)

		require.NoError(t, err)
		require.Equal(t, "recovered", text)
		require.Equal(t, int32(2), attempts.Load())
	})

	t.Run("should discard text accumulated by a failed attempt", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if attempts.Add(1) == 1 {
				_, _ = io.WriteString(w, sseBody("stale")[:len("data: ")]) // cut mid-frame
				_, _ = io.WriteString(w, `{"choices":[{"delta":{"content":"stale"}}]}`+"\n\n")
				_, _ = io.WriteString(w, `data: {"error":{"message":"connection reset"}}`+"\n\n")
				return
			}
			_, _ = io.WriteString(w, sseBody("fresh"))
		}))
		defer server.Close()

		client, err := openai.NewClient(testConfig(server.URL, 1))
		require.NoError(t, err)

		text, err := client.StreamCompletion(context.Background(), completionRequest(), nil)

		require.NoError(t, err)
		require.Equal(t, "fresh", text)
	})

	t.Run("should honor cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client, err := openai.NewClient(testConfig(server.URL, 3))
		require.NoError(t, err)

		_, err = client.StreamCompletion(ctx, completionRequest(), nil)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("should require an API key", func(t *testing.T) {
		_, err := openai.NewClient(openai.Config{})
		require.Error(t, err)
	})
}
