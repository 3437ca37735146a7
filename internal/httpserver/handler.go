package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/davidbz/promptforge/internal/domain"
	"github.com/davidbz/promptforge/internal/observability"
)

// frame is one newline-delimited JSON line of the generate response.
type frame struct {
	Type         string `json:"type"`
	Text         string `json:"text,omitempty"`
	Event        string `json:"event,omitempty"`
	Message      string `json:"message,omitempty"`
	Repaired     bool   `json:"repaired,omitempty"`
	FallbackUsed bool   `json:"fallback_used,omitempty"`
}

const (
	frameChunk = "chunk"
	frameMeta  = "meta"
	frameDone  = "done"
	frameError = "error"

	metaAutoRepair = "auto_repair_applied"
	metaNormalized = "normalized"
)

// Handler handles HTTP requests.
type Handler struct {
	pipeline *domain.PipelineService
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(pipeline *domain.PipelineService) *Handler {
	return &Handler{
		pipeline: pipeline,
	}
}

// HandleGenerate processes artifact generation requests. The response is a
// stream of NDJSON frames with exactly one terminal done or error frame.
// When the validated artifact differs from the streamed draft, a meta frame
// announces the replacement and the next chunk carries the full artifact.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Early validation.
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if err := validatePayload(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger := observability.FromContext(ctx)
	logger.Info("generate request received",
		observability.Int("messages", len(req.Messages)),
		observability.String("target_agent", req.TargetAgent),
		observability.String("stability_profile", req.StabilityProfile),
	)

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Error("streaming not supported")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")

	wrote := false
	emit := func(f frame) {
		data, err := json.Marshal(f)
		if err != nil {
			return
		}
		_, _ = w.Write(data)
		_, _ = w.Write([]byte("\n"))
		flusher.Flush()
		wrote = true
	}

	var streamed strings.Builder
	onChunk := func(text string) {
		streamed.WriteString(text)
		emit(frame{Type: frameChunk, Text: text})
	}

	result, err := h.pipeline.Generate(ctx, &req, onChunk)
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("generate aborted by caller", observability.Error(ctx.Err()))
			return
		}
		logger.Error("generate failed", observability.Error(err))
		if !wrote {
			http.Error(w, "generation failed", http.StatusInternalServerError)
			return
		}
		// Chunks already streamed: report as the terminal frame instead of
		// dropping the connection.
		emit(frame{Type: frameError, Message: err.Error()})
		return
	}

	switch {
	case result.Repaired:
		emit(frame{Type: frameMeta, Event: metaAutoRepair, FallbackUsed: result.FallbackUsed})
		emit(frame{Type: frameChunk, Text: result.Text})
	case result.Text != strings.TrimSpace(streamed.String()):
		// Normalization changed the draft; re-send the canonical artifact.
		emit(frame{Type: frameMeta, Event: metaNormalized})
		emit(frame{Type: frameChunk, Text: result.Text})
	}

	logger.Info("generate succeeded",
		observability.Bool("repaired", result.Repaired),
		observability.Bool("fallback_used", result.FallbackUsed),
		observability.Int("artifact_bytes", len(result.Text)),
	)

	emit(frame{Type: frameDone, Repaired: result.Repaired, FallbackUsed: result.FallbackUsed})
}

// validatePayload checks the decoded request shape.
func validatePayload(req *domain.GenerateRequest) error {
	if len(req.Messages) == 0 {
		return errors.New("messages are required")
	}
	for i, msg := range req.Messages {
		if msg.Role != "user" && msg.Role != "assistant" {
			return fmt.Errorf("message %d: role must be user or assistant", i)
		}
		if strings.TrimSpace(msg.Content) == "" {
			return fmt.Errorf("message %d: content is required", i)
		}
	}
	return nil
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		// Already written status, can't change it, just log.
		return
	}
}
