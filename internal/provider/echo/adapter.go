// Package echo provides a deterministic in-memory provider for testing and
// development. It streams a fixed schema-shaped artifact built from the
// latest user message without making external calls.
package echo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davidbz/promptforge/internal/domain"
	"github.com/davidbz/promptforge/internal/observability"
)

const (
	providerName = "echo"
	chunkDelay   = 5 * time.Millisecond
)

// Provider implements the domain.Provider interface for local testing.
type Provider struct {
	name string
}

// NewProvider creates a new echo provider.
// No configuration is required as this provider operates entirely in-memory.
func NewProvider() *Provider {
	return &Provider{name: providerName}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// StreamCompletion streams a deterministic artifact word by word and returns
// the full text. It honors context cancellation between chunks.
func (p *Provider) StreamCompletion(ctx context.Context, req *domain.CompletionRequest, onChunk func(string)) (string, error) {
	if req == nil {
		return "", errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("streaming echo artifact")

	content := buildArtifact(req.Messages)

	words := strings.SplitAfter(content, " ")
	for _, word := range words {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		if onChunk != nil {
			onChunk(word)
		}
		time.Sleep(chunkDelay)
	}

	return strings.TrimSpace(content), nil
}

// buildArtifact renders a schema-shaped artifact around the latest user
// message. Headings are left in short form; the normalizer canonicalizes
// them exactly as it would for a real provider draft.
func buildArtifact(messages []domain.Message) string {
	request := "the user's request"
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" && strings.TrimSpace(messages[i].Content) != "" {
			request = strings.TrimSpace(messages[i].Content)
			break
		}
	}
	request = strings.ReplaceAll(request, "\n", " ")
	request = strings.ReplaceAll(request, "```", "'''")

	var b strings.Builder
	b.WriteString("## Core\n\n")
	b.WriteString("```\n")
	b.WriteString("Role: Echo assistant for local development.\n")
	fmt.Fprintf(&b, "Objective: %s\n", request)
	b.WriteString("Context: Conversation supplied by the caller.\n")
	b.WriteString("Constraints: Deterministic output only.\n")
	b.WriteString("Output Format: Markdown artifact.\n")
	b.WriteString("Quality Criteria: Stable across runs.\n")
	b.WriteString("Failure Handling: Report gaps instead of guessing.\n")
	b.WriteString("```\n\n")
	b.WriteString("## Adapter\n\n")
	b.WriteString("Use the core prompt unchanged.\n\n")
	b.WriteString("## Why\n\n")
	b.WriteString("Deterministic echo artifact for development and tests.\n\n")
	b.WriteString("## Checklist\n\n")
	b.WriteString("- Fields present\n- Output stable\n")

	return b.String()
}
