package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/davidbz/promptforge/internal/observability"
)

// PipelineOptions configures the generation pipeline.
type PipelineOptions struct {
	ProviderName string
	AutoRepair   bool
}

// PipelineService orchestrates artifact generation: provider streaming,
// normalization, validation, repair, and the canonical fallback.
type PipelineService struct {
	registry ProviderRegistry
	skills   SkillResolver
	opts     PipelineOptions
}

// NewPipelineService creates a new pipeline service (DI constructor).
func NewPipelineService(registry ProviderRegistry, skills SkillResolver, opts PipelineOptions) *PipelineService {
	return &PipelineService{
		registry: registry,
		skills:   skills,
		opts:     opts,
	}
}

// Generate runs one request through the pipeline. onChunk, when non-nil,
// receives draft fragments in provider arrival order. The returned result
// always carries a schema-valid artifact; every error return means no
// artifact could be produced.
func (s *PipelineService) Generate(ctx context.Context, req *GenerateRequest, onChunk func(string)) (*GenerateResult, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	profile := NormalizeProfile(req.StabilityProfile)
	target := req.TargetAgent
	if target == "" {
		target = DefaultTargetLabel
	}

	ctx = observability.WithProfile(ctx, profile)

	provider, err := s.registry.Get(ctx, s.opts.ProviderName)
	if err != nil {
		return nil, fmt.Errorf("provider not found: %w", err)
	}

	ctx = observability.WithProvider(ctx, provider.Name())
	logger := observability.FromContext(ctx)

	userText := latestUserText(req.Messages)

	var skills []Skill
	if s.skills != nil {
		skills = s.skills.Resolve(userText)
	}

	creq := &CompletionRequest{
		Messages:    req.Messages,
		System:      BuildSystemPrompt(req.Mode, profile, target, skills),
		Temperature: TemperatureForProfile(profile),
	}

	draft, err := provider.StreamCompletion(ctx, creq, onChunk)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}
	if cerr := ctx.Err(); cerr != nil {
		// Cancelled: discard partial text, skip validation and recovery.
		return nil, cerr
	}

	text := Normalize(draft, target)
	result := Validate(text, target)
	if result.IsValid {
		return &GenerateResult{Text: text}, nil
	}

	if s.opts.AutoRepair {
		logger.Warn("draft failed contract validation, attempting repair",
			observability.Int("missing_headings", len(result.MissingHeadings)),
			observability.Int("missing_fields", len(result.MissingContractItems)),
			observability.Bool("missing_code_block", result.MissingCodeBlock))

		repairReq := BuildRepairRequest(creq, text, result, target, profile)
		fixed, rerr := provider.StreamCompletion(ctx, repairReq, nil)
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		switch {
		case rerr != nil:
			// Swallowed by contract: the fallback below is the terminal
			// recovery path. Logged so the failure is not invisible.
			logger.Warn("repair call failed, falling back", observability.Error(rerr))
		default:
			fixedText := Normalize(fixed, target)
			if fres := Validate(fixedText, target); fres.IsValid {
				return &GenerateResult{Text: fixedText, Repaired: true}, nil
			}
			logger.Warn("repaired draft still fails contract validation, falling back")
		}
	}

	fallback := Normalize(BuildFallback(text, userText, target), target)
	if fres := Validate(fallback, target); !fres.IsValid {
		return nil, errors.New("fallback artifact failed validation")
	}

	logger.Warn("using canonical fallback artifact")
	return &GenerateResult{Text: fallback, Repaired: true, FallbackUsed: true}, nil
}

// latestUserText returns the content of the most recent user message.
func latestUserText(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}
