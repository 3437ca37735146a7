package domain

import "context"

// Provider streams one completion end to end and returns the full
// accumulated text, trimmed. onChunk, when non-nil, is invoked for every
// text fragment in provider arrival order.
type Provider interface {
	// StreamCompletion drives one provider call including retries.
	StreamCompletion(ctx context.Context, req *CompletionRequest, onChunk func(string)) (string, error)

	// Name returns the provider identifier.
	Name() string
}

// ProviderRegistry manages available providers.
type ProviderRegistry interface {
	// Register adds a provider to the registry.
	Register(ctx context.Context, provider Provider) error

	// Get retrieves a provider by name.
	Get(ctx context.Context, providerName string) (Provider, error)

	// List returns all available providers.
	List(ctx context.Context) ([]string, error)
}

// SkillResolver maps the latest user text to the set of active
// supplementary instructions. Implementations must be pure.
type SkillResolver interface {
	Resolve(latestUserText string) []Skill
}
