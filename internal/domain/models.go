package domain

import "time"

// Message represents a single chat message in the conversation.
type Message struct {
	ID      string `json:"id,omitempty"`
	Role    string `json:"role"` // user, assistant
	Content string `json:"content"`
}

// CompletionRequest represents one provider call.
// Zero-valued Timeout/MaxRetries/RetryBaseDelay fall back to provider config.
type CompletionRequest struct {
	Messages       []Message
	System         string
	Temperature    float64
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// StreamEventType tags a parsed provider event.
type StreamEventType int

const (
	// EventChunk carries a fragment of generated text.
	EventChunk StreamEventType = iota

	// EventDone signals the end of the stream.
	EventDone

	// EventError carries a provider-reported error.
	EventError
)

// StreamEvent is one parsed event from the provider stream.
type StreamEvent struct {
	Type    StreamEventType
	Text    string // set for EventChunk
	Message string // set for EventError
	Status  int    // optional HTTP-ish status carried by an error event
}

// ValidationResult reports contract conformance of an artifact.
// IsValid holds exactly when all three miss indicators are clear.
type ValidationResult struct {
	IsValid              bool     `json:"is_valid"`
	MissingHeadings      []string `json:"missing_headings,omitempty"`
	MissingContractItems []string `json:"missing_contract_items,omitempty"`
	MissingCodeBlock     bool     `json:"missing_code_block,omitempty"`
}

// GenerateRequest is the inbound payload for artifact generation.
type GenerateRequest struct {
	Messages         []Message `json:"messages"`
	Mode             string    `json:"mode,omitempty"`
	TargetAgent      string    `json:"targetAgent,omitempty"`
	StabilityProfile string    `json:"stabilityProfile,omitempty"`
}

// GenerateResult is the terminal outcome of the pipeline.
// Text is always schema-valid. Repaired is set when the repair or fallback
// path replaced the streamed draft; FallbackUsed narrows that to the
// synthesized terminal artifact.
type GenerateResult struct {
	Text         string
	Repaired     bool
	FallbackUsed bool
}

// Skill is a supplementary instruction activated for a request.
// The instruction body is opaque to the pipeline.
type Skill struct {
	Tag         string
	Instruction string
}
