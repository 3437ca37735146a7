package domain

// Contract schema: every artifact must carry these four headings and, inside
// the fenced block under the core heading, the seven field labels. Constant
// for the process lifetime.

const (
	// HeadingCorePrompt is the canonical core section heading.
	HeadingCorePrompt = "## Core Prompt"

	// HeadingRationale is the canonical rationale section heading.
	HeadingRationale = "## Rationale"

	// HeadingChecklist is the canonical checklist section heading.
	HeadingChecklist = "## Checklist"

	// adapterHeadingPrefix parameterizes the adapter heading with the target label.
	adapterHeadingPrefix = "## Adapter: "

	// CanonicalFenceTag is the fence tag the core block is normalized to.
	CanonicalFenceTag = "text"

	// DefaultTargetLabel is used when the caller names no target agent.
	DefaultTargetLabel = "General"
)

// AdapterHeading returns the adapter heading for the given target label.
func AdapterHeading(targetLabel string) string {
	if targetLabel == "" {
		targetLabel = DefaultTargetLabel
	}
	return adapterHeadingPrefix + targetLabel
}

// RequiredHeadings returns the four canonical headings in schema order.
func RequiredHeadings(targetLabel string) []string {
	return []string{
		HeadingCorePrompt,
		AdapterHeading(targetLabel),
		HeadingRationale,
		HeadingChecklist,
	}
}

// ContractFieldLabels lists the required field labels in schema order.
//
//nolint:gochecknoglobals // Fixed schema constant
var ContractFieldLabels = []string{
	"Role",
	"Objective",
	"Context",
	"Constraints",
	"Output Format",
	"Quality Criteria",
	"Failure Handling",
}

// recognizedFenceTags are left untouched by the normalizer.
//
//nolint:gochecknoglobals // Fixed schema constant
var recognizedFenceTags = map[string]bool{
	"text":     true,
	"md":       true,
	"markdown": true,
}
