package domain

import (
	"fmt"
	"strings"
)

const (
	// repairTemperatureCap bounds sampling for the deterministic-formatter call.
	repairTemperatureCap = 0.15

	// repairDraftCap bounds how much of the draft is embedded in the repair request.
	repairDraftCap = 6000
)

// BuildRepairRequest builds the deterministic-formatter instruction pair for
// a draft that failed validation. The repaired call reuses the original
// request's transport settings with temperature clamped down.
func BuildRepairRequest(original *CompletionRequest, draft string, result ValidationResult, targetLabel, profile string) *CompletionRequest {
	system := "You are an exact-schema formatter. Restructure the draft you are given so it contains " +
		"exactly the required headings and fields, in order. Preserve the draft's content wherever possible. " +
		"Do not add new top-level sections, commentary, or preamble. Output the artifact only."
	if profile == ProfileStrict {
		system += " Any deviation from the required structure is a failure; follow it to the letter."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Stability profile: %s\n\n", profile)

	b.WriteString("Required headings, in order:\n")
	for _, heading := range RequiredHeadings(targetLabel) {
		b.WriteString("- " + heading + "\n")
	}

	b.WriteString("\nRequired fields inside the fenced block under " + HeadingCorePrompt + ":\n")
	for _, label := range ContractFieldLabels {
		b.WriteString("- " + label + ":\n")
	}

	b.WriteString("\nThe draft below is missing:\n")
	b.WriteString(renderMissing(result))

	b.WriteString("\nDraft to repair:\n\n")
	b.WriteString("````" + CanonicalFenceTag + "\n")
	b.WriteString(truncate(draft, repairDraftCap))
	b.WriteString("\n````\n")

	temperature := original.Temperature
	if temperature > repairTemperatureCap {
		temperature = repairTemperatureCap
	}

	return &CompletionRequest{
		Messages:       []Message{{Role: "user", Content: b.String()}},
		System:         system,
		Temperature:    temperature,
		Timeout:        original.Timeout,
		MaxRetries:     original.MaxRetries,
		RetryBaseDelay: original.RetryBaseDelay,
	}
}

// renderMissing renders a ValidationResult's misses for the repair prompt.
func renderMissing(result ValidationResult) string {
	var b strings.Builder
	for _, heading := range result.MissingHeadings {
		b.WriteString("- missing heading: " + heading + "\n")
	}
	for _, label := range result.MissingContractItems {
		b.WriteString("- missing field: " + label + "\n")
	}
	if result.MissingCodeBlock {
		b.WriteString("- missing fenced code block under " + HeadingCorePrompt + "\n")
	}
	if b.Len() == 0 {
		b.WriteString("- nothing\n")
	}
	return b.String()
}
