package domain

import (
	"fmt"
	"strings"
)

// Stability profiles select sampling strictness, not schema validation.
const (
	ProfileStandard = "standard"
	ProfileStrict   = "strict"
)

// NormalizeProfile maps a caller-supplied profile to a known one.
func NormalizeProfile(profile string) string {
	if strings.EqualFold(profile, ProfileStrict) {
		return ProfileStrict
	}
	return ProfileStandard
}

// TemperatureForProfile returns the sampling temperature for a profile.
func TemperatureForProfile(profile string) float64 {
	if profile == ProfileStrict {
		return 0.2
	}
	return 0.7
}

// BuildSystemPrompt assembles the system instruction for the generation
// call: the architect directive, the contract structure, the target adapter
// line, and any active supplementary instructions (opaque to the pipeline).
func BuildSystemPrompt(mode, profile, targetLabel string, skills []Skill) string {
	if targetLabel == "" {
		targetLabel = DefaultTargetLabel
	}

	var b strings.Builder
	b.WriteString("You are a prompt architect. From the conversation, produce a single prompt artifact ")
	b.WriteString("in markdown with exactly these sections, in order:\n")
	for _, heading := range RequiredHeadings(targetLabel) {
		b.WriteString(heading + "\n")
	}

	b.WriteString("\nUnder " + HeadingCorePrompt + ", place the prompt inside a ```" + CanonicalFenceTag +
		" fenced block containing each of these labeled fields on its own line:\n")
	b.WriteString(strings.Join(ContractFieldLabels, ", ") + ".\n")

	fmt.Fprintf(&b, "\nTarget agent: %s. Tailor the adapter section to it.\n", targetLabel)

	if mode != "" && mode != "generate" {
		fmt.Fprintf(&b, "Mode: %s.\n", mode)
	}

	if profile == ProfileStrict {
		b.WriteString("Follow the structure exactly; omit nothing and add no extra sections.\n")
	}

	for _, skill := range skills {
		b.WriteString("\n" + skill.Instruction + "\n")
	}

	return b.String()
}
