package domain

import (
	"fmt"
	"strings"
)

const (
	fallbackRequestCap = 600
	fallbackExtractCap = 800
)

// BuildFallback synthesizes a canonical artifact from fixed field templates,
// the truncated original user request, and a truncated extract of whatever
// core text the draft produced. Its output unconditionally satisfies
// Validate after Normalize; it is the terminal recovery path.
func BuildFallback(draft, userRequest, targetLabel string) string {
	if targetLabel == "" {
		targetLabel = DefaultTargetLabel
	}

	objective := sanitizeInline(truncate(userRequest, fallbackRequestCap))
	if objective == "" {
		objective = "Complete the user's request accurately."
	}

	extract := sanitizeInline(truncate(coreExtract(draft), fallbackExtractCap))

	var b strings.Builder
	b.WriteString(HeadingCorePrompt + "\n\n")
	b.WriteString("```" + CanonicalFenceTag + "\n")
	b.WriteString("Role: Expert assistant acting on the request described below.\n")
	b.WriteString("Objective: " + objective + "\n")
	b.WriteString("Context: Derived from the conversation supplied by the user.\n")
	b.WriteString("Constraints: Stay within the scope of the request. Do not invent facts.\n")
	b.WriteString("Output Format: Clear, well-structured text that addresses the request directly.\n")
	b.WriteString("Quality Criteria: Accurate, complete, and usable without further editing.\n")
	b.WriteString("Failure Handling: If required information is missing, state the gap and ask before proceeding.\n")
	if extract != "" {
		b.WriteString("\nDraft notes: " + extract + "\n")
	}
	b.WriteString("```\n\n")

	b.WriteString(AdapterHeading(targetLabel) + "\n\n")
	fmt.Fprintf(&b, "Use the core prompt above unchanged as the system instruction for %s.\n\n", targetLabel)

	b.WriteString(HeadingRationale + "\n\n")
	b.WriteString("This artifact was synthesized deterministically because the generated draft did not satisfy the required structure.\n\n")

	b.WriteString(HeadingChecklist + "\n\n")
	b.WriteString("- Core prompt contains every required field\n")
	b.WriteString("- Adapter section matches the selected target\n")
	b.WriteString("- Constraints reviewed before first use\n")

	return b.String()
}

// coreExtract pulls whatever core text the draft produced: the fenced block
// under the core heading when present, else the core section, else the draft.
func coreExtract(draft string) string {
	section := coreSection(draft)
	if body, ok := fencedBlock(section); ok && strings.TrimSpace(body) != "" {
		return strings.TrimSpace(body)
	}
	if strings.TrimSpace(section) != "" {
		return strings.TrimSpace(section)
	}
	return strings.TrimSpace(draft)
}

// sanitizeInline flattens text for safe embedding inside the fenced block:
// no line breaks that could introduce stray headings, no fence markers.
func sanitizeInline(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "```", "'''")
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

// truncate caps s at max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
