package domain

import (
	"regexp"
	"strings"
)

// blankRunPattern matches three or more consecutive blank lines.
var blankRunPattern = regexp.MustCompile(`\n{4,}`)

// headingLinePattern matches any markdown heading line.
var headingLinePattern = regexp.MustCompile(`^#{1,6}[ \t]`)

// Normalize canonicalizes an artifact draft without changing its meaning:
// line endings become \n, runs of three or more blank lines collapse to one,
// heading variants are rewritten to the canonical schema headings (the
// adapter heading parameterized by targetLabel), and the first fenced block
// under the core heading gets the canonical fence tag when it carries none
// or an unrecognized one. Normalize is idempotent.
func Normalize(raw, targetLabel string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = blankRunPattern.ReplaceAllString(s, "\n\n")

	lines := strings.Split(s, "\n")
	rewriteHeadings(lines, targetLabel)
	rewriteCoreFenceTag(lines)

	return strings.Join(lines, "\n")
}

// rewriteHeadings rewrites schema heading variants in place, skipping lines
// inside fenced blocks.
func rewriteHeadings(lines []string, targetLabel string) {
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence || !strings.HasPrefix(trimmed, "#") {
			continue
		}
		if canonical, ok := canonicalHeading(trimmed, targetLabel); ok {
			lines[i] = canonical
		}
	}
}

// canonicalHeading maps a heading-line variant to its canonical form.
func canonicalHeading(line, targetLabel string) (string, bool) {
	body := strings.TrimSpace(strings.TrimLeft(line, "#"))
	if body == "" {
		return "", false
	}
	lower := strings.ToLower(body)

	switch lower {
	case "core prompt", "core", "prompt":
		return HeadingCorePrompt, true
	case "rationale", "why", "reasoning":
		return HeadingRationale, true
	case "checklist", "check list", "verification checklist":
		return HeadingChecklist, true
	}

	if lower == "adapter" || lower == "target adapter" ||
		strings.HasPrefix(lower, "adapter:") || strings.HasPrefix(lower, "adapter for") {
		return AdapterHeading(targetLabel), true
	}

	return "", false
}

// rewriteCoreFenceTag rewrites the opening fence directly under the core
// heading to the canonical tag unless the tag is already recognized.
func rewriteCoreFenceTag(lines []string) {
	start := -1
	for i, line := range lines {
		if strings.TrimRight(line, " \t") == HeadingCorePrompt {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return
	}

	for i := start; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if headingLinePattern.MatchString(trimmed) {
			return // next section reached, no fence in core
		}
		if strings.HasPrefix(trimmed, "```") {
			tag := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(trimmed, "```")))
			if !recognizedFenceTags[tag] {
				lines[i] = "```" + CanonicalFenceTag
			}
			return
		}
	}
}
