package domain

import (
	"regexp"
	"strings"
)

// Validate checks an artifact against the contract schema. Missing headings
// and field labels are reported in schema order. The contract body is the
// content of the first fenced block inside the core section.
func Validate(output, targetLabel string) ValidationResult {
	var missingHeadings []string
	for _, heading := range RequiredHeadings(targetLabel) {
		if !headingMatcher(heading).MatchString(output) {
			missingHeadings = append(missingHeadings, heading)
		}
	}

	section := coreSection(output)
	body, found := fencedBlock(section)

	var missingItems []string
	for _, label := range ContractFieldLabels {
		if !labelMatcher(label).MatchString(body) {
			missingItems = append(missingItems, label)
		}
	}

	return ValidationResult{
		IsValid:              len(missingHeadings) == 0 && len(missingItems) == 0 && found,
		MissingHeadings:      missingHeadings,
		MissingContractItems: missingItems,
		MissingCodeBlock:     !found,
	}
}

// headingMatcher builds a line-anchored, case-insensitive exact matcher.
func headingMatcher(heading string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)^` + regexp.QuoteMeta(heading) + `[ \t]*$`)
}

// labelMatcher matches a contract field label line, allowing an optional
// bullet or number prefix.
func labelMatcher(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)^[ \t]*(?:(?:[-*+]|\d+[.)])[ \t]*)?` +
		regexp.QuoteMeta(label) + `[ \t]*:`)
}

// coreSection returns the text from the core heading up to the next heading
// or end of document. Empty when the core heading is absent.
func coreSection(output string) string {
	loc := headingMatcher(HeadingCorePrompt).FindStringIndex(output)
	if loc == nil {
		return ""
	}

	rest := output[loc[1]:]
	if next := regexp.MustCompile(`(?m)^#{1,6}[ \t]`).FindStringIndex(rest); next != nil {
		rest = rest[:next[0]]
	}
	return rest
}

// fencedBlock extracts the contents of the first fenced block in section.
func fencedBlock(section string) (string, bool) {
	lines := strings.Split(section, "\n")

	open := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			open = i
			break
		}
	}
	if open < 0 {
		return "", false
	}

	for i := open + 1; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
			return strings.Join(lines[open+1:i], "\n"), true
		}
	}

	// Unterminated fence: treat the remainder as the block body.
	return strings.Join(lines[open+1:], "\n"), true
}
