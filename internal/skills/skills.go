// Package skills loads supplementary instruction definitions and resolves
// which of them apply to a request. Resolution is a pure function of the
// latest user text; definitions are compiled once at load and cached in
// process memory for the process lifetime.
package skills

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/davidbz/promptforge/internal/domain"
)

// Definition is one skill as declared in the YAML file.
type Definition struct {
	Tag         string   `yaml:"tag"`
	Patterns    []string `yaml:"patterns"`
	Instruction string   `yaml:"instruction"`
}

type compiledSkill struct {
	tag         string
	patterns    []*regexp.Regexp
	instruction string
}

// Resolver implements domain.SkillResolver over a compiled skill set.
type Resolver struct {
	skills []compiledSkill
}

// Load reads skill definitions from path and compiles their patterns
// case-insensitively. An empty path yields a resolver with no skills.
func Load(path string) (*Resolver, error) {
	if path == "" {
		return &Resolver{skills: nil}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read skills file: %w", err)
	}

	var defs []Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse skills file: %w", err)
	}

	return NewResolver(defs)
}

// NewResolver compiles a skill set.
func NewResolver(defs []Definition) (*Resolver, error) {
	skills := make([]compiledSkill, 0, len(defs))
	for _, def := range defs {
		if def.Tag == "" {
			return nil, fmt.Errorf("skill with empty tag")
		}

		compiled := compiledSkill{
			tag:         def.Tag,
			patterns:    make([]*regexp.Regexp, 0, len(def.Patterns)),
			instruction: def.Instruction,
		}
		for _, pattern := range def.Patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return nil, fmt.Errorf("skill %s: invalid pattern %q: %w", def.Tag, pattern, err)
			}
			compiled.patterns = append(compiled.patterns, re)
		}
		skills = append(skills, compiled)
	}

	return &Resolver{skills: skills}, nil
}

// Resolve returns the skills whose patterns match the latest user text, in
// definition order.
func (r *Resolver) Resolve(latestUserText string) []domain.Skill {
	var active []domain.Skill
	for _, skill := range r.skills {
		for _, pattern := range skill.patterns {
			if pattern.MatchString(latestUserText) {
				active = append(active, domain.Skill{Tag: skill.tag, Instruction: skill.instruction})
				break
			}
		}
	}
	return active
}
