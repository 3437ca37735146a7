package skills_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/promptforge/internal/skills"
)

func TestLoad(t *testing.T) {
	t.Run("should yield an empty resolver for an empty path", func(t *testing.T) {
		resolver, err := skills.Load("")

		require.NoError(t, err)
		require.Empty(t, resolver.Resolve("anything at all"))
	})

	t.Run("should load definitions from a yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "skills.yaml")
		content := `
- tag: code-review
  patterns:
    - "review"
    - "pull request"
  instruction: Emphasize concrete findings over style nits.
- tag: sql
  patterns:
    - "\\bsql\\b"
  instruction: Prefer explicit column lists.
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		resolver, err := skills.Load(path)
		require.NoError(t, err)

		active := resolver.Resolve("please review my SQL migration")
		require.Len(t, active, 2)
		require.Equal(t, "code-review", active[0].Tag)
		require.Equal(t, "sql", active[1].Tag)
	})

	t.Run("should fail on a missing file", func(t *testing.T) {
		_, err := skills.Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})

	t.Run("should fail on malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o600))

		_, err := skills.Load(path)
		require.Error(t, err)
	})
}

func TestNewResolver(t *testing.T) {
	t.Run("should reject an empty tag", func(t *testing.T) {
		_, err := skills.NewResolver([]skills.Definition{{Patterns: []string{"x"}}})
		require.ErrorContains(t, err, "empty tag")
	})

	t.Run("should reject an invalid pattern", func(t *testing.T) {
		_, err := skills.NewResolver([]skills.Definition{
			{Tag: "broken", Patterns: []string{"("}},
		})
		require.ErrorContains(t, err, "invalid pattern")
	})
}

func TestResolve(t *testing.T) {
	newResolver := func(t *testing.T) *skills.Resolver {
		t.Helper()
		resolver, err := skills.NewResolver([]skills.Definition{
			{Tag: "first", Patterns: []string{"alpha", "beta"}, Instruction: "one"},
			{Tag: "second", Patterns: []string{"gamma"}, Instruction: "two"},
		})
		require.NoError(t, err)
		return resolver
	}

	t.Run("should match case-insensitively", func(t *testing.T) {
		active := newResolver(t).Resolve("ALPHA things")

		require.Len(t, active, 1)
		require.Equal(t, "first", active[0].Tag)
		require.Equal(t, "one", active[0].Instruction)
	})

	t.Run("should report each skill at most once", func(t *testing.T) {
		active := newResolver(t).Resolve("alpha and beta together")
		require.Len(t, active, 1)
	})

	t.Run("should keep definition order", func(t *testing.T) {
		active := newResolver(t).Resolve("gamma before alpha")

		require.Len(t, active, 2)
		require.Equal(t, "first", active[0].Tag)
		require.Equal(t, "second", active[1].Tag)
	})

	t.Run("should return nothing on no match", func(t *testing.T) {
		require.Empty(t, newResolver(t).Resolve("delta"))
	})
}
