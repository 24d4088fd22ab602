package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/triage/internal/model"
)

func TestParseFrontmatter(t *testing.T) {
	doc := "---\r\nname: jest\napplies_to:\n  - \"**/*.test.ts\"\n  - \"**/__tests__/**\"\n---\n# Jest profile\n"
	fm, err := ParseFrontmatter([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "jest", fm.Name)
	assert.Equal(t, []string{"**/*.test.ts", "**/__tests__/**"}, fm.AppliesTo)
}

func TestParseFrontmatterErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"no opening delimiter", "# Title\napplies_to: [x]\n"},
		{"unterminated", "---\napplies_to: [x]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFrontmatter([]byte(tt.doc))
			assert.True(t, errors.Is(err, ErrNoFrontmatter), "got %v", err)
		})
	}

	_, err := ParseFrontmatter([]byte("---\napplies_to: [unterminated\n---\n"))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoFrontmatter))
}

func writeProfile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "languages/typescript.md", "---\napplies_to: [\"**/*.ts\", \"**/*.tsx\"]\n---\n")
	writeProfile(t, dir, "frameworks/react.md", "---\napplies_to: [\"src/components/**\"]\n---\n")
	writeProfile(t, dir, "testing/vitest.md", "---\napplies_to: [\"**/*.test.ts\", \"[bad\"]\n---\n")
	writeProfile(t, dir, "testing/broken.md", "no frontmatter here")
	writeProfile(t, dir, "security/owasp.md", "---\napplies_to: [\"**/*\"]\n---\n")
	writeProfile(t, dir, "README.md", "---\napplies_to: [\"**/*\"]\n---\n")
	writeProfile(t, dir, "languages/notes.txt", "ignored")

	rules := Load(dir, nil)
	require.Len(t, rules, 4)

	assert.Equal(t, Rule{Pattern: "**/*.test.ts", Type: model.FileTest, Profile: "testing/vitest.md"}, rules[0])
	assert.Equal(t, "frameworks/react.md", rules[1].Profile)
	assert.Equal(t, model.FileImplementation, rules[1].Type)
	assert.Equal(t, "**/*.ts", rules[2].Pattern)
	assert.Equal(t, "**/*.tsx", rules[3].Pattern)
}

func TestLoadMissingDir(t *testing.T) {
	assert.Empty(t, Load(filepath.Join(t.TempDir(), "absent"), nil))
}

func TestRuleMatch(t *testing.T) {
	r := Rule{Pattern: "**/*.test.ts"}
	assert.True(t, r.Match("src/a/b.test.ts"))
	assert.False(t, r.Match("src/a/b.ts"))
}
