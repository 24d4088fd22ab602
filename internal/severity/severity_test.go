package severity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sprite-ai/triage/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want model.Severity
	}{
		{"src/a.ts:1:1 fatal: cannot parse", model.SeverityBlocker},
		{"panic: runtime error in src/a.go", model.SeverityBlocker},
		{"src/a.ts(3,4): error TS2322: Type 'x'", model.SeverityCritical},
		{"FAIL src/a.test.ts", model.SeverityCritical},
		{"src/a.ts:2:1  warning  Unexpected any", model.SeverityWarning},
		{"WARN src/a.ts deprecated", model.SeverityWarning},
		{"src/a.ts: note: consider refactoring", model.SeverityInfo},
		{"src/errors.ts: formatted", model.SeverityInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.line), tt.line)
	}
}

func TestExtract(t *testing.T) {
	results := []model.ToolResult{
		{
			Type: "lint", Tool: "eslint",
			Stdout: "src/a.ts:1:1 error no-unused-vars\nsrc/a.ts:2:1 warning prefer-const\nsrc/b.ts:1:1 error semi\n",
		},
		{
			Type: "typecheck", Tool: "tsc",
			Stderr: "src/a.ts(9,1): error TS1005\nfatal: src/a.ts could not be read",
		},
		{
			Type: "test", Tool: "vitest", Skipped: true, Reason: "no tests",
			Stdout: "src/a.ts error should be ignored",
		},
	}

	counts := New().Extract("src/a.ts", results)
	assert.Equal(t, 1, counts[model.SeverityBlocker])
	assert.Equal(t, 2, counts[model.SeverityCritical])
	assert.Equal(t, 1, counts[model.SeverityWarning])
	assert.Equal(t, 0, counts[model.SeverityInfo])
}

func TestExtractNoMatch(t *testing.T) {
	results := []model.ToolResult{{Stdout: "all good"}}
	assert.Equal(t, model.SeverityCounts{}, New().Extract("src/a.ts", results))
	assert.Equal(t, model.SeverityCounts{}, New().Extract("", results))
}

func TestExtractIgnoresKeywordsInPath(t *testing.T) {
	tests := []struct {
		path, line string
		want       model.Severity
	}{
		{"internal/error/handler.go", "internal/error/handler.go:3:1: info: unused parameter", model.SeverityInfo},
		{"src/panic.ts", "src/panic.ts:9: warning: prefer const", model.SeverityWarning},
		{"src/fatal.py", "src/fatal.py:1:1 consider a docstring", model.SeverityInfo},
		{"pkg/failover/warn.go", "pkg/failover/warn.go(4,2): error undefined", model.SeverityCritical},
		{"src/panic.go", "src/panic.go:2: info: TODO marker in added code [anti_patterns]", model.SeverityInfo},
		{"src/a.ts", "/home/ci/blocker/src/a.ts:7:1: note: fine", model.SeverityInfo},
		{"src/a.ts", "src/a.ts:7:1: error: wins over the word warning", model.SeverityCritical},
	}
	for _, tt := range tests {
		results := []model.ToolResult{{Type: "lint", Tool: "x", Stdout: tt.line}}
		var want model.SeverityCounts
		want[tt.want] = 1
		assert.Equal(t, want, New().Extract(tt.path, results), tt.line)
	}
}

func TestExtractAttributesByLocation(t *testing.T) {
	results := []model.ToolResult{{
		Type: "diffcheck", Tool: "triage",
		Stdout: "b.go:1: warning: copied from a.go\nsrc/b.go:4:2: error: a.go is stale\nFAIL a.go broken",
	}}

	counts := New().Extract("a.go", results)
	assert.Equal(t, 1, counts.Total(), "only the unlocated line belongs to a.go")
	assert.Equal(t, 1, counts[model.SeverityCritical])

	// A location that is a longer form of the path still counts.
	assert.Equal(t, 1, New().Extract("src/b.go", results)[model.SeverityCritical])
}
