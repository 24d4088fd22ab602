// Package analysis runs lightweight checks over the added lines of a diff and
// reports what they find as diagnostics the critical file selector can score.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/sprite-ai/triage/internal/diff"
	"github.com/sprite-ai/triage/internal/model"
)

// Finding is a single check result attached to a file and line.
type Finding struct {
	Check    string
	Path     string
	Line     int // line in the new file, 0 if file-level
	Message  string
	Severity model.Severity
}

// String renders the finding as a compiler-style diagnostic line.
func (f Finding) String() string {
	loc := f.Path
	if f.Line > 0 {
		loc = fmt.Sprintf("%s:%d", f.Path, f.Line)
	}
	return fmt.Sprintf("%s: %s: %s [%s]", loc, f.Severity, f.Message, f.Check)
}

// Check inspects a diff and returns its findings.
type Check func(ds *diff.DiffSet) []Finding

// Checks maps check names to their implementations.
var Checks = map[string]Check{
	"deps":          DependencyCheck,
	"security":      SecurityCheck,
	"anti_patterns": AntiPatternCheck,
}

// Names returns the check names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Checks))
	for name := range Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes every check not named in skip and returns the findings
// ordered by path and line.
func Run(ds *diff.DiffSet, skip []string) []Finding {
	if ds == nil {
		return nil
	}
	skipSet := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipSet[s] = true
	}

	var findings []Finding
	for _, name := range Names() {
		if skipSet[name] {
			continue
		}
		findings = append(findings, Checks[name](ds)...)
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Path != findings[j].Path {
			return findings[i].Path < findings[j].Path
		}
		return findings[i].Line < findings[j].Line
	})
	return findings
}

// ToolResult packages findings as the output of one quality tool run so they
// can be merged with externally supplied diagnostics.
func ToolResult(findings []Finding) model.ToolResult {
	lines := make([]string, len(findings))
	success := true
	for i, f := range findings {
		lines[i] = f.String()
		if f.Severity <= model.SeverityWarning {
			success = false
		}
	}
	return model.ToolResult{
		Type:    "diffcheck",
		Tool:    "triage",
		Success: success,
		Stdout:  strings.Join(lines, "\n"),
	}
}

// addedLine is one added line of a file with its new-file line number.
type addedLine struct {
	num  int
	text string
}

func addedLines(f *diff.File) []addedLine {
	var out []addedLine
	for _, frag := range f.Fragments {
		num := int(frag.NewPosition)
		for _, line := range frag.Lines {
			switch line.Op {
			case gitdiff.OpAdd:
				out = append(out, addedLine{num: num, text: strings.TrimRight(line.Line, "\r\n")})
				num++
			case gitdiff.OpContext:
				num++
			}
		}
	}
	return out
}

func dedupe(findings []Finding) []Finding {
	seen := make(map[string]bool, len(findings))
	out := findings[:0]
	for _, f := range findings {
		key := fmt.Sprintf("%s:%d:%s", f.Path, f.Line, f.Message)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}
