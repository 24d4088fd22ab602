// Package severity turns raw quality-tool output into per-file severity counts.
package severity

import (
	"regexp"
	"strings"

	"github.com/sprite-ai/triage/internal/model"
)

// Keyword classes, checked from most to least severe. The first class that
// matches a line decides its severity; lines matching none count as info.
var classes = []struct {
	severity model.Severity
	pattern  *regexp.Regexp
}{
	{model.SeverityBlocker, regexp.MustCompile(`(?i)\b(fatal|panic|blocker)\b`)},
	{model.SeverityCritical, regexp.MustCompile(`(?i)\berror\b|\bFAIL(ED)?\b`)},
	{model.SeverityWarning, regexp.MustCompile(`(?i)\bwarn(ing)?\b`)},
}

// location matches a leading "file:line" or "file(line" diagnostic location.
var location = regexp.MustCompile(`^\s*([^\s:()]+)(?::\d+|\(\d+)`)

// explicit matches the severity token that follows a location in
// compiler-style output, e.g. ":12:3: warning:" once the file is removed.
var explicit = regexp.MustCompile(`^(?::\d+)+:\s*([A-Za-z]+):`)

var tokens = map[string]model.Severity{
	"fatal":    model.SeverityBlocker,
	"blocker":  model.SeverityBlocker,
	"critical": model.SeverityCritical,
	"error":    model.SeverityCritical,
	"warning":  model.SeverityWarning,
	"warn":     model.SeverityWarning,
	"info":     model.SeverityInfo,
	"note":     model.SeverityInfo,
}

// Extractor is the default line-oriented severity extractor.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract counts the diagnostic lines in results that mention path.
// Skipped results contribute nothing. A line that starts with another file's
// location belongs to that file even if it mentions path later on.
func (e *Extractor) Extract(path string, results []model.ToolResult) model.SeverityCounts {
	var counts model.SeverityCounts
	if path == "" {
		return counts
	}
	for _, r := range results {
		if r.Skipped {
			continue
		}
		for _, line := range strings.Split(r.Output(), "\n") {
			if !strings.Contains(line, path) || !locatedAt(line, path) {
				continue
			}
			counts[classifyFor(line, path)]++
		}
	}
	return counts
}

func locatedAt(line, path string) bool {
	m := location.FindStringSubmatch(line)
	if m == nil {
		return true
	}
	loc := m[1]
	return loc == path || strings.HasSuffix(loc, "/"+path) || strings.HasSuffix(path, "/"+loc)
}

// classifyFor classifies line with every occurrence of path removed, so file
// names never decide the severity. An explicit "file:line: severity:" token
// wins over keyword matching.
func classifyFor(line, path string) model.Severity {
	if m := location.FindStringSubmatch(line); m != nil {
		line = strings.TrimSpace(strings.Replace(line, m[1], "", 1))
		if t := explicit.FindStringSubmatch(line); t != nil {
			if sev, ok := tokens[strings.ToLower(t[1])]; ok {
				return sev
			}
		}
	}
	return Classify(strings.ReplaceAll(line, path, ""))
}

// Classify returns the severity of a single diagnostic line.
func Classify(line string) model.Severity {
	for _, c := range classes {
		if c.pattern.MatchString(line) {
			return c.severity
		}
	}
	return model.SeverityInfo
}
