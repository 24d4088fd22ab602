package selector

import (
	"fmt"
	"math"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sprite-ai/triage/internal/model"
)

// scoreFile sums the independent contributions for one file. Each
// contribution that fires appends an entry to RiskFactors.
func scoreFile(f model.ChangedFile, path string, counts model.SeverityCounts, fanIn int, patterns []string, inferred bool) model.FileScore {
	var (
		total   float64
		factors []string
	)

	if n := counts[model.SeverityBlocker]; n > 0 {
		total += float64(n * weightBlocker)
		factors = append(factors, countFactor(n, "blocker issue"))
	}
	if n := counts[model.SeverityCritical]; n > 0 {
		total += float64(n * weightCritical)
		factors = append(factors, countFactor(n, "critical issue"))
	}
	if n := counts[model.SeverityWarning]; n > 0 {
		total += float64(n * weightWarning)
		factors = append(factors, countFactor(n, "warning"))
	}

	switch {
	case fanIn > highFanIn:
		total += float64(fanIn * 2)
		factors = append(factors, fmt.Sprintf("high impact (%d imports)", fanIn))
	case fanIn > moderateFanIn:
		total += float64(fanIn)
		factors = append(factors, fmt.Sprintf("moderate impact (%d imports)", fanIn))
	}

	switch lines := f.LinesChanged; {
	case lines > largeChange:
		total += largeChangeBonus
		factors = append(factors, fmt.Sprintf("large change (%d lines)", lines))
	case lines > mediumChange:
		total += mediumChangeBonus
		factors = append(factors, fmt.Sprintf("medium change (%d lines)", lines))
	case lines > 0:
		total += float64(lines) * perLineWeight
		factors = append(factors, fmt.Sprintf("small change (%d lines)", lines))
	}

	if f.IsNew() {
		total += newFileBonus
		factors = append(factors, "new file")
	}

	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, path); ok {
			total += criticalPathBonus
			factors = append(factors, fmt.Sprintf("configured critical path (%s)", pattern))
			break
		}
	}

	if inferred {
		factors = append(factors, fmt.Sprintf("inferred critical path (%d importers)", fanIn))
	}

	// Damping applies to the complete sum, never to a partial one.
	if isTestFile(path) {
		total = math.Max(0, total-testFileDamping)
		factors = append(factors, "test file (lower priority)")
	}

	return model.FileScore{
		Path:           f.Path,
		Score:          int(math.Round(total)),
		RiskFactors:    factors,
		LinesChanged:   f.LinesChanged,
		ImportFanIn:    fanIn,
		SeverityCounts: counts,
	}
}

func isTestFile(path string) bool {
	return strings.Contains(path, ".test.") || strings.Contains(path, ".spec.")
}

func countFactor(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
