// Package selector ranks changed files by composite risk and picks a bounded
// subset for deep review.
package selector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sprite-ai/triage/internal/model"
	"github.com/sprite-ai/triage/internal/slogutil"
)

// Algorithm identifies the scoring logic in reports. Bump it whenever a weight
// or threshold below changes.
const Algorithm = "composite-risk/v1"

// DefaultMaxFiles is the top-N size when Options.MaxFiles is unset.
const DefaultMaxFiles = 10

// Scoring weights and thresholds.
const (
	weightBlocker  = 100
	weightCritical = 75
	weightWarning  = 25

	highFanIn     = 20
	moderateFanIn = 5

	largeChange       = 200
	mediumChange      = 100
	largeChangeBonus  = 50
	mediumChangeBonus = 25
	perLineWeight     = 0.5

	newFileBonus      = 50
	criticalPathBonus = 50
	testFileDamping   = 50
)

// ImportAnalyzer computes import fan-in (number of importing files) for every
// file under root. Keys are slash-separated paths relative to root.
type ImportAnalyzer interface {
	FanIn(ctx context.Context, root string) (map[string]int, error)
}

// SeverityExtractor counts the diagnostics in results that concern path.
type SeverityExtractor interface {
	Extract(path string, results []model.ToolResult) model.SeverityCounts
}

// ErrNoImportAnalyzer is returned when a Selector has no import analyzer.
var ErrNoImportAnalyzer = errors.New("no import analyzer configured")

// FanInError wraps a failure of the import analyzer.
type FanInError struct {
	Root string
	Err  error
}

func (e *FanInError) Error() string {
	return fmt.Sprintf("computing import fan-in for %s: %v", e.Root, e.Err)
}

func (e *FanInError) Unwrap() error { return e.Err }

// Options tune a single selection.
type Options struct {
	MaxFiles      int      // top-N size; <= 0 means DefaultMaxFiles
	CriticalPaths []string // globs earning the configured critical path bonus
}

// Selector scores changed files. It holds no per-call state and is safe for
// concurrent use.
type Selector struct {
	root     string
	imports  ImportAnalyzer
	severity SeverityExtractor
	logger   *slog.Logger
}

// New creates a Selector for the project at root.
func New(root string, imports ImportAnalyzer, severity SeverityExtractor, logger *slog.Logger) *Selector {
	return &Selector{
		root:     root,
		imports:  imports,
		severity: severity,
		logger:   slogutil.OrDiscard(logger),
	}
}

// SelectCriticalFiles scores every file, ranks them and returns the report.
// The only error path is a missing or failing import analyzer: without fan-in
// data the ranking would be wrong rather than degraded.
func (s *Selector) SelectCriticalFiles(ctx context.Context, files []model.ChangedFile, diagnostics []model.ToolResult, opts Options) (*model.CriticalFilesReport, error) {
	if s.imports == nil {
		return nil, ErrNoImportAnalyzer
	}
	fanIn, err := s.imports.FanIn(ctx, s.root)
	if err != nil {
		return nil, &FanInError{Root: s.root, Err: err}
	}

	maxFiles := opts.MaxFiles
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	patterns := s.validPatterns(opts.CriticalPaths)
	inferred := InferCriticalPaths(fanIn)
	inferredSet := make(map[string]bool, len(inferred))
	for _, p := range inferred {
		inferredSet[p] = true
	}

	seen := make(map[string]bool, len(files))
	scores := make([]model.FileScore, 0, len(files))
	for _, f := range files {
		p := normalize(f.Path)
		if seen[p] {
			s.logger.Warn("dropping duplicate changed file", "path", f.Path)
			continue
		}
		seen[p] = true

		var counts model.SeverityCounts
		if s.severity != nil {
			counts = s.severity.Extract(p, diagnostics)
		}
		scores = append(scores, scoreFile(f, p, counts, fanIn[p], patterns, inferredSet[p]))
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	top := min(maxFiles, len(scores))
	report := &model.CriticalFilesReport{
		TopFiles:                scores[:top:top],
		AllFiles:                scores,
		InferredCriticalPaths:   inferred,
		ConfiguredCriticalPaths: patterns,
		Algorithm:               Algorithm,
	}

	s.logger.Debug("selected critical files",
		"changed", len(scores),
		"top", top,
		"inferred_critical", len(inferred),
	)
	return report, nil
}

// InferCriticalPaths returns files whose fan-in exceeds the high-impact
// threshold, ordered by fan-in descending then path.
func InferCriticalPaths(fanIn map[string]int) []string {
	paths := []string{}
	for p, n := range fanIn {
		if n > highFanIn {
			paths = append(paths, p)
		}
	}
	sort.Slice(paths, func(i, j int) bool {
		if fanIn[paths[i]] != fanIn[paths[j]] {
			return fanIn[paths[i]] > fanIn[paths[j]]
		}
		return paths[i] < paths[j]
	})
	return paths
}

func (s *Selector) validPatterns(patterns []string) []string {
	valid := []string{}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			s.logger.Warn("skipping invalid critical path pattern", "pattern", p)
			continue
		}
		valid = append(valid, p)
	}
	return valid
}

func normalize(p string) string {
	return strings.TrimPrefix(filepath.ToSlash(p), "./")
}
