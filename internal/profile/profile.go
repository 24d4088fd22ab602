package profile

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sprite-ai/triage/internal/model"
	"github.com/sprite-ai/triage/internal/slogutil"
)

// Rule maps one glob pattern from a profile to a file type.
type Rule struct {
	Pattern string
	Type    model.FileType
	Profile string // profile path relative to the profile directory
}

// Match reports whether path matches the rule's pattern.
func (r Rule) Match(path string) bool {
	ok, err := doublestar.Match(r.Pattern, path)
	return err == nil && ok
}

// categoryTypes maps the top-level profile directory to the file type its
// patterns describe.
var categoryTypes = map[string]model.FileType{
	"testing":    model.FileTest,
	"languages":  model.FileImplementation,
	"frameworks": model.FileImplementation,
}

// Load walks dir for *.md profiles and returns their rules. Test rules come
// before implementation rules; within a class, profiles are ordered by path
// and patterns keep their declaration order. A missing directory, unreadable
// profile or invalid pattern is logged and skipped.
func Load(dir string, logger *slog.Logger) []Rule {
	logger = slogutil.OrDiscard(logger)

	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("profile directory not found, using heuristics only", "dir", dir)
		} else {
			logger.Warn("profile directory unavailable", "dir", dir, "error", err)
		}
		return nil
	}

	var rules []Rule
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skipping unreadable profile path", "path", path, "error", err)
			if d != nil && d.IsDir() && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		category, _, nested := strings.Cut(rel, "/")
		ft, known := categoryTypes[category]
		if !nested || !known {
			logger.Debug("profile outside a known category", "profile", rel)
			return nil
		}

		rules = append(rules, loadProfile(path, rel, ft, logger)...)
		return nil
	})
	if err != nil {
		logger.Warn("walking profile directory failed", "dir", dir, "error", err)
	}

	sort.SliceStable(rules, func(i, j int) bool {
		return rank(rules[i].Type) < rank(rules[j].Type)
	})
	logger.Debug("loaded profile rules", "dir", dir, "rules", len(rules))
	return rules
}

func loadProfile(path, rel string, ft model.FileType, logger *slog.Logger) []Rule {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("skipping unreadable profile", "profile", rel, "error", err)
		return nil
	}

	fm, err := ParseFrontmatter(data)
	if err != nil {
		logger.Warn("skipping profile with invalid frontmatter", "profile", rel, "error", err)
		return nil
	}

	var rules []Rule
	for _, pattern := range fm.AppliesTo {
		if !doublestar.ValidatePattern(pattern) {
			logger.Warn("skipping invalid glob", "profile", rel, "pattern", pattern)
			continue
		}
		rules = append(rules, Rule{Pattern: pattern, Type: ft, Profile: rel})
	}
	return rules
}

// rank orders test rules ahead of implementation rules, since test globs
// (e.g. **/*.test.ts) are narrower than language globs (**/*.ts).
func rank(t model.FileType) int {
	if t == model.FileTest {
		return 0
	}
	return 1
}
