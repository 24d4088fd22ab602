// Package tier decides how much review ceremony a change deserves.
package tier

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sprite-ai/triage/internal/config"
	"github.com/sprite-ai/triage/internal/model"
	"github.com/sprite-ai/triage/internal/profile"
	"github.com/sprite-ai/triage/internal/slogutil"
)

// Deciding rule identifiers, in evaluation order.
const (
	RuleCriticalPath  = "critical_path"
	RuleSize          = "size"
	RuleDocumentation = "documentation"
	RuleQuick         = "quick"
	RuleStandard      = "standard"
	RuleFallback      = "fallback"
)

// maxListedCritical caps the critical files named in a reason.
const maxListedCritical = 5

// Classifier assigns a review tier to a change set. It is immutable after
// construction and safe for concurrent use.
type Classifier struct {
	cfg           config.ReviewTierConfig
	criticalPaths []string
	rules         []profile.Rule
	logger        *slog.Logger
}

type options struct {
	configPath  string
	profilesDir string
	cfg         *config.ReviewTierConfig
	rules       []profile.Rule
	rulesSet    bool
	logger      *slog.Logger
}

// Option customizes New.
type Option func(*options)

// WithConfigPath overrides the tier config file location.
func WithConfigPath(p string) Option {
	return func(o *options) { o.configPath = p }
}

// WithProfilesDir overrides the review profile directory.
func WithProfilesDir(d string) Option {
	return func(o *options) { o.profilesDir = d }
}

// WithConfig supplies the config directly; no file is read.
func WithConfig(cfg config.ReviewTierConfig) Option {
	return func(o *options) { o.cfg = &cfg }
}

// WithProfileRules supplies file-type rules directly; no profiles are read.
func WithProfileRules(rules []profile.Rule) Option {
	return func(o *options) {
		o.rules = rules
		o.rulesSet = true
	}
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New builds a Classifier for the repository at basePath. The tier config
// and profiles are read once here; a missing or broken config falls back to
// config.Default(), so construction never fails.
func New(basePath string, opts ...Option) *Classifier {
	o := options{
		configPath:  config.TierConfigPath(basePath),
		profilesDir: config.ProfilesDir(basePath),
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := slogutil.OrDiscard(o.logger)

	var cfg config.ReviewTierConfig
	if o.cfg != nil {
		cfg = *o.cfg
	} else {
		cfg, _ = config.Load(o.configPath, logger)
	}

	rules := o.rules
	if !o.rulesSet {
		rules = profile.Load(o.profilesDir, logger)
	}

	c := &Classifier{
		cfg:    cfg,
		rules:  rules,
		logger: logger,
	}
	for _, p := range cfg.CriticalPaths {
		if !doublestar.ValidatePattern(p) {
			logger.Warn("skipping invalid critical path pattern", "pattern", p)
			continue
		}
		c.criticalPaths = append(c.criticalPaths, p)
	}
	return c
}

// Config returns the effective configuration.
func (c *Classifier) Config() config.ReviewTierConfig {
	return c.cfg
}

// IsCriticalPath reports whether path matches a configured critical path.
func (c *Classifier) IsCriticalPath(p string) bool {
	p = normalize(p)
	for _, pattern := range c.criticalPaths {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}

// Metrics computes the aggregate figures for files.
func (c *Classifier) Metrics(files []model.ChangedFile) model.ChangeMetrics {
	m := model.ChangeMetrics{TotalFiles: len(files)}
	for _, f := range files {
		m.FileTypeBreakdown[c.AnalyzeFileType(f.Path)]++
		m.TotalLines += f.LinesChanged
		if c.IsCriticalPath(f.Path) {
			m.HasCriticalPaths = true
			m.CriticalFiles = append(m.CriticalFiles, f.Path)
		}
	}
	return m
}

// ClassifyChanges picks the review tier for files. Rules are evaluated in
// priority order and the first match wins.
func (c *Classifier) ClassifyChanges(files []model.ChangedFile) model.TierRecommendation {
	m := c.Metrics(files)
	th := c.cfg.TierThresholds

	rec := model.TierRecommendation{Metrics: m}
	switch {
	case m.HasCriticalPaths:
		rec.Tier, rec.Rule = model.TierFull, RuleCriticalPath
		rec.Reason = "Critical paths modified: " + listPaths(m.CriticalFiles)

	case m.TotalFiles >= th.Full.MinFiles || m.TotalLines >= th.Full.MinLines:
		rec.Tier, rec.Rule = model.TierFull, RuleSize
		rec.Reason = sizeReason(m, th.Full)

	case m.FileTypeBreakdown[model.FileDocumentation] == m.TotalFiles && !c.anyCritical(files):
		rec.Tier, rec.Rule = model.TierSkip, RuleDocumentation
		rec.Reason = fmt.Sprintf("Only documentation changed (%s, %s)", plural(m.TotalFiles, "file"), plural(m.TotalLines, "line"))

	case typesAllowed(m.FileTypeBreakdown, th.Quick.AllowedTypes) &&
		m.TotalFiles <= th.Quick.MaxFiles && m.TotalLines <= th.Quick.MaxLines:
		rec.Tier, rec.Rule = model.TierQuick, RuleQuick
		rec.Reason = fmt.Sprintf("Small %s change: %s (max %d), %s (max %d)",
			typeList(m.FileTypeBreakdown.Present()),
			plural(m.TotalFiles, "file"), th.Quick.MaxFiles,
			plural(m.TotalLines, "line"), th.Quick.MaxLines)

	case m.TotalFiles <= th.Standard.MaxFiles && m.TotalLines <= th.Standard.MaxLines:
		rec.Tier, rec.Rule = model.TierStandard, RuleStandard
		rec.Reason = fmt.Sprintf("Moderate change: %s (max %d), %s (max %d)",
			plural(m.TotalFiles, "file"), th.Standard.MaxFiles,
			plural(m.TotalLines, "line"), th.Standard.MaxLines)

	default:
		rec.Tier, rec.Rule = model.TierFull, RuleFallback
		rec.Reason = fmt.Sprintf("Exceeds standard thresholds: %s, %s",
			plural(m.TotalFiles, "file"), plural(m.TotalLines, "line"))
	}

	c.logger.Debug("classified change",
		"tier", rec.Tier.String(),
		"rule", rec.Rule,
		"files", m.TotalFiles,
		"lines", m.TotalLines,
	)
	return rec
}

// anyCritical re-checks every file against the critical paths. It agrees
// with ChangeMetrics.HasCriticalPaths; the documentation rule keeps its own
// check so a doc-only change to a critical file can never be skipped.
func (c *Classifier) anyCritical(files []model.ChangedFile) bool {
	for _, f := range files {
		if c.IsCriticalPath(f.Path) {
			return true
		}
	}
	return false
}

func typesAllowed(b model.TypeBreakdown, allowed []model.FileType) bool {
	for _, t := range b.Present() {
		ok := false
		for _, a := range allowed {
			if a == t {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func sizeReason(m model.ChangeMetrics, full config.FullThreshold) string {
	var parts []string
	if m.TotalFiles >= full.MinFiles {
		parts = append(parts, fmt.Sprintf("%s (file threshold %d)", plural(m.TotalFiles, "file"), full.MinFiles))
	}
	if m.TotalLines >= full.MinLines {
		parts = append(parts, fmt.Sprintf("%s (line threshold %d)", plural(m.TotalLines, "line"), full.MinLines))
	}
	return "Large change: " + strings.Join(parts, " and ")
}

func listPaths(paths []string) string {
	if len(paths) <= maxListedCritical {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(paths[:maxListedCritical], ", "), len(paths)-maxListedCritical)
}

func typeList(types []model.FileType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, "/")
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func normalize(p string) string {
	return strings.TrimPrefix(filepath.ToSlash(p), "./")
}
