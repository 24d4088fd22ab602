package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/triage/internal/config"
	"github.com/sprite-ai/triage/internal/model"
)

const (
	formatText     = "text"
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

func checkFormat(f string) error {
	switch f {
	case formatText, formatJSON, formatMarkdown:
		return nil
	}
	return fmt.Errorf("unsupported format %q (want text, json or markdown)", f)
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C")).Bold(true)

	tierStyles = map[model.Tier]lipgloss.Style{
		model.TierSkip:     lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B")).Bold(true),
		model.TierQuick:    lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD")).Bold(true),
		model.TierStandard: lipgloss.NewStyle().Foreground(lipgloss.Color("#F1FA8C")).Bold(true),
		model.TierFull:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true),
	}
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- Tier ---

func writeTierText(w io.Writer, rec model.TierRecommendation) {
	m := rec.Metrics
	label := strings.ToUpper(rec.Tier.String())
	fmt.Fprintf(w, "%s %s %s\n", headingStyle.Render("Review tier:"), tierStyles[rec.Tier].Render(label),
		dimStyle.Render("(rule: "+rec.Rule+")"))
	fmt.Fprintf(w, "%s\n", rec.Reason)
	fmt.Fprintf(w, "%d file(s), %d line(s) changed%s\n", m.TotalFiles, m.TotalLines, breakdownSuffix(m.FileTypeBreakdown))
	if m.HasCriticalPaths {
		fmt.Fprintf(w, "Critical paths: %s\n", strings.Join(m.CriticalFiles, ", "))
	}
}

func writeTierMarkdown(w io.Writer, rec model.TierRecommendation) {
	m := rec.Metrics
	fmt.Fprintf(w, "## Review Tier: %s\n\n", rec.Tier)
	fmt.Fprintf(w, "%s\n\n", rec.Reason)
	fmt.Fprintln(w, "| Files | Lines | Implementation | Test | Documentation | Config | Critical |")
	fmt.Fprintln(w, "|------:|------:|---------------:|-----:|--------------:|-------:|:--------:|")
	critical := "no"
	if m.HasCriticalPaths {
		critical = "yes"
	}
	b := m.FileTypeBreakdown
	fmt.Fprintf(w, "| %d | %d | %d | %d | %d | %d | %s |\n", m.TotalFiles, m.TotalLines,
		b.Get(model.FileImplementation), b.Get(model.FileTest),
		b.Get(model.FileDocumentation), b.Get(model.FileConfig), critical)
	if len(m.CriticalFiles) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "**Critical files:**")
		for _, f := range m.CriticalFiles {
			fmt.Fprintf(w, "- `%s`\n", f)
		}
	}
}

func breakdownSuffix(b model.TypeBreakdown) string {
	present := b.Present()
	if len(present) == 0 {
		return ""
	}
	parts := make([]string, 0, len(present))
	for _, t := range present {
		parts = append(parts, fmt.Sprintf("%s %d", t, b.Get(t)))
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// --- Selection ---

func writeSelectionText(w io.Writer, report *model.CriticalFilesReport) {
	fmt.Fprintf(w, "%s %s\n\n",
		headingStyle.Render(fmt.Sprintf("Top %d of %d file(s) for deep review", len(report.TopFiles), len(report.AllFiles))),
		dimStyle.Render("("+report.Algorithm+")"))

	width := 0
	for _, f := range report.TopFiles {
		width = max(width, len(f.Path))
	}
	for i, f := range report.TopFiles {
		fmt.Fprintf(w, "%3d. %-*s  %s\n", i+1, width, f.Path, scoreStyle.Render(fmt.Sprintf("score %d", f.Score)))
		if len(f.RiskFactors) > 0 {
			fmt.Fprintf(w, "     %s\n", dimStyle.Render(strings.Join(f.RiskFactors, ", ")))
		}
	}

	if rest := len(report.AllFiles) - len(report.TopFiles); rest > 0 {
		fmt.Fprintf(w, "\n%s\n", dimStyle.Render(fmt.Sprintf("%d lower-risk file(s) not selected", rest)))
	}

	if missing := unconfiguredInferred(report); len(missing) > 0 {
		fmt.Fprintf(w, "\n%s\n", headingStyle.Render("Inferred critical paths not yet configured:"))
		for _, p := range missing {
			fmt.Fprintf(w, "  %s\n", p)
		}
		fmt.Fprintf(w, "Consider adding them to critical_paths in %s/review-tiers.yaml.\n", config.Dir)
	}
}

func writeSelectionMarkdown(w io.Writer, report *model.CriticalFilesReport) {
	fmt.Fprintf(w, "## Critical Files\n\n")
	fmt.Fprintf(w, "Top **%d** of **%d** file(s), algorithm `%s`.\n\n", len(report.TopFiles), len(report.AllFiles), report.Algorithm)
	if len(report.TopFiles) == 0 {
		fmt.Fprintln(w, "No files to review.")
		return
	}
	fmt.Fprintln(w, "| # | File | Score | Risk factors |")
	fmt.Fprintln(w, "|--:|------|------:|--------------|")
	for i, f := range report.TopFiles {
		fmt.Fprintf(w, "| %d | `%s` | %d | %s |\n", i+1, f.Path, f.Score, strings.Join(f.RiskFactors, "; "))
	}

	if missing := unconfiguredInferred(report); len(missing) > 0 {
		fmt.Fprintf(w, "\n**Inferred critical paths not yet configured:**\n\n")
		for _, p := range missing {
			fmt.Fprintf(w, "- `%s`\n", p)
		}
	}
}

// unconfiguredInferred returns inferred critical paths that no configured
// pattern covers yet.
func unconfiguredInferred(report *model.CriticalFilesReport) []string {
	var out []string
	for _, p := range report.InferredCriticalPaths {
		covered := false
		for _, pattern := range report.ConfiguredCriticalPaths {
			if ok, _ := doublestar.Match(pattern, p); ok {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, p)
		}
	}
	return out
}
