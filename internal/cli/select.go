package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/triage/internal/analysis"
	"github.com/sprite-ai/triage/internal/config"
)

var selectCmd = &cobra.Command{
	Use:   "select [commit-range | -]",
	Short: "Rank changed files by risk and pick the ones to review deeply",
	Long: `Score every changed file from diagnostics severity, import fan-in,
change size, novelty and critical-path membership, then list the
highest-risk files.

Diagnostics are read from a JSON array of tool results:

  [{"type": "lint", "tool": "eslint", "success": false, "stdout": "..."}]

With --diff-checks the added lines are also scanned for new dependencies,
security-sensitive code and common anti-patterns; each finding counts as a
warning or info diagnostic for its file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSelect,
}

func init() {
	addSelectFlags(selectCmd)
}

func addSelectFlags(cmd *cobra.Command) {
	cmd.Flags().String("diagnostics", "", "JSON file with quality tool results")
	cmd.Flags().IntP("max-files", "n", config.DefaultMaxFiles, "number of files to select")
	cmd.Flags().StringSlice("critical-path", nil, "glob for files that always earn the critical path bonus (repeatable)")
	cmd.Flags().Bool("diff-checks", false, "add findings from the built-in diff checks to the diagnostics")
	cmd.Flags().StringSlice("skip-check", nil, "built-in diff check to skip: "+strings.Join(analysis.Names(), ", ")+" (repeatable)")
}

func runSelect(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	ch, err := loadChange(cmd, a, args, 0)
	if err != nil {
		return err
	}

	diagnostics, err := collectDiagnostics(cmd, a, ch)
	if err != nil {
		return err
	}

	report, err := a.selector(ch.root).SelectCriticalFiles(cmd.Context(), ch.files, diagnostics, a.selectOptions(a.classifier()))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch a.settings.Format {
	case formatJSON:
		return writeJSON(w, report)
	case formatMarkdown:
		writeSelectionMarkdown(w, report)
	default:
		writeSelectionText(w, report)
	}
	return nil
}
