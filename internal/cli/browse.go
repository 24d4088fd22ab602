package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/triage/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse [commit-range | -]",
	Short: "Browse ranked files and their diffs interactively",
	Long: `Open a terminal browser over the critical files report. Files are listed
by risk score; the selected ones are marked. The right pane shows the score
breakdown followed by the file's diff.

Examples:
  triage browse                  # last commit
  triage browse main...HEAD      # branch vs main
  git diff | triage browse -     # pipe any diff`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func init() {
	addSelectFlags(browseCmd)
	browseCmd.Flags().IntP("context", "C", defaultContextLines, "lines of context around changes")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	contextLines, _ := cmd.Flags().GetInt("context")

	ch, err := loadChange(cmd, a, args, contextLines)
	if err != nil {
		return err
	}
	if len(ch.files) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No changes to browse.")
		return nil
	}

	diagnostics, err := collectDiagnostics(cmd, a, ch)
	if err != nil {
		return err
	}

	classifier := a.classifier()
	rec := classifier.ClassifyChanges(ch.files)
	report, err := a.selector(ch.root).SelectCriticalFiles(cmd.Context(), ch.files, diagnostics, a.selectOptions(classifier))
	if err != nil {
		return err
	}

	return tui.Run(report, &rec, ch.diff)
}
