package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/triage/internal/model"
)

var checkCmd = &cobra.Command{
	Use:   "check [commit-range | -]",
	Short: "Recommend a tier and select critical files (non-interactive)",
	Long: `Run tier classification and critical file selection on the change and
print both as one report. Useful for CI and pre-merge hooks.

Exit codes:
  0  tier below --fail-on (or --fail-on unset)
  1  error
  2  tier at or above --fail-on`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	addSelectFlags(checkCmd)
	checkCmd.Flags().String("fail-on", "", "exit with status 2 when the tier is at or above this one (quick, standard, full)")
}

// manifest is the combined check report.
type manifest struct {
	Tier          model.TierRecommendation   `json:"tier"`
	CriticalFiles *model.CriticalFilesReport `json:"critical_files"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)

	var failOn *model.Tier
	if s := a.settings.FailOn; s != "" {
		t, err := model.ParseTier(s)
		if err != nil {
			return fmt.Errorf("invalid --fail-on: %w", err)
		}
		failOn = &t
	}

	ch, err := loadChange(cmd, a, args, 0)
	if err != nil {
		return err
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

	w := cmd.OutOrStdout()
	switch a.settings.Format {
	case formatJSON:
		if err := writeJSON(w, manifest{Tier: rec, CriticalFiles: report}); err != nil {
			return err
		}
	case formatMarkdown:
		writeTierMarkdown(w, rec)
		fmt.Fprintln(w)
		writeSelectionMarkdown(w, report)
	default:
		writeTierText(w, rec)
		fmt.Fprintln(w)
		writeSelectionText(w, report)
	}

	if failOn != nil && rec.Tier >= *failOn {
		return &exitError{
			code: 2,
			msg:  fmt.Sprintf("review tier %s is at or above %s", rec.Tier, *failOn),
		}
	}
	return nil
}
