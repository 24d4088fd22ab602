package cli

import (
	"github.com/spf13/cobra"
)

var tierCmd = &cobra.Command{
	Use:   "tier [commit-range | -]",
	Short: "Recommend a review tier for a change",
	Long: `Classify the change into one of four review tiers:

  skip      documentation only
  quick     a few small test or config edits
  standard  moderate change
  full      large change or any critical path touched

By default the last commit is classified. Pass a commit range such as
main...HEAD, or "-" to read a unified diff from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTier,
}

func runTier(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	ch, err := loadChange(cmd, a, args, 0)
	if err != nil {
		return err
	}

	rec := a.classifier().ClassifyChanges(ch.files)

	w := cmd.OutOrStdout()
	switch a.settings.Format {
	case formatJSON:
		return writeJSON(w, rec)
	case formatMarkdown:
		writeTierMarkdown(w, rec)
	default:
		writeTierText(w, rec)
	}
	return nil
}
