package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/triage/internal/analysis"
	"github.com/sprite-ai/triage/internal/diff"
	"github.com/sprite-ai/triage/internal/model"
)

const defaultContextLines = 3

// change is a parsed change set and the project root it belongs to.
type change struct {
	root  string
	diff  *diff.DiffSet
	files []model.ChangedFile
}

// loadChange reads the diff named by args: "-" reads stdin, a single
// argument is a commit range, and no argument means HEAD against its parent.
func loadChange(cmd *cobra.Command, a *app, args []string, contextLines int) (*change, error) {
	raw, root, err := getDiff(cmd, a, args, contextLines)
	if err != nil {
		return nil, err
	}

	ds, err := diff.Parse(raw)
	if err != nil {
		return nil, err
	}
	files := ds.ChangedFiles()
	a.logger.Info("loaded change set", "root", root, "files", len(files))
	return &change{root: root, diff: ds, files: files}, nil
}

func getDiff(cmd *cobra.Command, a *app, args []string, contextLines int) (raw, root string, err error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), a.base, nil
	}

	ctx := cmd.Context()
	root, err = diff.RepoRoot(ctx, a.base)
	if err != nil {
		return "", "", fmt.Errorf("not in a git repository (or git not installed): %w", err)
	}

	if len(args) == 1 {
		raw, err = diff.GitDiffRange(ctx, root, args[0], contextLines)
	} else {
		raw, err = diff.GitDiffHead(ctx, root, contextLines)
	}
	if err != nil {
		return "", "", err
	}
	return raw, root, nil
}

// collectDiagnostics loads the --diagnostics file and, when diff checks are
// enabled, appends the built-in checks' findings as one more tool result.
func collectDiagnostics(cmd *cobra.Command, a *app, ch *change) ([]model.ToolResult, error) {
	path, _ := cmd.Flags().GetString("diagnostics")
	results, err := loadDiagnostics(path)
	if err != nil {
		return nil, err
	}
	if !a.settings.DiffChecks {
		return results, nil
	}
	for _, name := range a.settings.SkipChecks {
		if _, ok := analysis.Checks[name]; !ok {
			return nil, fmt.Errorf("unknown diff check %q (want %s)", name, strings.Join(analysis.Names(), ", "))
		}
	}
	findings := analysis.Run(ch.diff, a.settings.SkipChecks)
	a.logger.Debug("ran diff checks", "findings", len(findings), "skipped", a.settings.SkipChecks)
	return append(results, analysis.ToolResult(findings)), nil
}

// loadDiagnostics reads a JSON array of tool results. An empty path means
// no diagnostics.
func loadDiagnostics(path string) ([]model.ToolResult, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading diagnostics: %w", err)
	}
	var results []model.ToolResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parsing diagnostics %s: %w", path, err)
	}
	return results, nil
}
