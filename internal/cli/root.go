// Package cli wires the triage commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/triage/internal/config"
	"github.com/sprite-ai/triage/internal/imports"
	"github.com/sprite-ai/triage/internal/selector"
	"github.com/sprite-ai/triage/internal/severity"
	"github.com/sprite-ai/triage/internal/slogutil"
	"github.com/sprite-ai/triage/internal/tier"
)

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Decide how much review a change needs and where to look first",
	Long: `triage classifies a change set into a review tier (skip, quick, standard,
full) and ranks the changed files by composite risk so that deep review
can focus on the few files that matter most.

Settings are read from .triage/settings.yaml, then TRIAGE_* environment
variables, then flags.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("dir", "d", ".", "project directory")
	pf.String("config", "", "tier config file (default <dir>/.triage/review-tiers.yaml)")
	pf.String("profiles", "", "review profile directory (default <dir>/.triage/profiles)")
	pf.StringP("format", "f", "text", "output format: text, json, markdown")
	pf.CountP("verbose", "v", "increase log verbosity (repeatable)")
	pf.BoolP("quiet", "q", false, "suppress all logging")

	rootCmd.AddCommand(tierCmd, selectCmd, checkCmd, browseCmd, serveCmd, versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// flagKeys maps flag names to settings keys.
var flagKeys = map[string]string{
	"format":        "format",
	"config":        "config",
	"profiles":      "profiles",
	"max-files":     "max_files",
	"critical-path": "critical_paths",
	"fail-on":       "fail_on",
	"diff-checks":   "diff_checks",
	"skip-check":    "skip_checks",
}

// app is the per-invocation state built from flags and settings.
type app struct {
	base     string
	settings config.Settings
	logger   *slog.Logger
}

type appKey struct{}

func setup(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	dir, _ := flags.GetString("dir")
	base, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving project directory: %w", err)
	}

	verbosity, _ := flags.GetCount("verbose")
	quiet, _ := flags.GetBool("quiet")
	logger := slogutil.NewLogger(cmd.ErrOrStderr(), slogutil.LevelFromVerbosity(verbosity, quiet))

	v := config.NewViper(base)
	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
	}
	settings, err := config.LoadSettings(v)
	if err != nil {
		return err
	}
	if err := checkFormat(settings.Format); err != nil {
		return err
	}

	logger.Debug("loaded settings", "dir", base, "settings", v.ConfigFileUsed(), "format", settings.Format)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appKey{}, &app{
		base:     base,
		settings: settings,
		logger:   logger,
	}))
	return nil
}

func appFrom(cmd *cobra.Command) *app {
	if ctx := cmd.Context(); ctx != nil {
		if a, ok := ctx.Value(appKey{}).(*app); ok {
			return a
		}
	}
	return &app{
		base:     ".",
		settings: config.Settings{Format: formatText, MaxFiles: config.DefaultMaxFiles},
		logger:   slogutil.NewDiscardLogger(),
	}
}

func (a *app) classifier() *tier.Classifier {
	opts := []tier.Option{tier.WithLogger(a.logger)}
	if p := a.settings.ConfigPath; p != "" {
		opts = append(opts, tier.WithConfigPath(a.resolve(p)))
	}
	if d := a.settings.ProfilesDir; d != "" {
		opts = append(opts, tier.WithProfilesDir(a.resolve(d)))
	}
	return tier.New(a.base, opts...)
}

func (a *app) selector(root string) *selector.Selector {
	return selector.New(root, imports.New(a.logger), severity.New(), a.logger)
}

// selectOptions uses the selection globs from settings, or the tier config's
// critical paths when none are set.
func (a *app) selectOptions(c *tier.Classifier) selector.Options {
	paths := a.settings.CriticalPaths
	if len(paths) == 0 {
		paths = c.Config().CriticalPaths
	}
	return selector.Options{MaxFiles: a.settings.MaxFiles, CriticalPaths: paths}
}

func (a *app) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.base, p)
}

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// ExitCode returns the process exit code for an error returned by Execute.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return 1
}
