// Package imports computes import fan-in over a project tree.
package imports

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/sync/errgroup"

	"github.com/sprite-ai/triage/internal/slogutil"
)

// maxFileSize skips generated bundles and other oversized sources.
const maxFileSize = 1 << 20

// Analyzer scans a project and counts, for every source file, how many other
// files import it.
type Analyzer struct {
	logger      *slog.Logger
	concurrency int
}

// New creates an Analyzer. A nil logger discards.
func New(logger *slog.Logger) *Analyzer {
	return &Analyzer{
		logger:      slogutil.OrDiscard(logger),
		concurrency: runtime.GOMAXPROCS(0),
	}
}

// project is the read-only view shared by the resolvers.
type project struct {
	root       string
	files      map[string]bool     // slash paths relative to root
	goPackages map[string][]string // package dir -> non-test .go files
	goModule   string
}

// FanIn walks root and returns the number of distinct importing files for
// every file that is imported at least once. Keys are slash-separated paths
// relative to root.
func (a *Analyzer) FanIn(ctx context.Context, root string) (map[string]int, error) {
	paths, err := a.collect(ctx, root)
	if err != nil {
		return nil, err
	}

	proj := &project{
		root:       root,
		files:      make(map[string]bool, len(paths)),
		goPackages: make(map[string][]string),
		goModule:   goModulePath(root),
	}
	for _, p := range paths {
		proj.files[p] = true
		if strings.HasSuffix(p, ".go") && !strings.HasSuffix(p, "_test.go") {
			dir := path.Dir(p)
			proj.goPackages[dir] = append(proj.goPackages[dir], p)
		}
	}

	targets := make([][]string, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(p)))
			if err != nil {
				a.logger.Debug("skipping unreadable source file", "path", p, "error", err)
				return nil
			}
			targets[i] = proj.resolve(p, data, a.logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scanning imports: %w", err)
	}

	importers := make(map[string]map[string]bool)
	for i, p := range paths {
		for _, target := range targets[i] {
			if target == p {
				continue
			}
			if importers[target] == nil {
				importers[target] = make(map[string]bool)
			}
			importers[target][p] = true
		}
	}

	fanIn := make(map[string]int, len(importers))
	for target, from := range importers {
		fanIn[target] = len(from)
	}
	a.logger.Debug("computed import fan-in", "root", root, "files", len(paths), "imported", len(fanIn))
	return fanIn, nil
}

// collect lists source files under root in lexical order.
func (a *Analyzer) collect(ctx context.Context, root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if p != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if languageOf(p) == langNone {
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > maxFileSize {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func skipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	switch name {
	case "vendor", "node_modules", "dist", "build", "__pycache__":
		return true
	}
	return false
}

func goModulePath(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return ""
	}
	return modfile.ModulePath(data)
}
