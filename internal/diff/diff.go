// Package diff handles parsing git diffs into structured representations.
package diff

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/sprite-ai/triage/internal/model"
)

// File represents a single file in a diff with its parsed fragments.
type File struct {
	OldName      string
	NewName      string
	IsNew        bool
	IsDeleted    bool
	IsRenamed    bool
	IsBinary     bool
	Fragments    []*gitdiff.TextFragment
	AddedLines   int
	DeletedLines int
}

// Path returns the path the file has after the change. Deleted files keep
// their old path.
func (f *File) Path() string {
	if f.IsDeleted || f.NewName == "" {
		return f.OldName
	}
	return f.NewName
}

// Name returns the display name for the file.
func (f *File) Name() string {
	if f.IsRenamed && f.OldName != f.NewName {
		return fmt.Sprintf("%s → %s", f.OldName, f.NewName)
	}
	return f.Path()
}

// DiffSet holds the parsed diff for all files.
type DiffSet struct {
	Files []*File
	Raw   string // the raw unified diff text
}

// Stats returns aggregate statistics.
func (ds *DiffSet) Stats() (files, added, deleted int) {
	files = len(ds.Files)
	for _, f := range ds.Files {
		added += f.AddedLines
		deleted += f.DeletedLines
	}
	return
}

// File returns the entry whose path is p, or nil.
func (ds *DiffSet) File(p string) *File {
	for _, f := range ds.Files {
		if f.Path() == p {
			return f
		}
	}
	return nil
}

// ChangedFiles converts the diff into the change set consumed by the
// classifier and the selector, in diff order.
func (ds *DiffSet) ChangedFiles() []model.ChangedFile {
	files := make([]model.ChangedFile, 0, len(ds.Files))
	for _, f := range ds.Files {
		files = append(files, model.ChangedFile{
			Path:         f.Path(),
			LinesAdded:   f.AddedLines,
			LinesDeleted: f.DeletedLines,
			LinesChanged: f.AddedLines + f.DeletedLines,
		})
	}
	return files
}

// Parse reads a unified diff string and returns a DiffSet.
func Parse(raw string) (*DiffSet, error) {
	parsed, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	ds := &DiffSet{Raw: raw}
	for _, f := range parsed {
		df := &File{
			OldName:   f.OldName,
			NewName:   f.NewName,
			IsNew:     f.IsNew,
			IsDeleted: f.IsDelete,
			IsRenamed: f.IsRename,
			IsBinary:  f.IsBinary,
		}

		for _, frag := range f.TextFragments {
			df.Fragments = append(df.Fragments, frag)
			for _, line := range frag.Lines {
				switch line.Op {
				case gitdiff.OpAdd:
					df.AddedLines++
				case gitdiff.OpDelete:
					df.DeletedLines++
				}
			}
		}

		ds.Files = append(ds.Files, df)
	}

	return ds, nil
}

// GitDiff runs `git diff` with the given arguments and returns the raw output.
func GitDiff(ctx context.Context, repoDir string, args ...string) (string, error) {
	out, err := git(ctx, repoDir, append([]string{"diff", "--no-color", "--no-ext-diff"}, args...)...)
	if err != nil {
		return "", fmt.Errorf("git diff: %w", err)
	}
	return out, nil
}

// GitDiffHead returns the diff of HEAD against its parent.
func GitDiffHead(ctx context.Context, repoDir string, contextLines int) (string, error) {
	return GitDiff(ctx, repoDir, fmt.Sprintf("-U%d", contextLines), "HEAD~1", "HEAD")
}

// GitDiffRange returns the diff for a commit range like "main...HEAD".
func GitDiffRange(ctx context.Context, repoDir string, commitRange string, contextLines int) (string, error) {
	return GitDiff(ctx, repoDir, fmt.Sprintf("-U%d", contextLines), commitRange)
}

// RepoRoot returns the top-level directory of the work tree containing dir.
func RepoRoot(ctx context.Context, dir string) (string, error) {
	out, err := git(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("finding repository root: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return string(out), nil
}
