package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/sprite-ai/triage/internal/analysis"
	"github.com/sprite-ai/triage/internal/diff"
	"github.com/sprite-ai/triage/internal/model"
	"github.com/sprite-ai/triage/internal/selector"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Change sets ---

// changeRequest names a change set either as a unified diff or as explicit
// files. A present but empty files array is a valid empty change set.
type changeRequest struct {
	Diff  string              `json:"diff,omitempty"`
	Files []model.ChangedFile `json:"files,omitempty"`
}

var errNoChangeSet = errors.New("diff or files is required")

// changeSet returns the changed files and, for the diff form, the parsed diff.
func (c changeRequest) changeSet() (*diff.DiffSet, []model.ChangedFile, error) {
	if c.Diff != "" {
		ds, err := diff.Parse(c.Diff)
		if err != nil {
			return nil, nil, err
		}
		return ds, ds.ChangedFiles(), nil
	}
	if c.Files == nil {
		return nil, nil, errNoChangeSet
	}
	files := make([]model.ChangedFile, len(c.Files))
	for i, f := range c.Files {
		if f.LinesChanged == 0 {
			f.LinesChanged = f.LinesAdded + f.LinesDeleted
		}
		files[i] = f
	}
	return nil, files, nil
}

// --- Tier ---

func (s *Server) handleTier(w http.ResponseWriter, r *http.Request) {
	var req changeRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	_, files, err := req.changeSet()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, s.classify(files))
}

func (s *Server) classify(files []model.ChangedFile) model.TierRecommendation {
	rec := s.classifier.ClassifyChanges(files)
	s.metrics.tierDecisions.WithLabelValues(rec.Tier.String(), rec.Rule).Inc()
	return rec
}

// --- Select ---

type selectRequest struct {
	changeRequest
	Diagnostics   []model.ToolResult `json:"diagnostics,omitempty"`
	MaxFiles      int                `json:"max_files,omitempty"`
	CriticalPaths []string           `json:"critical_paths,omitempty"`
	DiffChecks    bool               `json:"diff_checks,omitempty"`
	SkipChecks    []string           `json:"skip_checks,omitempty"`
}

func (r selectRequest) validate() error {
	for _, name := range r.SkipChecks {
		if _, ok := analysis.Checks[name]; !ok {
			return fmt.Errorf("unknown diff check %q", name)
		}
	}
	return nil
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	ds, files, err := req.changeSet()
	if err == nil {
		err = req.validate()
	}
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.selectFiles(r.Context(), ds, files, req)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, report)
}

// selectFiles runs critical file selection. ds may be nil when the change set
// was given as explicit files; diff checks then have nothing to scan.
func (s *Server) selectFiles(ctx context.Context, ds *diff.DiffSet, files []model.ChangedFile, req selectRequest) (*model.CriticalFilesReport, error) {
	opts := selector.Options{
		MaxFiles:      req.MaxFiles,
		CriticalPaths: req.CriticalPaths,
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = s.maxFiles
	}
	if len(opts.CriticalPaths) == 0 {
		opts.CriticalPaths = s.criticalPaths
	}

	diagnostics := req.Diagnostics
	if req.DiffChecks && ds != nil {
		findings := analysis.Run(ds, req.SkipChecks)
		diagnostics = append(slices.Clip(diagnostics), analysis.ToolResult(findings))
	}

	start := time.Now()
	report, err := s.selector.SelectCriticalFiles(ctx, files, diagnostics, opts)
	if err != nil {
		return nil, fmt.Errorf("selecting critical files: %w", err)
	}
	s.metrics.selectionDuration.Observe(time.Since(start).Seconds())
	s.metrics.selectedFiles.Observe(float64(len(report.AllFiles)))
	return report, nil
}

// --- Parse ---

type parseRequest struct {
	Diff string `json:"diff"`
}

type parseResponse struct {
	Files []fileJSON    `json:"files"`
	Stats diffStatsJSON `json:"stats"`
}

type fileJSON struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	OldName      string `json:"old_name,omitempty"`
	NewName      string `json:"new_name,omitempty"`
	IsNew        bool   `json:"is_new,omitempty"`
	IsDeleted    bool   `json:"is_deleted,omitempty"`
	IsRenamed    bool   `json:"is_renamed,omitempty"`
	IsBinary     bool   `json:"is_binary,omitempty"`
	AddedLines   int    `json:"added_lines"`
	DeletedLines int    `json:"deleted_lines"`
	Fragments    int    `json:"fragments"`
}

type diffStatsJSON struct {
	Files   int `json:"files"`
	Added   int `json:"added"`
	Deleted int `json:"deleted"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if req.Diff == "" {
		s.writeError(w, http.StatusBadRequest, "diff is required")
		return
	}

	ds, err := diff.Parse(req.Diff)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	nFiles, added, deleted := ds.Stats()
	resp := parseResponse{
		Files: make([]fileJSON, 0, nFiles),
		Stats: diffStatsJSON{
			Files:   nFiles,
			Added:   added,
			Deleted: deleted,
		},
	}

	for _, f := range ds.Files {
		resp.Files = append(resp.Files, fileJSON{
			Path:         f.Path(),
			Name:         f.Name(),
			OldName:      f.OldName,
			NewName:      f.NewName,
			IsNew:        f.IsNew,
			IsDeleted:    f.IsDeleted,
			IsRenamed:    f.IsRenamed,
			IsBinary:     f.IsBinary,
			AddedLines:   f.AddedLines,
			DeletedLines: f.DeletedLines,
			Fragments:    len(f.Fragments),
		})
	}

	s.writeJSON(w, http.StatusOK, resp)
}
