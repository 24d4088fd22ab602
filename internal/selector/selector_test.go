package selector

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/triage/internal/model"
	"github.com/sprite-ai/triage/internal/severity"
)

type staticFanIn map[string]int

func (s staticFanIn) FanIn(context.Context, string) (map[string]int, error) {
	return s, nil
}

type failingFanIn struct{ err error }

func (f failingFanIn) FanIn(context.Context, string) (map[string]int, error) {
	return nil, f.err
}

func modified(path string, lines int) model.ChangedFile {
	added := lines / 2
	return model.ChangedFile{Path: path, LinesAdded: added, LinesDeleted: lines - added, LinesChanged: lines}
}

func selectFiles(t *testing.T, fanIn map[string]int, files []model.ChangedFile, diags []model.ToolResult, opts Options) *model.CriticalFilesReport {
	t.Helper()
	s := New("/repo", staticFanIn(fanIn), severity.New(), nil)
	report, err := s.SelectCriticalFiles(context.Background(), files, diags, opts)
	require.NoError(t, err)
	return report
}

func TestHighFanInScore(t *testing.T) {
	report := selectFiles(t, map[string]int{"src/core/registry.ts": 25},
		[]model.ChangedFile{modified("src/core/registry.ts", 10)}, nil, Options{})

	require.Len(t, report.AllFiles, 1)
	fs := report.AllFiles[0]
	assert.Equal(t, 55, fs.Score)
	assert.Equal(t, 25, fs.ImportFanIn)
	assert.Contains(t, fs.RiskFactors, "high impact (25 imports)")
	assert.Contains(t, fs.RiskFactors, "inferred critical path (25 importers)")
	assert.Equal(t, []string{"src/core/registry.ts"}, report.InferredCriticalPaths)
	assert.Equal(t, Algorithm, report.Algorithm)
}

func TestTestFileDamping(t *testing.T) {
	report := selectFiles(t, map[string]int{"src/core/registry.test.ts": 25},
		[]model.ChangedFile{modified("src/core/registry.test.ts", 10)}, nil, Options{})

	fs := report.AllFiles[0]
	assert.Equal(t, 5, fs.Score)
	assert.Contains(t, fs.RiskFactors, "test file (lower priority)")
	assert.Equal(t, "test file (lower priority)", fs.RiskFactors[len(fs.RiskFactors)-1])
}

func TestDampingFloorsAtZero(t *testing.T) {
	report := selectFiles(t, nil, []model.ChangedFile{modified("src/a.spec.ts", 10)}, nil, Options{})
	assert.Equal(t, 0, report.AllFiles[0].Score)
}

func TestStableTieOrder(t *testing.T) {
	fanIn := map[string]int{"a.ts": 30, "b.ts": 30}
	report := selectFiles(t, fanIn, []model.ChangedFile{
		modified("c.ts", 10),
		modified("a.ts", 40),
		modified("b.ts", 40),
	}, nil, Options{})

	require.Len(t, report.AllFiles, 3)
	assert.Equal(t, 80, report.AllFiles[0].Score)
	assert.Equal(t, 80, report.AllFiles[1].Score)
	assert.Equal(t, "a.ts", report.AllFiles[0].Path)
	assert.Equal(t, "b.ts", report.AllFiles[1].Path)
	assert.Equal(t, "c.ts", report.AllFiles[2].Path)
}

func TestScoreContributions(t *testing.T) {
	tests := []struct {
		name    string
		file    model.ChangedFile
		fanIn   int
		opts    Options
		want    int
		factors []string
	}{
		{"moderate fan-in", modified("x.ts", 0), 8, Options{}, 8, []string{"moderate impact (8 imports)"}},
		{"low fan-in ignored", modified("x.ts", 0), 5, Options{}, 0, nil},
		{"large change", modified("x.ts", 250), 0, Options{}, 50, []string{"large change (250 lines)"}},
		{"medium change", modified("x.ts", 150), 0, Options{}, 25, []string{"medium change (150 lines)"}},
		{"boundary 200 is medium", modified("x.ts", 200), 0, Options{}, 25, []string{"medium change (200 lines)"}},
		{"half points rounded", modified("x.ts", 7), 0, Options{}, 4, []string{"small change (7 lines)"}},
		{
			"new file bonus",
			model.ChangedFile{Path: "x.ts", LinesAdded: 20, LinesChanged: 20}, 0, Options{},
			60, []string{"small change (20 lines)", "new file"},
		},
		{
			"first critical pattern wins",
			modified("src/api/x.ts", 0), 0,
			Options{CriticalPaths: []string{"src/**", "src/api/**"}},
			50, []string{"configured critical path (src/**)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fanIn := map[string]int{tt.file.Path: tt.fanIn}
			report := selectFiles(t, fanIn, []model.ChangedFile{tt.file}, nil, tt.opts)
			fs := report.AllFiles[0]
			assert.Equal(t, tt.want, fs.Score)
			assert.Equal(t, tt.factors, fs.RiskFactors)
		})
	}
}

func TestDiagnosticSeverity(t *testing.T) {
	diags := []model.ToolResult{{
		Type: "lint", Tool: "eslint",
		Stdout: "src/a.ts:1:1 fatal parse\nsrc/a.ts:2:1 error semi\nsrc/a.ts:3:1 warning any\nsrc/b.ts:1:1 error semi",
	}}
	report := selectFiles(t, nil, []model.ChangedFile{modified("src/a.ts", 0), modified("src/c.ts", 0)}, diags, Options{})

	a := report.AllFiles[0]
	assert.Equal(t, "src/a.ts", a.Path)
	assert.Equal(t, 200, a.Score)
	assert.Equal(t, []string{"1 blocker issue", "1 critical issue", "1 warning"}, a.RiskFactors)
	assert.Equal(t, 1, a.SeverityCounts[model.SeverityBlocker])

	c := report.AllFiles[1]
	assert.Equal(t, model.SeverityCounts{}, c.SeverityCounts)
	assert.Equal(t, 0, c.Score)
}

func TestDiagnosticsMatchNormalizedPath(t *testing.T) {
	diags := []model.ToolResult{{Type: "lint", Tool: "eslint", Stdout: "b.ts:1:1 error semi"}}
	report := selectFiles(t, nil, []model.ChangedFile{modified("./b.ts", 0)}, diags, Options{})

	require.Len(t, report.AllFiles, 1)
	assert.Equal(t, 1, report.AllFiles[0].SeverityCounts[model.SeverityCritical])
}

func TestTopFilesPrefix(t *testing.T) {
	var files []model.ChangedFile
	fanIn := map[string]int{}
	for i := 0; i < 14; i++ {
		p := fmt.Sprintf("pkg/f%02d.ts", i)
		files = append(files, modified(p, i*10))
		fanIn[p] = i
	}

	for _, maxFiles := range []int{0, 1, 3, 14, 50} {
		report := selectFiles(t, fanIn, files, nil, Options{MaxFiles: maxFiles})
		want := maxFiles
		if want <= 0 {
			want = DefaultMaxFiles
		}
		want = min(want, len(files))

		require.Len(t, report.TopFiles, want, "maxFiles=%d", maxFiles)
		assert.Equal(t, report.AllFiles[:want], report.TopFiles)
		for i := 1; i < len(report.AllFiles); i++ {
			assert.GreaterOrEqual(t, report.AllFiles[i-1].Score, report.AllFiles[i].Score)
		}
	}
}

func TestCoverageAndDuplicates(t *testing.T) {
	files := []model.ChangedFile{modified("a.ts", 1), modified("./b.ts", 1), modified("a.ts", 300), modified("b.ts", 2)}
	report := selectFiles(t, nil, files, nil, Options{})

	require.Len(t, report.AllFiles, 2)
	paths := map[string]bool{}
	for _, fs := range report.AllFiles {
		paths[fs.Path] = true
	}
	assert.True(t, paths["a.ts"])
	assert.True(t, paths["./b.ts"])
}

func TestScoresNeverNegative(t *testing.T) {
	var files []model.ChangedFile
	for _, name := range []string{"x.ts", "x.test.ts", "x.spec.ts"} {
		for _, lines := range []int{0, 1, 99, 101, 201} {
			files = append(files, modified(fmt.Sprintf("%d/%s", lines, name), lines))
		}
	}
	report := selectFiles(t, nil, files, nil, Options{})
	require.Len(t, report.AllFiles, len(files))
	for _, fs := range report.AllFiles {
		assert.GreaterOrEqual(t, fs.Score, 0, fs.Path)
	}
}

func TestInvalidCriticalPatternSkipped(t *testing.T) {
	report := selectFiles(t, nil, []model.ChangedFile{modified("db/x.go", 0)}, nil,
		Options{CriticalPaths: []string{"[bad", "db/**"}})
	assert.Equal(t, []string{"db/**"}, report.ConfiguredCriticalPaths)
	assert.Equal(t, 50, report.AllFiles[0].Score)
}

func TestInferCriticalPaths(t *testing.T) {
	got := InferCriticalPaths(map[string]int{
		"a.ts": 21, "b.ts": 40, "c.ts": 20, "d.ts": 21, "e.ts": 3,
	})
	assert.Equal(t, []string{"b.ts", "a.ts", "d.ts"}, got)
	assert.Empty(t, InferCriticalPaths(nil))
}

func TestEmptyInput(t *testing.T) {
	report := selectFiles(t, map[string]int{"core.ts": 99}, nil, nil, Options{})
	assert.Empty(t, report.AllFiles)
	assert.Empty(t, report.TopFiles)
	assert.Equal(t, []string{"core.ts"}, report.InferredCriticalPaths)
}

func TestDeterministic(t *testing.T) {
	fanIn := map[string]int{"a.ts": 22, "b.ts": 22, "c.ts": 7}
	files := []model.ChangedFile{modified("c.ts", 30), modified("b.ts", 5), modified("a.ts", 5)}
	first := selectFiles(t, fanIn, files, nil, Options{MaxFiles: 2})
	second := selectFiles(t, fanIn, files, nil, Options{MaxFiles: 2})
	assert.Equal(t, first, second)
}

func TestImportAnalyzerFailure(t *testing.T) {
	cause := errors.New("graph exploded")
	s := New("/repo", failingFanIn{err: cause}, severity.New(), nil)

	report, err := s.SelectCriticalFiles(context.Background(), []model.ChangedFile{modified("a.ts", 1)}, nil, Options{})
	assert.Nil(t, report)
	require.Error(t, err)

	var fe *FanInError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "/repo", fe.Root)
	assert.ErrorIs(t, err, cause)
}

func TestMissingImportAnalyzer(t *testing.T) {
	s := New("/repo", nil, nil, nil)
	_, err := s.SelectCriticalFiles(context.Background(), nil, nil, Options{})
	assert.ErrorIs(t, err, ErrNoImportAnalyzer)
}

func TestNilSeverityExtractor(t *testing.T) {
	s := New("/repo", staticFanIn(nil), nil, nil)
	diags := []model.ToolResult{{Stdout: "a.ts error"}}
	report, err := s.SelectCriticalFiles(context.Background(), []model.ChangedFile{modified("a.ts", 0)}, diags, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, report.AllFiles[0].Score)
}
