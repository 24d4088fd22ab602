// Package model defines the core data types shared across triage.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ChangedFile is a single file in the change set with its line counts.
type ChangedFile struct {
	Path         string `json:"path"`
	LinesAdded   int    `json:"lines_added"`
	LinesDeleted int    `json:"lines_deleted"`
	LinesChanged int    `json:"lines_changed"`
}

// IsNew reports whether the file only gained lines.
func (f ChangedFile) IsNew() bool {
	return f.LinesDeleted == 0 && f.LinesAdded > 0
}

// FileType categorizes a changed file for tier classification.
type FileType int

const (
	FileImplementation FileType = iota
	FileTest
	FileDocumentation
	FileConfig

	numFileTypes
)

// FileTypes lists every file type in declaration order.
var FileTypes = [numFileTypes]FileType{FileImplementation, FileTest, FileDocumentation, FileConfig}

func (t FileType) String() string {
	switch t {
	case FileImplementation:
		return "implementation"
	case FileTest:
		return "test"
	case FileDocumentation:
		return "documentation"
	case FileConfig:
		return "config"
	default:
		return "unknown"
	}
}

// ParseFileType is the inverse of FileType.String.
func ParseFileType(s string) (FileType, error) {
	for _, t := range FileTypes {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown file type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t FileType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *FileType) UnmarshalText(b []byte) error {
	v, err := ParseFileType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// TypeBreakdown counts files per FileType.
type TypeBreakdown [numFileTypes]int

// Get returns the count for t.
func (b TypeBreakdown) Get(t FileType) int {
	if t < 0 || t >= numFileTypes {
		return 0
	}
	return b[t]
}

// Total sums all counts.
func (b TypeBreakdown) Total() int {
	n := 0
	for _, c := range b {
		n += c
	}
	return n
}

// Present returns the file types with a non-zero count.
func (b TypeBreakdown) Present() []FileType {
	var types []FileType
	for _, t := range FileTypes {
		if b[t] > 0 {
			types = append(types, t)
		}
	}
	return types
}

// MarshalJSON renders the breakdown as an object keyed by type name.
func (b TypeBreakdown) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, numFileTypes)
	for _, t := range FileTypes {
		m[t.String()] = b[t]
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads the object form produced by MarshalJSON.
func (b *TypeBreakdown) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*b = TypeBreakdown{}
	for k, v := range m {
		t, err := ParseFileType(k)
		if err != nil {
			return err
		}
		b[t] = v
	}
	return nil
}

// Severity is a diagnostic severity level.
type Severity int

const (
	SeverityBlocker Severity = iota
	SeverityCritical
	SeverityWarning
	SeverityInfo

	numSeverities
)

// Severities lists every severity from most to least severe.
var Severities = [numSeverities]Severity{SeverityBlocker, SeverityCritical, SeverityWarning, SeverityInfo}

func (s Severity) String() string {
	switch s {
	case SeverityBlocker:
		return "blocker"
	case SeverityCritical:
		return "critical"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// SeverityCounts counts diagnostics per Severity.
type SeverityCounts [numSeverities]int

// Get returns the count for s.
func (c SeverityCounts) Get(s Severity) int {
	if s < 0 || s >= numSeverities {
		return 0
	}
	return c[s]
}

// Total sums all counts.
func (c SeverityCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// MarshalJSON renders the counts as an object keyed by severity name.
func (c SeverityCounts) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, numSeverities)
	for _, s := range Severities {
		m[s.String()] = c[s]
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads the object form produced by MarshalJSON.
func (c *SeverityCounts) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*c = SeverityCounts{}
	for k, v := range m {
		found := false
		for _, s := range Severities {
			if s.String() == k {
				c[s] = v
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown severity %q", k)
		}
	}
	return nil
}

// Tier is the review-effort tier of a change, ordered by intensity.
type Tier int

const (
	TierSkip Tier = iota
	TierQuick
	TierStandard
	TierFull
)

func (t Tier) String() string {
	switch t {
	case TierSkip:
		return "skip"
	case TierQuick:
		return "quick"
	case TierStandard:
		return "standard"
	case TierFull:
		return "full"
	default:
		return "unknown"
	}
}

// ParseTier is the inverse of Tier.String.
func ParseTier(s string) (Tier, error) {
	for _, t := range []Tier{TierSkip, TierQuick, TierStandard, TierFull} {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tier %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ToolResult is the captured outcome of one quality tool run.
type ToolResult struct {
	Type    string `json:"type"` // lint, typecheck, test, ...
	Tool    string `json:"tool"`
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Stdout  string `json:"stdout,omitempty"`
	Stderr  string `json:"stderr,omitempty"`
}

// Output returns stdout and stderr joined.
func (r ToolResult) Output() string {
	switch {
	case r.Stdout == "":
		return r.Stderr
	case r.Stderr == "":
		return r.Stdout
	}
	return r.Stdout + "\n" + r.Stderr
}

// ChangeMetrics are aggregate figures over a change set.
type ChangeMetrics struct {
	TotalFiles        int           `json:"total_files"`
	TotalLines        int           `json:"total_lines"`
	FileTypeBreakdown TypeBreakdown `json:"file_type_breakdown"`
	HasCriticalPaths  bool          `json:"has_critical_paths"`
	CriticalFiles     []string      `json:"critical_files,omitempty"`
}

// TierRecommendation is the outcome of tier classification.
type TierRecommendation struct {
	Tier    Tier          `json:"tier"`
	Rule    string        `json:"rule"` // identifier of the deciding rule
	Reason  string        `json:"reason"`
	Metrics ChangeMetrics `json:"metrics"`
}

// FileScore is the risk assessment of a single changed file.
type FileScore struct {
	Path           string         `json:"path"`
	Score          int            `json:"score"`
	RiskFactors    []string       `json:"risk_factors"`
	LinesChanged   int            `json:"lines_changed"`
	ImportFanIn    int            `json:"import_fan_in"`
	SeverityCounts SeverityCounts `json:"severity_counts"`
}

// CriticalFilesReport ranks changed files for deep review.
type CriticalFilesReport struct {
	TopFiles                []FileScore `json:"top_files"`
	AllFiles                []FileScore `json:"all_files"`
	InferredCriticalPaths   []string    `json:"inferred_critical_paths"`
	ConfiguredCriticalPaths []string    `json:"configured_critical_paths"`
	Algorithm               string      `json:"algorithm"`
}
