package model

import (
	"encoding/json"
	"testing"
)

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{FileImplementation.String(), "implementation"},
		{FileTest.String(), "test"},
		{FileDocumentation.String(), "documentation"},
		{FileConfig.String(), "config"},
		{FileType(99).String(), "unknown"},
		{SeverityBlocker.String(), "blocker"},
		{SeverityCritical.String(), "critical"},
		{SeverityWarning.String(), "warning"},
		{SeverityInfo.String(), "info"},
		{Severity(99).String(), "unknown"},
		{TierSkip.String(), "skip"},
		{TierQuick.String(), "quick"},
		{TierStandard.String(), "standard"},
		{TierFull.String(), "full"},
		{Tier(99).String(), "unknown"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestParseFileType(t *testing.T) {
	ft, err := ParseFileType("Config")
	if err != nil {
		t.Fatalf("ParseFileType: %v", err)
	}
	if ft != FileConfig {
		t.Errorf("ParseFileType(Config) = %s, want config", ft)
	}
	if _, err := ParseFileType("binary"); err == nil {
		t.Error("expected error for unknown file type")
	}
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("STANDARD")
	if err != nil {
		t.Fatalf("ParseTier: %v", err)
	}
	if tier != TierStandard {
		t.Errorf("ParseTier(STANDARD) = %s, want standard", tier)
	}
	if _, err := ParseTier("huge"); err == nil {
		t.Error("expected error for unknown tier")
	}
}

func TestTypeBreakdown(t *testing.T) {
	var b TypeBreakdown
	b[FileTest] = 2
	b[FileConfig] = 1

	if b.Total() != 3 {
		t.Errorf("Total() = %d, want 3", b.Total())
	}
	present := b.Present()
	if len(present) != 2 || present[0] != FileTest || present[1] != FileConfig {
		t.Errorf("Present() = %v, want [test config]", present)
	}
	if b.Get(FileType(42)) != 0 {
		t.Error("Get out of range should be 0")
	}

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m["test"] != 2 || m["implementation"] != 0 {
		t.Errorf("unexpected JSON breakdown: %s", data)
	}
}

func TestChangedFileIsNew(t *testing.T) {
	tests := []struct {
		f    ChangedFile
		want bool
	}{
		{ChangedFile{LinesAdded: 10}, true},
		{ChangedFile{LinesAdded: 10, LinesDeleted: 1}, false},
		{ChangedFile{}, false},
	}
	for _, tt := range tests {
		if got := tt.f.IsNew(); got != tt.want {
			t.Errorf("IsNew(%+v) = %v, want %v", tt.f, got, tt.want)
		}
	}
}

func TestToolResultOutput(t *testing.T) {
	r := ToolResult{Stdout: "a", Stderr: "b"}
	if r.Output() != "a\nb" {
		t.Errorf("Output() = %q", r.Output())
	}
	if (ToolResult{Stderr: "b"}).Output() != "b" {
		t.Error("expected stderr only")
	}
}
