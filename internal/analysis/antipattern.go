package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/sprite-ai/triage/internal/diff"
	"github.com/sprite-ai/triage/internal/model"
)

var (
	broadExceptPatterns = compilePatterns(
		`(?i)except\s*:`,
		`(?i)except\s+Exception\s*:`,
		`(?i)catch\s*\(\s*(Exception|Error|e)\s*\)`,
		`(?i)catch\s*\{`,
		`(?i)rescue\s*$`,
		`(?i)rescue\s+StandardError`,
		`\.catch\(\s*(?:_|err|\(\s*\))\s*=>`,
	)

	commentedCodePatterns = compilePatterns(
		`^\s*(?://|#)\s*(?:func |def |class |if |for |while |return |import |from |const |let |var |pub fn )`,
		`^\s*(?://|#)\s*\w+\s*[({=]`,
	)

	markerPattern = regexp.MustCompile(`\b(TODO|FIXME|HACK|XXX)\b`)
)

// duplicateWindow is the number of consecutive non-trivial added lines
// compared when looking for copied blocks.
const duplicateWindow = 4

// AntiPatternCheck flags broad exception handlers, commented-out code,
// leftover work markers and near-duplicate blocks in added lines.
func AntiPatternCheck(ds *diff.DiffSet) []Finding {
	var findings []Finding

	for _, f := range ds.Files {
		path := f.Path()
		for _, line := range addedLines(f) {
			add := func(msg string, sev model.Severity) {
				findings = append(findings, Finding{
					Check:    "anti_patterns",
					Path:     path,
					Line:     line.num,
					Message:  msg,
					Severity: sev,
				})
			}

			switch {
			case matchAny(broadExceptPatterns, line.text):
				add("broad exception handler", model.SeverityWarning)
			case matchAny(commentedCodePatterns, line.text):
				add("commented-out code", model.SeverityInfo)
			}
			if m := markerPattern.FindString(line.text); m != "" {
				add(m+" marker in added code", model.SeverityInfo)
			}
		}
	}

	return append(findings, duplicateBlocks(ds)...)
}

// duplicateBlocks hashes a sliding window over each file's added lines and
// reports every repeat after the first occurrence.
func duplicateBlocks(ds *diff.DiffSet) []Finding {
	type loc struct {
		path string
		line int
	}
	var order []string
	blocks := make(map[string][]loc)

	for _, f := range ds.Files {
		path := f.Path()
		var kept []addedLine
		for _, line := range addedLines(f) {
			if !trivial(line.text) {
				kept = append(kept, addedLine{num: line.num, text: strings.TrimSpace(line.text)})
			}
		}
		for i := 0; i+duplicateWindow <= len(kept); i++ {
			h := sha256.New()
			for _, l := range kept[i : i+duplicateWindow] {
				h.Write([]byte(l.text))
				h.Write([]byte{'\n'})
			}
			key := hex.EncodeToString(h.Sum(nil))
			if _, ok := blocks[key]; !ok {
				order = append(order, key)
			}
			blocks[key] = append(blocks[key], loc{path: path, line: kept[i].num})
		}
	}

	var findings []Finding
	for _, key := range order {
		locs := blocks[key]
		first := locs[0]
		for _, l := range locs[1:] {
			// Messages never name another file; diagnostics are matched to
			// files by path.
			msg := "near-duplicate of a block added in another changed file"
			if l.path == first.path {
				msg = fmt.Sprintf("near-duplicate of the block at line %d", first.line)
			}
			findings = append(findings, Finding{
				Check:    "anti_patterns",
				Path:     l.path,
				Line:     l.line,
				Message:  msg,
				Severity: model.SeverityWarning,
			})
		}
	}
	return findings
}

func trivial(text string) bool {
	switch strings.TrimSpace(text) {
	case "", "{", "}", "(", ")", "},", "),", "]", "[":
		return true
	}
	return false
}
