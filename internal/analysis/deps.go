package analysis

import (
	"fmt"
	"path"
	"strings"

	"golang.org/x/mod/module"

	"github.com/sprite-ai/triage/internal/diff"
	"github.com/sprite-ai/triage/internal/model"
)

// Manifest file names and the ecosystem they belong to. Lock files are left
// out; their churn mirrors the manifest.
var manifests = map[string]string{
	"go.mod":           "go",
	"package.json":     "npm",
	"Cargo.toml":       "cargo",
	"requirements.txt": "pip",
	"Gemfile":          "gem",
	"mix.exs":          "hex",
}

var npmKeys = map[string]bool{
	"dependencies": true, "devDependencies": true, "peerDependencies": true,
	"name": true, "version": true, "description": true, "main": true,
	"scripts": true, "license": true, "private": true, "type": true,
}

var cargoKeys = map[string]bool{
	"name": true, "version": true, "edition": true, "authors": true,
	"description": true, "license": true,
}

// DependencyCheck reports dependencies added to package manifests.
func DependencyCheck(ds *diff.DiffSet) []Finding {
	var findings []Finding

	for _, f := range ds.Files {
		p := f.Path()
		eco, ok := manifests[path.Base(p)]
		if !ok {
			continue
		}
		for _, line := range addedLines(f) {
			name := parseDependency(strings.TrimSpace(line.text), eco)
			if name == "" {
				continue
			}
			findings = append(findings, Finding{
				Check:    "deps",
				Path:     p,
				Line:     line.num,
				Message:  fmt.Sprintf("new %s dependency %s", eco, name),
				Severity: model.SeverityWarning,
			})
		}
	}

	return findings
}

func parseDependency(line, eco string) string {
	if line == "" {
		return ""
	}
	switch eco {
	case "go":
		// "require example.com/m v1.2.3" or a line inside a require block.
		fields := strings.Fields(strings.TrimPrefix(line, "require "))
		if len(fields) < 2 || strings.HasPrefix(fields[0], "//") {
			return ""
		}
		if module.CheckPath(fields[0]) != nil || !strings.HasPrefix(fields[1], "v") {
			return ""
		}
		return fields[0]

	case "npm":
		key, _, ok := strings.Cut(strings.TrimSuffix(line, ","), ":")
		if !ok {
			return ""
		}
		name := strings.Trim(key, `" `)
		if name == "" || npmKeys[name] || strings.HasPrefix(name, "@types/") {
			return ""
		}
		return name

	case "cargo":
		if strings.HasPrefix(line, "[") || strings.HasPrefix(line, "#") {
			return ""
		}
		key, _, ok := strings.Cut(line, "=")
		if !ok {
			return ""
		}
		name := strings.TrimSpace(key)
		if name == "" || cargoKeys[name] || strings.Contains(name, ".") {
			return ""
		}
		return name

	case "pip":
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			return ""
		}
		for _, sep := range []string{"==", ">=", "<=", "!=", "~=", ">", "<"} {
			if i := strings.Index(line, sep); i > 0 {
				return strings.TrimSpace(line[:i])
			}
		}
		if !strings.ContainsAny(line, " \t") {
			return line
		}

	case "gem":
		if rest, ok := strings.CutPrefix(line, "gem "); ok {
			name, _, _ := strings.Cut(rest, ",")
			return strings.Trim(name, `'" `)
		}

	case "hex":
		if rest, ok := strings.CutPrefix(line, "{:"); ok {
			if name, _, ok := strings.Cut(rest, ","); ok {
				return name
			}
		}
	}
	return ""
}
