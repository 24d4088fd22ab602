package imports

import (
	"go/parser"
	"go/token"
	"log/slog"
	"path"
	"regexp"
	"strconv"
	"strings"
)

type language int

const (
	langNone language = iota
	langGo
	langJS
	langPython
)

func languageOf(p string) language {
	switch path.Ext(p) {
	case ".go":
		return langGo
	case ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts":
		return langJS
	case ".py":
		return langPython
	}
	return langNone
}

var (
	jsImportPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?m)\b(?:import|export)\s[^'"]*?\bfrom\s*['"]([^'"\n]+)['"]`),
		regexp.MustCompile(`(?m)^\s*import\s*['"]([^'"\n]+)['"]`),
		regexp.MustCompile(`\b(?:require|import)\(\s*['"]([^'"\n]+)['"]\s*\)`),
	}

	pyFromPattern   = regexp.MustCompile(`(?m)^\s*from\s+(\.*[\w.]*)\s+import\s`)
	pyImportPattern = regexp.MustCompile(`(?m)^\s*import\s+([\w.]+(?:\s*,\s*[\w.]+)*)`)

	jsExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts"}
)

// resolve returns the project files that file p imports.
func (proj *project) resolve(p string, data []byte, logger *slog.Logger) []string {
	switch languageOf(p) {
	case langGo:
		return proj.resolveGo(p, data, logger)
	case langJS:
		return proj.resolveJS(p, data)
	case langPython:
		return proj.resolvePython(p, data)
	}
	return nil
}

func (proj *project) resolveGo(p string, data []byte, logger *slog.Logger) []string {
	if proj.goModule == "" {
		return nil
	}
	f, err := parser.ParseFile(token.NewFileSet(), p, data, parser.ImportsOnly)
	if err != nil {
		logger.Debug("skipping unparsable go file", "path", p, "error", err)
		return nil
	}

	var out []string
	for _, spec := range f.Imports {
		ip, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		var dir string
		switch {
		case ip == proj.goModule:
			dir = "."
		case strings.HasPrefix(ip, proj.goModule+"/"):
			dir = strings.TrimPrefix(ip, proj.goModule+"/")
		default:
			continue
		}
		out = append(out, proj.goPackages[dir]...)
	}
	return out
}

func (proj *project) resolveJS(p string, data []byte) []string {
	var out []string
	for _, re := range jsImportPatterns {
		for _, m := range re.FindAllSubmatch(data, -1) {
			spec := string(m[1])
			if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") {
				continue
			}
			if target, ok := proj.lookupJS(path.Join(path.Dir(p), spec)); ok {
				out = append(out, target)
			}
		}
	}
	return out
}

// lookupJS finds the file a relative specifier refers to, following the
// extension and index conventions of Node and TypeScript.
func (proj *project) lookupJS(base string) (string, bool) {
	candidates := []string{base}
	ext := path.Ext(base)
	switch ext {
	case ".js", ".jsx", ".mjs", ".cjs":
		stem := strings.TrimSuffix(base, ext)
		candidates = append(candidates, stem+".ts", stem+".tsx", stem+".mts", stem+".cts")
	}
	for _, e := range jsExtensions {
		candidates = append(candidates, base+e)
	}
	for _, e := range jsExtensions {
		candidates = append(candidates, base+"/index"+e)
	}
	for _, c := range candidates {
		if proj.files[c] {
			return c, true
		}
	}
	return "", false
}

func (proj *project) resolvePython(p string, data []byte) []string {
	var out []string
	for _, m := range pyFromPattern.FindAllSubmatch(data, -1) {
		if target, ok := proj.lookupPython(p, string(m[1])); ok {
			out = append(out, target)
		}
	}
	for _, m := range pyImportPattern.FindAllSubmatch(data, -1) {
		for _, mod := range strings.Split(string(m[1]), ",") {
			if target, ok := proj.lookupPython(p, strings.TrimSpace(mod)); ok {
				out = append(out, target)
			}
		}
	}
	return out
}

// lookupPython maps a dotted module name, possibly relative, to a file.
func (proj *project) lookupPython(from, module string) (string, bool) {
	dots := len(module) - len(strings.TrimLeft(module, "."))
	module = module[dots:]

	base := ""
	if dots > 0 {
		base = path.Dir(from)
		for i := 1; i < dots; i++ {
			base = path.Dir(base)
		}
	}

	rel := strings.ReplaceAll(module, ".", "/")
	var candidates []string
	if rel == "" {
		candidates = []string{path.Join(base, "__init__.py")}
	} else {
		full := path.Join(base, rel)
		candidates = []string{full + ".py", path.Join(full, "__init__.py")}
	}
	for _, c := range candidates {
		if proj.files[c] {
			return c, true
		}
	}
	return "", false
}
