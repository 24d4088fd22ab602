package tier

import (
	"path"
	"regexp"

	"github.com/sprite-ai/triage/internal/model"
)

// Fallback heuristics, consulted only when no profile rule matches. Patterns
// are anchored and free of nested quantifiers.
var (
	testFilePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\.(test|spec)\.[cm]?[jt]sx?$`),
		regexp.MustCompile(`_test\.go$`),
		regexp.MustCompile(`(^|/)test_[^/]*\.py$`),
		regexp.MustCompile(`_test\.py$`),
		regexp.MustCompile(`_spec\.rb$`),
		regexp.MustCompile(`(Test|Tests|Spec)\.(java|kt|cs|scala)$`),
		regexp.MustCompile(`(^|/)(__tests__|tests?)/`),
	}

	docFilePattern = regexp.MustCompile(`(?i)\.md$`)

	// Matched against the base name only.
	configFilePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^package(-lock)?\.json$`),
		regexp.MustCompile(`^(pnpm-lock\.yaml|yarn\.lock)$`),
		regexp.MustCompile(`^[jt]sconfig(\.[\w-]+)?\.json$`),
		regexp.MustCompile(`^\.(eslintrc|prettierrc|babelrc|stylelintrc)(\.\w+)?$`),
		regexp.MustCompile(`^(eslint|prettier|jest|vitest|vite|webpack|rollup|babel|playwright|tailwind|postcss)\.config\.[cm]?[jt]s$`),
		regexp.MustCompile(`^\.(editorconfig|gitignore|npmrc|nvmrc|dockerignore)$`),
		regexp.MustCompile(`^\.golangci\.ya?ml$`),
		regexp.MustCompile(`^go\.(mod|sum|work)$`),
		regexp.MustCompile(`^(Makefile|Dockerfile|Cargo\.toml|Gemfile)$`),
		regexp.MustCompile(`^docker-compose(\.[\w-]+)?\.ya?ml$`),
		regexp.MustCompile(`^(pyproject\.toml|setup\.cfg|tox\.ini|pytest\.ini|\.flake8|requirements(-dev)?\.txt)$`),
	}
)

// AnalyzeFileType classifies path. Profile rules win over the heuristics.
func (c *Classifier) AnalyzeFileType(p string) model.FileType {
	p = normalize(p)
	for _, r := range c.rules {
		if r.Match(p) {
			return r.Type
		}
	}
	return heuristicFileType(p)
}

func heuristicFileType(p string) model.FileType {
	for _, re := range testFilePatterns {
		if re.MatchString(p) {
			return model.FileTest
		}
	}
	if docFilePattern.MatchString(p) {
		return model.FileDocumentation
	}
	base := path.Base(p)
	for _, re := range configFilePatterns {
		if re.MatchString(base) {
			return model.FileConfig
		}
	}
	return model.FileImplementation
}
