package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sprite-ai/triage/internal/diff"
	"github.com/sprite-ai/triage/internal/model"
)

// Security-sensitive patterns grouped by category.
var securityPatterns = []struct {
	category string
	patterns []*regexp.Regexp
	severity model.Severity
}{
	{
		category: "authentication",
		patterns: compilePatterns(
			`(?i)(auth|login|logout|signin|signup|password|credential|token|jwt|oauth|session|cookie)`,
		),
		severity: model.SeverityWarning,
	},
	{
		category: "authorization",
		patterns: compilePatterns(
			`(?i)(permission|role|access.?control|rbac|acl|authorize|forbidden|is.?admin|can.?access)`,
		),
		severity: model.SeverityWarning,
	},
	{
		category: "SQL/database",
		patterns: compilePatterns(
			`(?i)(db\.exec|db\.query|\.prepare\(|raw.?sql|sql\.)`,
			`(?i)(\bSELECT\b|\bINSERT\b|\bUPDATE\b|\bDELETE\b|\bDROP\b|\bALTER\b)\s`,
			`(?i)(connection\.execute|cursor\.execute)`,
		),
		severity: model.SeverityWarning,
	},
	{
		category: "cryptography",
		patterns: compilePatterns(
			`(?i)(encrypt|decrypt|hmac|cipher|\baes\b|\brsa\b|sha256|sha512|bcrypt|argon|scrypt|pbkdf)`,
			`(?i)(private.?key|public.?key|secret.?key|signing.?key|crypto\.)`,
		),
		severity: model.SeverityWarning,
	},
	{
		category: "subprocess/exec",
		patterns: compilePatterns(
			`(?i)(exec\.Command|os\.system|subprocess|child_process|shell_exec|system\()`,
			`(?i)(?:^|[^.\w])(?:eval|exec)\(`,
		),
		severity: model.SeverityWarning,
	},
	{
		category: "file system",
		patterns: compilePatterns(
			`(?i)(os\.Remove|os\.Rename|os\.Chmod|os\.Chown|os\.MkdirAll|os\.WriteFile|ioutil\.WriteFile)`,
			`(?i)(unlink|rmdir|chmod|chown|write_file|open.*["']w)`,
		),
		severity: model.SeverityInfo,
	},
	{
		category: "environment/secrets",
		patterns: compilePatterns(
			`(?i)(os\.Getenv|os\.environ|process\.env|ENV\[|getenv)`,
			`(?i)(api.?key|secret|password|token)\s*[:=]`,
		),
		severity: model.SeverityInfo,
	},
	{
		category: "network/HTTP",
		patterns: compilePatterns(
			`(?i)(http\.ListenAndServe|\.listen\(|\bcors\b|allow.?origin)`,
			`(?i)(tls\.Config|InsecureSkipVerify|disable.?ssl|verify.?ssl.*false)`,
		),
		severity: model.SeverityInfo,
	},
}

func compilePatterns(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return compiled
}

// SecurityCheck flags added lines that touch security-sensitive code. Each
// category is reported at most once per line; comment-only lines are ignored.
func SecurityCheck(ds *diff.DiffSet) []Finding {
	var findings []Finding

	for _, f := range ds.Files {
		path := f.Path()
		for _, line := range addedLines(f) {
			if isComment(line.text) {
				continue
			}
			for _, sp := range securityPatterns {
				if matchAny(sp.patterns, line.text) {
					findings = append(findings, Finding{
						Check:    "security",
						Path:     path,
						Line:     line.num,
						Message:  fmt.Sprintf("security-sensitive change (%s)", sp.category),
						Severity: sp.severity,
					})
				}
			}
		}
	}

	return dedupe(findings)
}

func isComment(text string) bool {
	t := strings.TrimSpace(text)
	for _, p := range []string{"//", "#", "*", "/*"} {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
