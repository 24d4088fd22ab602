package tui

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/triage/internal/diff"
	"github.com/sprite-ai/triage/internal/model"
)

// renderedLine is a single line of the detail pane ready for display.
type renderedLine struct {
	OldNum   int // 0 means not applicable (add-only)
	NewNum   int // 0 means not applicable (delete-only)
	Op       gitdiff.LineOp
	Content  string // raw text content (no trailing newline)
	IsHunk   bool   // hunk header
	IsDetail bool   // score breakdown line
	Tokens   []diff.Token
}

// renderDetails produces the score breakdown shown above the diff.
func renderDetails(fs model.FileScore, selected bool) []renderedLine {
	var lines []renderedLine
	add := func(format string, args ...any) {
		lines = append(lines, renderedLine{IsDetail: true, Content: fmt.Sprintf(format, args...)})
	}

	status := "not selected"
	if selected {
		status = "selected for deep review"
	}
	add("Score %d, %s", fs.Score, status)
	add("Lines changed: %d   Import fan-in: %d", fs.LinesChanged, fs.ImportFanIn)

	var counts []string
	for _, s := range model.Severities {
		if n := fs.SeverityCounts.Get(s); n > 0 {
			counts = append(counts, fmt.Sprintf("%s %d", s, n))
		}
	}
	if len(counts) > 0 {
		add("Diagnostics: %s", strings.Join(counts, ", "))
	}

	if len(fs.RiskFactors) == 0 {
		add("No risk factors")
	}
	for _, f := range fs.RiskFactors {
		add("  • %s", f)
	}
	lines = append(lines, renderedLine{Content: ""})
	return lines
}

// renderFile produces renderedLines for a file's diff fragments.
func renderFile(f *diff.File) []renderedLine {
	var lines []renderedLine

	var source []string
	for _, frag := range f.Fragments {
		for _, line := range frag.Lines {
			source = append(source, strings.TrimRight(line.Line, "\n\r"))
		}
	}
	highlighted := diff.Highlight(f.Path(), source)
	next := 0

	for i, frag := range f.Fragments {
		lines = append(lines, renderedLine{
			IsHunk:  true,
			Content: formatHunkHeader(frag),
		})

		oldLine := int(frag.OldPosition)
		newLine := int(frag.NewPosition)

		for _, line := range frag.Lines {
			rl := renderedLine{
				Op:      line.Op,
				Content: source[next],
				Tokens:  highlighted[next],
			}
			next++

			switch line.Op {
			case gitdiff.OpContext:
				rl.OldNum = oldLine
				rl.NewNum = newLine
				oldLine++
				newLine++
			case gitdiff.OpDelete:
				rl.OldNum = oldLine
				oldLine++
			case gitdiff.OpAdd:
				rl.NewNum = newLine
				newLine++
			}

			lines = append(lines, rl)
		}

		// Blank separator between hunks, not after the last.
		if i < len(f.Fragments)-1 {
			lines = append(lines, renderedLine{Content: ""})
		}
	}

	return lines
}

func formatHunkHeader(frag *gitdiff.TextFragment) string {
	old := fmt.Sprintf("-%d", frag.OldPosition)
	if frag.OldLines != 1 {
		old += fmt.Sprintf(",%d", frag.OldLines)
	}
	new := fmt.Sprintf("+%d", frag.NewPosition)
	if frag.NewLines != 1 {
		new += fmt.Sprintf(",%d", frag.NewLines)
	}

	header := fmt.Sprintf("@@ %s %s @@", old, new)
	if frag.Comment != "" {
		header += " " + frag.Comment
	}
	return header
}

// styleLine applies styling to a rendered line for unified view.
func styleLine(rl renderedLine, width int) string {
	if rl.IsDetail {
		return detailStyle.Render(truncate(rl.Content, width))
	}
	if rl.IsHunk {
		return hunkHeaderStyle.Width(width).Render(rl.Content)
	}
	if rl.Content == "" && rl.OldNum == 0 && rl.NewNum == 0 {
		return ""
	}

	lineNums := lineNumberStyle.Render(lineNum(rl.OldNum)) + " " + lineNumberStyle.Render(lineNum(rl.NewNum))

	var prefix string
	style := contextLineStyle
	switch rl.Op {
	case gitdiff.OpAdd:
		prefix = "+"
		style = addedLineStyle
	case gitdiff.OpDelete:
		prefix = "-"
		style = deletedLineStyle
	default:
		prefix = " "
	}

	maxContent := width - 12
	if rl.Op == gitdiff.OpContext && len(rl.Tokens) > 0 {
		return lineNums + " " + renderTokens(prefix, rl.Tokens, maxContent)
	}

	content := prefix + rl.Content
	if maxContent > 0 {
		content = truncate(content, maxContent)
	}
	return lineNums + " " + style.Render(content)
}

// renderTokens renders a context line with syntax colors, cut to max runes
// when max is positive. Added and deleted lines keep their diff color.
func renderTokens(prefix string, tokens []diff.Token, max int) string {
	budget := -1
	if max > 0 {
		budget = max - len([]rune(prefix))
	}

	var b strings.Builder
	b.WriteString(contextLineStyle.Render(prefix))
	for _, tok := range tokens {
		if budget == 0 {
			break
		}
		text := tok.Text
		if budget > 0 {
			if n := len([]rune(text)); n > budget {
				text = truncate(text, budget)
			}
			budget -= len([]rune(text))
		}
		style := contextLineStyle
		if tok.Color != "" {
			style = lipgloss.NewStyle().Foreground(lipgloss.Color(tok.Color))
		}
		b.WriteString(style.Render(text))
	}
	return b.String()
}

// styleLineSplit renders a line for split (side-by-side) view.
func styleLineSplit(rl renderedLine, halfWidth int) (left, right string) {
	if rl.IsDetail {
		return detailStyle.Render(truncate(rl.Content, halfWidth*2)), ""
	}
	if rl.IsHunk {
		return hunkHeaderStyle.Width(halfWidth).Render(rl.Content), ""
	}

	maxContent := halfWidth - 7

	switch rl.Op {
	case gitdiff.OpDelete:
		content := truncate(rl.Content, maxContent)
		left = lineNumberStyle.Render(lineNum(rl.OldNum)) + " " + deletedLineStyle.Render("-"+content)
		right = strings.Repeat(" ", halfWidth)
	case gitdiff.OpAdd:
		left = strings.Repeat(" ", halfWidth)
		content := truncate(rl.Content, maxContent)
		right = lineNumberStyle.Render(lineNum(rl.NewNum)) + " " + addedLineStyle.Render("+"+content)
	default:
		if rl.OldNum == 0 && rl.NewNum == 0 {
			return "", ""
		}
		content := truncate(rl.Content, maxContent)
		left = lineNumberStyle.Render(lineNum(rl.OldNum)) + " " + contextLineStyle.Render(" "+content)
		right = lineNumberStyle.Render(lineNum(rl.NewNum)) + " " + contextLineStyle.Render(" "+content)
	}

	return left, right
}

func lineNum(n int) string {
	if n <= 0 {
		return "    "
	}
	return fmt.Sprintf("%4d", n)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}
