package diff

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// highlightStyle matches the browser's dark palette.
const highlightStyle = "dracula"

// Token is a run of source text with an optional foreground color.
type Token struct {
	Text  string
	Color string // hex color, empty for the default foreground
}

// Highlight tokenizes lines as source in the language implied by filename
// and returns exactly one token slice per input line. Unknown languages and
// lexer failures yield a single uncolored token per line.
func Highlight(filename string, lines []string) [][]Token {
	lexer := lexerFor(filename)
	if lexer == nil {
		return plain(lines)
	}
	it, err := lexer.Tokenise(nil, strings.Join(lines, "\n"))
	if err != nil {
		return plain(lines)
	}

	style := styles.Get(highlightStyle)
	out := make([][]Token, 1, len(lines))
	for _, tok := range it.Tokens() {
		color := ""
		if entry := style.Get(tok.Type); entry.Colour.IsSet() {
			color = entry.Colour.String()
		}
		for i, part := range strings.Split(tok.Value, "\n") {
			if i > 0 {
				out = append(out, nil)
			}
			if part != "" {
				last := len(out) - 1
				out[last] = append(out[last], Token{Text: part, Color: color})
			}
		}
	}

	// Lexers may add a trailing newline; keep the result aligned with lines.
	for len(out) < len(lines) {
		out = append(out, nil)
	}
	return out[:len(lines)]
}

// Plain returns the text of tokens without colors.
func Plain(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

func plain(lines []string) [][]Token {
	out := make([][]Token, len(lines))
	for i, line := range lines {
		out[i] = []Token{{Text: line}}
	}
	return out
}

func lexerFor(filename string) chroma.Lexer {
	lexer := lexers.Match(filepath.Base(filename))
	if lexer == nil {
		if ext := filepath.Ext(filename); ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer == nil {
		return nil
	}
	return chroma.Coalesce(lexer)
}
