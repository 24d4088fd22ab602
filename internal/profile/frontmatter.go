// Package profile reads review profiles: markdown documents whose YAML
// frontmatter declares which files the profile applies to.
package profile

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrNoFrontmatter is returned when a document does not open with a --- block.
var ErrNoFrontmatter = errors.New("no frontmatter")

// Frontmatter is the subset of profile metadata triage reads.
type Frontmatter struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	AppliesTo   []string `yaml:"applies_to"`
}

var delimiter = []byte("---")

// ParseFrontmatter decodes the leading ----delimited YAML block of doc.
func ParseFrontmatter(doc []byte) (Frontmatter, error) {
	doc = bytes.TrimPrefix(doc, []byte("\xef\xbb\xbf"))

	first, rest, ok := cutLine(doc)
	if !ok || !bytes.Equal(bytes.TrimSpace(first), delimiter) {
		return Frontmatter{}, ErrNoFrontmatter
	}

	var block []byte
	closed := false
	for len(rest) > 0 {
		var line []byte
		line, rest, _ = cutLine(rest)
		if bytes.Equal(bytes.TrimSpace(line), delimiter) {
			closed = true
			break
		}
		block = append(block, line...)
		block = append(block, '\n')
	}
	if !closed {
		return Frontmatter{}, fmt.Errorf("unterminated frontmatter: %w", ErrNoFrontmatter)
	}

	var fm Frontmatter
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return Frontmatter{}, fmt.Errorf("parsing frontmatter: %w", err)
	}
	return fm, nil
}

// cutLine splits off the first line, dropping the newline and any \r.
func cutLine(b []byte) (line, rest []byte, ok bool) {
	if len(b) == 0 {
		return nil, nil, false
	}
	line, rest, _ = bytes.Cut(b, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r")), rest, true
}
