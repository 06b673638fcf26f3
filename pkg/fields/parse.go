// Package fields turns loosely formatted "Label: value" text, such as a
// registration mail pasted from a mail client, into a Record keyed by
// canonical labels.
//
// Text with line breaks is read line by line. Text that arrives as one long
// line (pasted content that lost its line breaks) is cut into logical lines at
// every known label phrase followed by a colon. Labels outside the vocabulary
// are dropped.
package fields

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/entrhq/formpilot/pkg/inspect"
)

// DefaultSingleLineThreshold is the rune count above which a text without
// line breaks is scanned for label phrases.
const DefaultSingleLineThreshold = 100

var (
	lineBreak    = regexp.MustCompile(`\r?\n`)
	emailPattern = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
)

// Parser extracts records from text using one vocabulary.
type Parser struct {
	index     map[string]Label
	scan      *regexp.Regexp
	threshold int
}

var defaultParser = NewParser(DefaultVocabulary(), DefaultSingleLineThreshold)

// Parse extracts a record from text with the default vocabulary.
func Parse(text string) Record {
	return defaultParser.Parse(text)
}

// NewParser builds a parser. A non-positive threshold selects the default.
func NewParser(vocab Vocabulary, threshold int) *Parser {
	if threshold <= 0 {
		threshold = DefaultSingleLineThreshold
	}

	index := make(map[string]Label, len(vocab))
	phrases := vocab.phrases()
	quoted := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		index[inspect.Fold(strings.TrimSpace(phrase))] = vocab[phrase]
		quoted = append(quoted, regexp.QuoteMeta(phrase))
	}

	p := &Parser{index: index, threshold: threshold}
	if len(quoted) > 0 {
		p.scan = regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)[ \t]*:`)
	}
	return p
}

// Parse extracts a record from text.
func (p *Parser) Parse(text string) Record {
	lines := lineBreak.Split(text, -1)
	if len(lines) == 1 && utf8.RuneCountInString(text) > p.threshold {
		lines = p.splitAtLabels(text)
	}

	b := newBuilder()
	for _, line := range lines {
		key, value, ok := splitLine(line)
		if !ok {
			continue
		}
		label, known := p.index[inspect.Fold(key)]
		if !known {
			continue
		}
		b.set(label, value)
	}

	if b.has(From) && !b.has(Email) {
		if email := emailPattern.FindString(b.values[From]); email != "" {
			b.set(Email, email)
		}
	}
	return b.record()
}

// splitAtLabels rebuilds logical lines from a single line: each one starts at
// a label phrase and runs to the next. Text before the first label is dropped.
func (p *Parser) splitAtLabels(text string) []string {
	if p.scan == nil {
		return nil
	}
	matches := p.scan.FindAllStringIndex(text, -1)
	lines := make([]string, 0, len(matches))
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		lines = append(lines, strings.TrimSpace(text[m[0]:end]))
	}
	return lines
}

// splitLine splits at the first colon. Lines without a colon, or with an
// empty label or value, are rejected.
func splitLine(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}

// Merge returns a copy of v extended with aliases mapping a phrase to a
// canonical label name.
func (v Vocabulary) Merge(aliases map[string]string) (Vocabulary, error) {
	out := make(Vocabulary, len(v)+len(aliases))
	for phrase, label := range v {
		out[phrase] = label
	}
	for phrase, name := range aliases {
		if strings.TrimSpace(phrase) == "" {
			return nil, fmt.Errorf("empty alias phrase for label %q", name)
		}
		if !IsLabel(name) {
			return nil, fmt.Errorf("alias %q refers to unknown label %q", phrase, name)
		}
		out[phrase] = Label(name)
	}
	return out, nil
}
