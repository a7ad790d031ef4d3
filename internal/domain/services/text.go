package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ersonp/jurisflow/internal/domain/entities"
)

const (
	// RejectLength is the output size beyond which a generated description is discarded.
	RejectLength = 2 * entities.MaxDescriptionLength

	// minDerivedCoverage is the share of content words of a generated description
	// that must come from the base description or the contextual text.
	minDerivedCoverage = 0.5

	// contentWordLength is the minimum length of a word counted by the plausibility check.
	contentWordLength = 4

	// stemLength is the prefix length under which two words count as the same stem.
	stemLength = 5
)

var errEmptyOutput = errors.New("empty generated description")

// wrappingQuotes are opening/closing pairs stripped from generated text.
var wrappingQuotes = [][2]string{
	{`"`, `"`},
	{`'`, `'`},
	{"`", "`"},
	{"“", "”"},
	{"‘", "’"},
	{"«", "»"},
}

// sanitizeGenerated cleans a raw backend response into a single-line description.
func sanitizeGenerated(raw string) (string, error) {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if i := strings.IndexAny(text, "\r\n"); i >= 0 && !strings.Contains(text[:i], " ") {
			text = text[i:] // drop a language tag such as ```text
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	text = strings.Join(strings.Fields(text), " ")
	text = stripWrappingQuotes(text)

	if text == "" {
		return "", errEmptyOutput
	}
	if n := utf8.RuneCountInString(text); n > RejectLength {
		return "", fmt.Errorf("generated description has %d characters, limit is %d", n, RejectLength)
	}
	return text, nil
}

func stripWrappingQuotes(text string) string {
	for {
		stripped := false
		for _, q := range wrappingQuotes {
			if len(text) >= len(q[0])+len(q[1]) && strings.HasPrefix(text, q[0]) && strings.HasSuffix(text, q[1]) {
				text = strings.TrimSpace(text[len(q[0]) : len(text)-len(q[1])])
				stripped = true
			}
		}
		if !stripped {
			return text
		}
	}
}

// TruncateDescription caps s at maxRunes, cutting on a word boundary when one
// is close to the limit and marking the cut with an ellipsis.
func TruncateDescription(s string, maxRunes int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	if maxRunes <= 1 {
		return string(r[:maxRunes])
	}

	cut := r[:maxRunes-1]
	if i := lastSpace(cut); i >= len(cut)-40 && i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(string(cut), " ,;:.-") + "…"
}

func lastSpace(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == ' ' {
			return i
		}
	}
	return -1
}

// plausiblyDerived reports whether most content words of generated appear,
// exactly or by stem, in the base description or the contextual text.
func plausiblyDerived(generated, base, contextual string) bool {
	words := map[string]bool{}
	stems := map[string]bool{}
	for _, w := range strings.Fields(normalizeText(base + " " + contextual)) {
		words[w] = true
		stems[stem(w)] = true
	}

	total, found := 0, 0
	for _, w := range strings.Fields(normalizeText(generated)) {
		if utf8.RuneCountInString(w) < contentWordLength {
			continue
		}
		total++
		if words[w] || stems[stem(w)] {
			found++
		}
	}

	if total == 0 {
		return true
	}
	return float64(found)/float64(total) >= minDerivedCoverage
}

func stem(w string) string {
	r := []rune(w)
	if len(r) > stemLength {
		r = r[:stemLength]
	}
	return string(r)
}
