// Package services contains domain business logic.
package services

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// containmentFloor is the least score of a description whose whole text
	// appears, word for word, inside the other one.
	containmentFloor = 0.85
	// containmentSpan spreads contained phrases above the floor by their bigram
	// overlap. floor+span stays below 1 so only equal texts score 1.
	containmentSpan = 0.1
	// minContainedRunes keeps tiny fragments from counting as containment.
	minContainedRunes = 4
)

// Score returns the textual similarity of two event descriptions in [0,1].
//
// Descriptions are accent-folded, lowercased and stripped of punctuation;
// equal normalized forms score 1, otherwise the Sørensen-Dice coefficient of
// their character bigrams is used. When the shorter description appears as a
// whole-word phrase inside the longer one ("Despacho" in "Despacho judicial
// determinando nova data"), the score is lifted to at least containmentFloor.
// Score is symmetric, Score(a, a) == 1, and a blank description never matches
// a non-blank one.
func Score(a, b string) float64 {
	if a == b {
		return 1
	}
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0
	}

	na, nb := normalizeText(a), normalizeText(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	gramsA, countA := bigrams(na)
	gramsB, countB := bigrams(nb)
	if countA == 0 || countB == 0 {
		return 0
	}

	shared := 0
	for gram, n := range gramsA {
		if m := gramsB[gram]; m > 0 {
			shared += min(n, m)
		}
	}

	dice := 2 * float64(shared) / float64(countA+countB)
	if containsPhrase(na, nb) {
		return max(dice, containmentFloor+containmentSpan*dice)
	}
	return dice
}

// containsPhrase reports whether the shorter of two normalized texts occurs in
// the longer one on word boundaries.
func containsPhrase(na, nb string) bool {
	short, long := na, nb
	if len(short) > len(long) {
		short, long = long, short
	}
	if utf8.RuneCountInString(strings.ReplaceAll(short, " ", "")) < minContainedRunes {
		return false
	}
	return strings.Contains(" "+long+" ", " "+short+" ")
}

// normalizeText folds accents, lowercases, and reduces every run of
// non-alphanumeric characters to a single space.
func normalizeText(s string) string {
	// Transformer chains keep state, so each call builds its own.
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// bigrams returns the multiset of adjacent rune pairs, ignoring spaces.
func bigrams(s string) (map[string]int, int) {
	r := []rune(strings.ReplaceAll(s, " ", ""))
	if len(r) < 2 {
		return nil, 0
	}

	grams := make(map[string]int, len(r)-1)
	for i := 0; i < len(r)-1; i++ {
		grams[string(r[i:i+2])]++
	}
	return grams, len(r) - 1
}
