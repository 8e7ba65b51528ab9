package lang

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var arabicFolder = strings.NewReplacer(
	"أ", "ا", "إ", "ا", "آ", "ا", "ٱ", "ا",
	"ى", "ي", "ة", "ه", "ـ", "",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
)

// Normalize case-folds s, unifies Arabic letter variants and digits, drops
// diacritics, turns punctuation into spaces and collapses whitespace.
func Normalize(s string) string {
	folded := cases.Fold().String(s)
	folded = arabicFolder.Replace(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.Is(unicode.Mn, r):
			// harakat and other combining marks
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Text is a query prepared once for repeated term lookups.
type Text struct {
	Raw    string
	Norm   string
	Tokens []string
}

// Prepare normalizes raw for matching.
func Prepare(raw string) Text {
	norm := Normalize(raw)
	return Text{Raw: raw, Norm: norm, Tokens: strings.Fields(norm)}
}

// Empty reports whether nothing is left after normalization.
func (t Text) Empty() bool {
	return len(t.Tokens) == 0
}

// Has reports whether the normalized term occurs in the text. Latin terms
// match on whole tokens, allowing a trailing plural "s" or "es" on the last
// word. Arabic terms may carry one attached proclitic (ال, و, ب, ...) on the
// first word and any suffix on the last.
func (t Text) Has(term string) bool {
	if term == "" {
		return false
	}
	words := strings.Fields(term)
	n := len(words)
	arabic := HasArabicScript(term)
	for i := 0; i+n <= len(t.Tokens); i++ {
		if arabic {
			if matchArabic(t.Tokens[i:i+n], words) {
				return true
			}
			continue
		}
		ok := true
		for j := 0; j < n-1; j++ {
			if t.Tokens[i+j] != words[j] {
				ok = false
				break
			}
		}
		if ok && inflectionOf(t.Tokens[i+n-1], words[n-1]) {
			return true
		}
	}
	return false
}

// HasAny returns the first of terms found in the text.
func (t Text) HasAny(terms []string) (string, bool) {
	for _, term := range terms {
		if t.Has(term) {
			return term, true
		}
	}
	return "", false
}

func inflectionOf(token, word string) bool {
	if token == word {
		return true
	}
	if !strings.HasPrefix(token, word) {
		return false
	}
	suffix := token[len(word):]
	return suffix == "s" || suffix == "es"
}

var proclitics = []string{"وال", "بال", "فال", "كال", "لل", "ال", "و", "ب", "ل", "ف", "ك"}

func matchArabic(tokens, words []string) bool {
	n := len(words)
	for j := 1; j < n-1; j++ {
		if tokens[j] != words[j] {
			return false
		}
	}
	first := func(tok string) bool {
		if n == 1 {
			return strings.HasPrefix(tok, words[0])
		}
		return tok == words[0]
	}
	if n > 1 && !strings.HasPrefix(tokens[n-1], words[n-1]) {
		return false
	}
	if first(tokens[0]) {
		return true
	}
	for _, p := range proclitics {
		rest, ok := strings.CutPrefix(tokens[0], p)
		if ok && len([]rune(rest)) >= 2 && first(rest) {
			return true
		}
	}
	return false
}
