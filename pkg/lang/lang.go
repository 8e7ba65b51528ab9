// Package lang holds the bilingual (English/Arabic) text helpers shared by the
// routing components: language detection, normalization and term matching.
package lang

import (
	"errors"
	"fmt"
	"regexp"
	"unicode"

	"golang.org/x/text/language"
)

// Code is a supported conversation language.
type Code string

const (
	English Code = "en"
	Arabic  Code = "ar"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

var arabicPattern = regexp.MustCompile(`[\x{0600}-\x{06FF}\x{0750}-\x{077F}\x{08A0}-\x{08FF}]`)

// Parse accepts BCP 47 tags ("en", "en-US", "ar-AE") and maps them onto a
// supported Code.
func Parse(s string) (Code, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
	base, _ := tag.Base()
	switch base.String() {
	case "en":
		return English, nil
	case "ar":
		return Arabic, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
}

// Valid reports whether c is one of the supported codes.
func (c Code) Valid() bool {
	return c == English || c == Arabic
}

// OrDefault returns c, or English when c is empty or unsupported.
func (c Code) OrDefault() Code {
	if c.Valid() {
		return c
	}
	return English
}

// Detect returns Arabic when the text contains any Arabic-script character.
func Detect(text string) Code {
	if arabicPattern.MatchString(text) {
		return Arabic
	}
	return English
}

// HasArabicScript reports whether s contains Arabic-script characters.
func HasArabicScript(s string) bool {
	return arabicPattern.MatchString(s)
}

// Matches reports whether a generated reply is written in the expected
// language. Digits, punctuation and short Latin acronyms (VAT, TRN, AED) are
// tolerated inside Arabic replies.
func Matches(text string, want Code) bool {
	var arabic, latin int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Arabic, r) && unicode.IsLetter(r):
			arabic++
		case unicode.Is(unicode.Latin, r):
			latin++
		}
	}
	letters := arabic + latin
	if letters == 0 {
		return true
	}
	ratio := float64(arabic) / float64(letters)
	if want == Arabic {
		return ratio >= 0.3
	}
	return ratio < 0.5
}
