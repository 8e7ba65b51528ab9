package router

import (
	"regexp"
	"strconv"

	"einvoice-assistant-be/pkg/lang"
	"einvoice-assistant-be/pkg/store"
	"einvoice-assistant-be/pkg/taxonomy"
)

// SelectionType indicates how a clarification reply picked a candidate
type SelectionType string

const (
	SelectionOrdinal SelectionType = "ordinal"
	SelectionName    SelectionType = "name"
	SelectionConfirm SelectionType = "confirm"
)

// Selection is a clarification reply matched to one offered candidate.
type Selection struct {
	Type      SelectionType
	Index     int // zero based
	Candidate store.Candidate
}

// 1st, 2nd, 3rd, 4th ...
var numberedPattern = regexp.MustCompile(`^([0-9]+)(st|nd|rd|th)?$`)

var ordinalWords = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"two": 2, "three": 3, "four": 4, "five": 5,
	"اول": 1, "الاول": 1, "الاولي": 1, "اولا": 1, "واحد": 1,
	"الثاني": 2, "الثانيه": 2, "ثاني": 2, "اثنان": 2, "اثنين": 2,
	"الثالث": 3, "الثالثه": 3, "ثالث": 3, "ثلاثه": 3,
	"الرابع": 4, "الرابعه": 4, "اربعه": 4,
}

// These pick whichever candidate was offered last.
var lastWords = map[string]bool{"last": true, "final": true, "الاخير": true, "الاخيره": true, "اخير": true}

var confirmWords = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "ok": true, "okay": true, "sure": true, "correct": true, "right": true,
	"نعم": true, "اجل": true, "صحيح": true, "موافق": true, "تمام": true,
}

var fillerWords = map[string]bool{
	"the": true, "a": true, "an": true, "one": true, "option": true, "choice": true, "number": true, "no": true,
	"pick": true, "choose": true, "select": true, "take": true, "use": true, "go": true, "with": true,
	"i": true, "want": true, "mean": true, "meant": true, "please": true, "lets": true, "s": true,
	"رقم": true, "الخيار": true, "خيار": true, "اختر": true, "اختار": true, "اريد": true, "من": true, "فضلك": true,
	"لو": true, "سمحت": true, "الرقم": true,
}

// ParseSelection matches a clarification reply against the offered
// candidates by ordinal ("the first one", "2", "#3", "الثاني", "last"),
// by a confirmation when a single candidate was offered, or by a table or
// domain name that identifies exactly one candidate.
func ParseSelection(reply string, candidates []store.Candidate, tx *taxonomy.Taxonomy) (Selection, bool) {
	if len(candidates) == 0 {
		return Selection{}, false
	}
	text := lang.Prepare(reply)
	if text.Empty() {
		return Selection{}, false
	}

	if idx, ok := ordinalOf(text.Tokens, len(candidates)); ok {
		return Selection{Type: SelectionOrdinal, Index: idx, Candidate: candidates[idx]}, true
	}
	if len(candidates) == 1 && confirms(text.Tokens) {
		return Selection{Type: SelectionConfirm, Index: 0, Candidate: candidates[0]}, true
	}
	if idx, ok := nameOf(text, candidates, tx); ok {
		return Selection{Type: SelectionName, Index: idx, Candidate: candidates[idx]}, true
	}
	return Selection{}, false
}

// ordinalOf requires the reply to consist of one ordinal plus filler words,
// so "the first quarter revenue" is not taken as a pick.
func ordinalOf(tokens []string, n int) (int, bool) {
	pos := 0
	hasOne := false
	for _, tok := range tokens {
		var v int
		switch {
		case lastWords[tok]:
			v = n
		case ordinalWords[tok] > 0:
			v = ordinalWords[tok]
		case numberedPattern.MatchString(tok):
			v, _ = strconv.Atoi(numberedPattern.FindStringSubmatch(tok)[1])
		case tok == "one":
			hasOne = true
			continue
		case fillerWords[tok]:
			continue
		default:
			return 0, false
		}
		if pos != 0 && pos != v {
			return 0, false
		}
		pos = v
	}
	// "one" on its own means the first option; next to an ordinal it is filler.
	if pos == 0 && hasOne {
		pos = 1
	}
	if pos < 1 || pos > n {
		return 0, false
	}
	return pos - 1, true
}

func confirms(tokens []string) bool {
	found := false
	for _, tok := range tokens {
		switch {
		case confirmWords[tok]:
			found = true
		case fillerWords[tok]:
		default:
			return false
		}
	}
	return found
}

// nameOf scores each candidate by how many of its sides (table, domain) the
// reply names and returns the single best one.
func nameOf(text lang.Text, candidates []store.Candidate, tx *taxonomy.Taxonomy) (int, bool) {
	best, bestIdx, tie := 0, -1, false
	for i, cand := range candidates {
		score := 0
		if t, ok := tx.Table(cand.TableID); ok {
			if _, hit := text.HasAny(names(t.Aliases(), t.Vocabulary())); hit {
				score++
			}
		}
		if d, ok := tx.Domain(cand.DomainID); ok {
			if _, hit := text.HasAny(names(d.Aliases(), d.Vocabulary())); hit {
				score++
			}
		}
		switch {
		case score > best:
			best, bestIdx, tie = score, i, false
		case score == best && score > 0:
			tie = true
		}
	}
	if bestIdx < 0 || tie {
		return 0, false
	}
	return bestIdx, true
}

// names extends display aliases with the full-weight keywords, so "invoice"
// picks the Invoices option.
func names(aliases []string, vocab []taxonomy.Term) []string {
	out := append([]string(nil), aliases...)
	for _, term := range vocab {
		if term.Weight >= taxonomy.KeywordWeight {
			out = append(out, term.Text)
		}
	}
	return out
}
