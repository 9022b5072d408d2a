package ticker

import (
	"strings"
	"unicode"
)

// Resolve extracts the subject ticker from a free-text question.
// Two ordered passes, first match wins:
//  1. tokenize into letter runs, uppercase, exact registry membership;
//  2. lowercase the question, earliest alias-table substring match.
//
// Registry literals beat aliases; within a pass the leftmost occurrence in
// the question wins. Returns ("", false) when nothing matches.
func (r *Registry) Resolve(question string) (Symbol, bool) {
	for _, tok := range letterRuns(question) {
		s := strings.ToUpper(tok)
		if r.Contains(s) {
			return s, true
		}
	}

	ql := strings.ToLower(question)
	best := -1
	var bestSym Symbol
	for _, a := range r.aliases {
		idx := strings.Index(ql, a.Name)
		if idx < 0 {
			continue
		}
		if best < 0 || idx < best {
			best = idx
			bestSym = a.Symbol
		}
	}
	if best >= 0 {
		return bestSym, true
	}

	return "", false
}

// letterRuns splits s into maximal runs of letters.
func letterRuns(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
