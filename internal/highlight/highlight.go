// Package highlight selects evidence sentences from a document by keyword
// overlap, independent of any language model.
package highlight

import "strings"

const (
	// MaxSentences is the number of matching sentences returned.
	MaxSentences = 3
	// ExcerptRunes is the length of the generic excerpt used when nothing matches.
	ExcerptRunes = 500
)

// Highlight returns up to MaxSentences sentences of doc that contain any
// query word as a case-insensitive substring, joined by ". ". Sentences are
// split naively on '.'. When no sentence matches, the first ExcerptRunes
// runes of doc are returned.
func Highlight(doc, query string) string {
	words := strings.Fields(strings.ToLower(query))

	var matches []string
	if len(words) > 0 {
		for _, sentence := range strings.Split(doc, ".") {
			lower := strings.ToLower(sentence)
			if containsAny(lower, words) {
				matches = append(matches, strings.TrimSpace(sentence))
				if len(matches) == MaxSentences {
					break
				}
			}
		}
	}

	if len(matches) > 0 {
		return strings.Join(matches, ". ")
	}
	return Prefix(doc, ExcerptRunes)
}

// Prefix returns the first n runes of s.
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
