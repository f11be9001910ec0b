package stt

import "strings"

// CleanQuestion removes every occurrence of each wake phrase, in order, then
// trims leading punctuation and surrounding whitespace. Matching is a
// case-sensitive substring match, so "pod" is also removed from inside words.
func CleanQuestion(raw string, wakePhrases []string) string {
	q := strings.TrimSpace(raw)
	for _, phrase := range wakePhrases {
		if phrase == "" {
			continue
		}
		q = strings.TrimSpace(strings.ReplaceAll(q, phrase, ""))
	}
	q = strings.TrimLeft(q, ".,!? ")
	return strings.TrimSpace(q)
}
