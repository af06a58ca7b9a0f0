package search

import (
	"strings"
	"unicode/utf8"
)

// Stop words ignored when reporting verbatim term matches
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true,
}

// Truncate cuts query to at most limit runes. It reports whether anything
// was removed. A limit of zero or less disables truncation.
func Truncate(query string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(query) <= limit {
		return query, false
	}
	i := 0
	for pos := range query {
		if i == limit {
			return query[:pos], true
		}
		i++
	}
	return query, false
}

// terms lowercases text, trims punctuation, and drops stop words.
func terms(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		cleaned := strings.ToLower(strings.Trim(field, ".,!?;:'\"-()[]{}"))
		if cleaned != "" && !stopWords[cleaned] {
			out = append(out, cleaned)
		}
	}
	return out
}

// matchedTerms returns the distinct query terms that appear in document.
func matchedTerms(document, query string) []string {
	queryTerms := terms(query)
	if len(queryTerms) == 0 {
		return nil
	}
	present := make(map[string]bool)
	for _, term := range terms(document) {
		present[term] = true
	}

	var matched []string
	seen := make(map[string]bool, len(queryTerms))
	for _, term := range queryTerms {
		if present[term] && !seen[term] {
			matched = append(matched, term)
			seen[term] = true
		}
	}
	return matched
}
