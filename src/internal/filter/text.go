// FILE: logvault/src/internal/filter/text.go
package filter

import (
	"strings"
	"unicode"
)

// TextQuery is a parsed full-text search string.
// Terms are OR-ed, every phrase must appear, and negated terms must not appear.
type TextQuery struct {
	Raw     string
	Terms   []string
	Phrases []string
	Negated []string
}

// ParseText splits a search string into terms, quoted phrases and -negations
func ParseText(search string) TextQuery {
	q := TextQuery{Raw: search}

	rest := search
	for {
		start := strings.IndexByte(rest, '"')
		if start < 0 {
			break
		}
		end := strings.IndexByte(rest[start+1:], '"')
		if end < 0 {
			// Unterminated quote, treat the remainder as a phrase
			if phrase := strings.TrimSpace(rest[start+1:]); phrase != "" {
				q.Phrases = append(q.Phrases, strings.ToLower(phrase))
			}
			rest = rest[:start]
			break
		}
		if phrase := strings.TrimSpace(rest[start+1 : start+1+end]); phrase != "" {
			q.Phrases = append(q.Phrases, strings.ToLower(phrase))
		}
		rest = rest[:start] + " " + rest[start+1+end+1:]
	}

	for _, word := range strings.Fields(rest) {
		if strings.HasPrefix(word, "-") {
			for _, tok := range tokenize(word[1:]) {
				q.Negated = append(q.Negated, tok)
			}
			continue
		}
		q.Terms = append(q.Terms, tokenize(word)...)
	}

	return q
}

// Match reports whether the text satisfies the query
func (q TextQuery) Match(text string) bool {
	if len(q.Terms) == 0 && len(q.Phrases) == 0 {
		return false
	}

	lower := strings.ToLower(text)
	tokens := make(map[string]struct{})
	for _, tok := range tokenize(lower) {
		tokens[tok] = struct{}{}
	}

	for _, neg := range q.Negated {
		if _, ok := tokens[neg]; ok {
			return false
		}
	}

	for _, phrase := range q.Phrases {
		if !strings.Contains(lower, phrase) {
			return false
		}
	}

	if len(q.Terms) == 0 {
		return true
	}
	for _, term := range q.Terms {
		if _, ok := tokens[term]; ok {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the query has nothing to search for
func (q TextQuery) IsEmpty() bool {
	return len(q.Terms) == 0 && len(q.Phrases) == 0 && len(q.Negated) == 0
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
