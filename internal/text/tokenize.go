package text

import (
	"strings"
	"unicode"
)

// stopwords are excluded from topic-tag extraction. Immutable after init.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "and", "for", "are", "but", "not", "you", "all", "can", "had",
		"her", "was", "one", "our", "out", "his", "has", "have", "him", "she",
		"they", "them", "their", "this", "that", "these", "those", "with",
		"will", "would", "could", "should", "what", "when", "where", "which",
		"who", "whom", "why", "how", "just", "like", "get", "got", "going",
		"gonna", "yeah", "yes", "nah", "okay", "lol", "haha", "about", "from",
		"into", "over", "then", "than", "there", "here", "been", "being",
		"were", "its", "it's", "i'm", "don't", "didn't", "can't", "won't",
		"really", "very", "also", "some", "any", "more", "most", "much",
		"know", "think", "did", "does", "doing", "because", "still",
	} {
		stopwords[w] = struct{}{}
	}
}

// IsStopword reports whether tok is in the fixed stopword set.
func IsStopword(tok string) bool {
	_, ok := stopwords[tok]
	return ok
}

// Tokenize splits s into lowercase runs of letters, digits, and apostrophes,
// dropping tokens shorter than minLen runes. This is the single tokenizer
// shared by the summarizer, the deterministic embedder, and the rankers so
// their notions of "token" never drift apart.
func Tokenize(s string, minLen int) []string {
	var tokens []string
	var b strings.Builder

	flush := func() {
		if b.Len() == 0 {
			return
		}
		tok := b.String()
		b.Reset()
		if len([]rune(tok)) >= minLen {
			tokens = append(tokens, tok)
		}
	}

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()

	return tokens
}

// UniqueTokens returns the distinct tokens of s with at least minLen runes,
// preserving first-seen order.
func UniqueTokens(s string, minLen int) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, tok := range Tokenize(s, minLen) {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// Truncate shortens s to at most max runes, replacing the tail with "..."
// when it has to cut. Strings within the bound come back untouched.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
