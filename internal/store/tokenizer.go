package store

import (
	"strings"
	"unicode"
)

// Tokenize splits text with word-boundary rules: runs of Unicode letters,
// digits and underscores form raw words, CJK ideographs are emitted as
// single-rune tokens, and raw words are further split on snake_case and
// camelCase boundaries. All tokens are lowercased; non-CJK tokens shorter
// than two runes are dropped.
func Tokenize(text string) []string {
	var tokens []string
	var current []rune

	flush := func() {
		if len(current) == 0 {
			return
		}
		tokens = append(tokens, splitWord(string(current))...)
		current = current[:0]
	}

	for _, r := range text {
		switch {
		case isCJK(r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			current = append(current, r)
		default:
			flush()
		}
	}
	flush()

	return tokens
}

// splitWord breaks a raw word on underscores and camelCase boundaries,
// lowercases the pieces and filters out single-rune fragments.
func splitWord(word string) []string {
	var out []string
	for _, part := range strings.Split(word, "_") {
		for _, sub := range splitCamelCase(part) {
			lower := strings.ToLower(sub)
			if len([]rune(lower)) >= 2 {
				out = append(out, lower)
			}
		}
	}
	return out
}

// splitCamelCase splits camelCase and PascalCase identifiers, keeping
// acronym runs together ("parseHTTPRequest" -> parse, HTTP, Request).
func splitCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	var current strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevIsLower := unicode.IsLower(runes[i-1])
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevIsLower || nextIsLower {
				if current.Len() > 0 {
					result = append(result, current.String())
					current.Reset()
				}
			}
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}

// isCJK reports whether r is a CJK ideograph or kana character.
func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
