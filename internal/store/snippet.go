package store

import "strings"

const (
	// snippetWindow is the snippet length in runes.
	snippetWindow = 300
	// snippetLead is how many runes of context precede the first match.
	snippetLead = 40
	ellipsis    = "..."
)

// BuildSnippet extracts a display window from content around the first
// occurrence of any token. When no token occurs, the window is taken from
// the start of the document. Ellipses mark a window that does not reach the
// document's start or end. When pre and post are both non-empty, every token
// occurrence inside the window is wrapped with them.
func BuildSnippet(content string, tokens []string, pre, post string) string {
	runes := []rune(content)
	if len(runes) == 0 {
		return ""
	}

	start := 0
	if idx := firstTokenIndex(runes, tokens); idx > snippetLead {
		start = idx - snippetLead
	}

	end := start + snippetWindow
	if end > len(runes) {
		end = len(runes)
		if end-snippetWindow > 0 {
			start = end - snippetWindow
		} else {
			start = 0
		}
	}

	snippet := string(runes[start:end])
	if pre != "" && post != "" {
		snippet = highlightTokens(snippet, tokens, pre, post)
	}

	if start > 0 {
		snippet = ellipsis + snippet
	}
	if end < len(runes) {
		snippet += ellipsis
	}
	return snippet
}

// firstTokenIndex returns the rune offset of the earliest case-insensitive
// token occurrence, or -1 when none matches.
func firstTokenIndex(runes []rune, tokens []string) int {
	lower := strings.ToLower(string(runes))
	best := -1
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		byteIdx := strings.Index(lower, strings.ToLower(tok))
		if byteIdx < 0 {
			continue
		}
		runeIdx := len([]rune(lower[:byteIdx]))
		if best == -1 || runeIdx < best {
			best = runeIdx
		}
	}
	return best
}

// highlightTokens wraps each case-insensitive token occurrence with the
// given markers, preserving the original casing of the matched text.
func highlightTokens(s string, tokens []string, pre, post string) string {
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		s = wrapOccurrences(s, tok, pre, post)
	}
	return s
}

func wrapOccurrences(s, token, pre, post string) string {
	lower := strings.ToLower(s)
	lowerTok := strings.ToLower(token)

	var b strings.Builder
	offset := 0
	for {
		idx := strings.Index(lower[offset:], lowerTok)
		if idx < 0 {
			b.WriteString(s[offset:])
			break
		}
		abs := offset + idx
		end := abs + len(lowerTok)
		b.WriteString(s[offset:abs])
		b.WriteString(pre)
		b.WriteString(s[abs:end])
		b.WriteString(post)
		offset = end
	}
	return b.String()
}
