package merge

import (
	"regexp"
	"strings"
)

// Weights holds the vector/keyword mix for a hybrid search. The pair always
// sums to 1.0.
type Weights struct {
	Vector  float64
	Keyword float64
}

// Baseline and biased weight mixes used by AdjustWeights.
var (
	defaultWeights = Weights{Vector: 0.7, Keyword: 0.3}
	keywordWeights = Weights{Vector: 0.3, Keyword: 0.7}
	vectorWeights  = Weights{Vector: 0.85, Keyword: 0.15}
)

// Compiled patterns for query-shape detection.
var (
	// Error codes: ERR_*, E0001, ABC123, FooException
	errorCodePattern = regexp.MustCompile(`(?i)^(ERR_\w+|E\d{4,5}|[A-Z]{2,}\d{3,}|\w+Exception)$`)

	// Quoted exact phrases: "..." or '...'
	quotedPattern = regexp.MustCompile(`^["'].*["']$`)

	// File paths with a recognizable extension
	filePathPattern = regexp.MustCompile(`(?i)^[\w\-\./\\]+\.(go|ts|tsx|js|jsx|py|md|json|yaml|yml|toml|css|scss|html|rs|java|kt|c|cpp|h|hpp|rb|php|swift|sh|bash|zsh)$`)

	// Technical identifiers
	camelCasePattern      = regexp.MustCompile(`^[a-z]+([A-Z][a-z0-9]*)+$`)
	pascalCasePattern     = regexp.MustCompile(`^([A-Z][a-z0-9]*){2,}$`)
	snakeCasePattern      = regexp.MustCompile(`^[a-z]+(_[a-z0-9]+)+$`)
	screamingSnakePattern = regexp.MustCompile(`^[A-Z]+(_[A-Z0-9]+)+$`)

	// Natural language starters (questions, commands)
	naturalLanguagePattern = regexp.MustCompile(`(?i)^(how|what|where|why|when|which|can|does|is|are|should|explain|describe|show|find|list)\s`)
)

// DefaultWeights returns the baseline vector/keyword mix.
func DefaultWeights() Weights {
	return defaultWeights
}

// AdjustWeights picks a weight mix from the shape of the query. Exact-match
// shapes (quoted phrases, error codes, file paths, code identifiers) bias
// toward the keyword path; natural-language questions and long prose bias
// toward the vector path. Everything else keeps the baseline.
func AdjustWeights(query string) Weights {
	query = strings.TrimSpace(query)
	if query == "" {
		return defaultWeights
	}

	if isExactMatchQuery(query) {
		return keywordWeights
	}
	if isNaturalLanguageQuery(query) {
		return vectorWeights
	}
	return defaultWeights
}

func isExactMatchQuery(query string) bool {
	if quotedPattern.MatchString(query) {
		return true
	}
	if errorCodePattern.MatchString(query) {
		return true
	}
	if filePathPattern.MatchString(query) {
		return true
	}

	// Identifier shapes only apply to single-word queries.
	if !strings.Contains(query, " ") {
		if camelCasePattern.MatchString(query) ||
			pascalCasePattern.MatchString(query) ||
			snakeCasePattern.MatchString(query) ||
			screamingSnakePattern.MatchString(query) {
			return true
		}
	}
	return false
}

func isNaturalLanguageQuery(query string) bool {
	if naturalLanguagePattern.MatchString(query) {
		return true
	}
	// Long prose queries without identifier shapes read as conceptual.
	return len(strings.Fields(query)) >= 5
}
