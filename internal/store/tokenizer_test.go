package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "plain words",
			input: "quick brown fox",
			want:  []string{"quick", "brown", "fox"},
		},
		{
			name:  "camelCase splits",
			input: "parseRequest",
			want:  []string{"parse", "request"},
		},
		{
			name:  "acronym runs stay together",
			input: "parseHTTPRequest",
			want:  []string{"parse", "http", "request"},
		},
		{
			name:  "snake_case splits",
			input: "retry_backoff_ms",
			want:  []string{"retry", "backoff", "ms"},
		},
		{
			name:  "punctuation separates",
			input: "foo-bar.baz",
			want:  []string{"foo", "bar", "baz"},
		},
		{
			name:  "single-rune fragments dropped",
			input: "a b cd",
			want:  []string{"cd"},
		},
		{
			name:  "digits kept",
			input: "x86_64 sha256",
			want:  []string{"x86", "64", "sha256"},
		},
		{
			name:  "lowercased",
			input: "ERROR Timeout",
			want:  []string{"error", "timeout"},
		},
		{
			name:  "cjk emitted per rune",
			input: "日本語",
			want:  []string{"日", "本", "語"},
		},
		{
			name:  "cjk mixed with latin",
			input: "設定config",
			want:  []string{"設", "定", "config"},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.input))
		})
	}
}

func TestSplitCamelCase(t *testing.T) {
	// Given identifiers with mixed casing conventions
	assert.Equal(t, []string{"get", "User", "ID"}, splitCamelCase("getUserID"))
	assert.Equal(t, []string{"HTTP", "Server"}, splitCamelCase("HTTPServer"))
	assert.Equal(t, []string{"simple"}, splitCamelCase("simple"))
	assert.Nil(t, splitCamelCase(""))
}
