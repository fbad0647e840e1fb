package stream_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/chatgraph/stream"
)

func feed(tokens []string) []string {
	var agg stream.Aggregator
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, agg.Update(tok))
	}
	return out
}

func TestAggregator_Progression(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   []string
	}{
		{
			name:   "split word then spaced word",
			tokens: []string{"Hel", "lo", " world"},
			want:   []string{"Hel", "Hello", "Hello world"},
		},
		{
			name:   "final answer tokens",
			tokens: []string{"It's", " 18°C", " and sunny", " in Paris."},
			want: []string{
				"It's",
				"It's 18°C",
				"It's 18°C and sunny",
				"It's 18°C and sunny in Paris.",
			},
		},
		{
			name:   "first token leading space stripped",
			tokens: []string{"  Hi"},
			want:   []string{"Hi"},
		},
		{
			name:   "token after trailing whitespace",
			tokens: []string{"one ", "  two"},
			want:   []string{"one ", "one two"},
		},
		{
			name:   "empty token",
			tokens: []string{"a", "", "b"},
			want:   []string{"a", "a", "a b"},
		},
		{
			name:   "whitespace-only token after word",
			tokens: []string{"a", " ", "b"},
			want:   []string{"a", "a ", "a b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feed(tt.tokens)
			if !slices.Equal(got, tt.want) {
				t.Errorf("progression = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAggregator_Monotonic(t *testing.T) {
	sequences := [][]string{
		{"The", " quick", " bro", "wn", " fox", "\n", "jumps"},
		{" ", "", "a", " b", "c ", " ", "d"},
		{"naïve", " café", "s"},
	}

	for _, tokens := range sequences {
		prev := ""
		for i, out := range feed(tokens) {
			if len(out) < len(prev) {
				t.Errorf("%q: output shrank at token %d: %q -> %q", tokens, i, prev, out)
			}
			if !strings.HasPrefix(out, prev) {
				t.Errorf("%q: output %q does not extend %q", tokens, out, prev)
			}
			prev = out
		}
	}
}
