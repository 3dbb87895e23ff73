package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristic_Estimate(t *testing.T) {
	h := Heuristic{}

	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"single word", "hello", 1},             // 1 × 1.3 truncated
		{"ten words", "a b c d e f g h i j", 13}, // 10 × 1.3
		{"whitespace runs", "  two   words  ", 2},
		{"newlines count as separators", "one\ntwo\nthree", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.Estimate(tt.text))
		})
	}
}

func TestHeuristic_CustomRatio(t *testing.T) {
	h := Heuristic{Ratio: 2.0}
	assert.Equal(t, 8, h.Estimate("a b c d"))
}

func TestTiktoken_Estimate(t *testing.T) {
	tk, err := NewTiktoken()
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}

	require.Equal(t, 0, tk.Estimate(""))
	assert.Greater(t, tk.Estimate("hello world"), 0)
	// More text never yields fewer tokens.
	assert.GreaterOrEqual(t,
		tk.Estimate("hello world hello world hello world"),
		tk.Estimate("hello world"))
}
