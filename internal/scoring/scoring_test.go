package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeAccuracy(t *testing.T) {
	tests := []struct {
		name   string
		target string
		typed  string
		want   int
	}{
		{"exact match", "the quick brown fox", "the quick brown fox", 100},
		{"empty target", "", "anything", 0},
		{"empty typed", "the quick brown fox", "", 0},
		{"half right", "one two three four", "one two x y", 50},
		{"typed shorter", "one two three four", "one two", 50},
		{"typed longer", "one two", "one two three four", 100},
		{"positional mismatch", "one two three", "two three one", 0},
		{"rounding", "a b c", "a b x", 67},
		{"extra whitespace", "  hello   world  ", "hello world", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeAccuracy(tt.target, tt.typed))
		})
	}
}

func TestComputeAccuracyBounds(t *testing.T) {
	targets := []string{"", "a", "a b c d e", "the quick brown fox"}
	typed := []string{"", "a", "z z z z z z z z", "the quick brown fox"}

	for _, target := range targets {
		for _, input := range typed {
			got := ComputeAccuracy(target, input)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		}
	}
}

func TestComputeAccuracyNormalizesTypography(t *testing.T) {
	target := "it’s a “good” day — really…"
	typed := `it's a "good" day - really...`
	assert.Equal(t, 100, ComputeAccuracy(target, typed))
}

func TestComputeWPM(t *testing.T) {
	assert.Equal(t, 60, ComputeWPM("a b c d e f g h i j k l m n o p q r s t u v w x y z aa bb cc dd", 30))
	assert.Equal(t, 10, ComputeWPM("one two three four five six seven eight nine ten", 60))
	assert.Equal(t, 0, ComputeWPM("", 60))
}

func TestComputeWPMFloorsTinyElapsed(t *testing.T) {
	// Sub-second and broken durations all use the one second floor.
	words := "one two three"
	floor := ComputeWPM(words, 1)
	assert.Equal(t, floor, ComputeWPM(words, 0))
	assert.Equal(t, floor, ComputeWPM(words, 0.01))
	assert.Equal(t, floor, ComputeWPM(words, -5))
}

func TestComputeWPMMonotonic(t *testing.T) {
	// Non-decreasing in word count for fixed elapsed time.
	text := ""
	prev := 0
	for i := 0; i < 20; i++ {
		text += "word "
		got := ComputeWPM(text, 30)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}

	// Non-increasing in elapsed time for fixed word count.
	prev = ComputeWPM(text, 1)
	for secs := 2.0; secs <= 120; secs += 7 {
		got := ComputeWPM(text, secs)
		assert.LessOrEqual(t, got, prev)
		prev = got
	}
}
