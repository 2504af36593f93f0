package scoring

import (
	"math"
	"strings"
)

// typographyReplacer maps cosmetic typography onto plain ASCII so curly
// quotes, long dashes and ellipses never cost a player accuracy.
var typographyReplacer = strings.NewReplacer(
	"–", "-", // en dash
	"—", "-", // em dash
	"…", "...",
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
)

// Normalize trims surrounding whitespace and flattens typography before
// two strings are compared.
func Normalize(s string) string {
	return typographyReplacer.Replace(strings.TrimSpace(s))
}

// ComputeAccuracy scores typed against target word by word and returns a
// rounded percentage of matched target words. A target with no words
// scores 0.
func ComputeAccuracy(target, typed string) int {
	targetWords := strings.Fields(Normalize(target))
	typedWords := strings.Fields(Normalize(typed))

	if len(targetWords) == 0 {
		return 0
	}

	correct := 0
	n := len(targetWords)
	if len(typedWords) < n {
		n = len(typedWords)
	}
	for i := 0; i < n; i++ {
		if targetWords[i] == typedWords[i] {
			correct++
		}
	}

	return int(math.Round(float64(correct) / float64(len(targetWords)) * 100))
}

// ComputeWPM converts typed text and an elapsed duration in seconds to a
// rounded words-per-minute figure. Elapsed time is floored at one second
// so tiny or broken durations cannot inflate the result.
func ComputeWPM(typed string, elapsedSeconds float64) int {
	wordCount := len(strings.Fields(typed))

	if math.IsNaN(elapsedSeconds) || elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	minutes := elapsedSeconds / 60
	if minutes < 1.0/60 {
		minutes = 1.0 / 60
	}

	return int(math.Round(float64(wordCount) / minutes))
}
