package constants

import (
	"strings"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyMixed  Difficulty = "mixed"
)

var allDifficulties = []Difficulty{
	DifficultyEasy,
	DifficultyMedium,
	DifficultyHard,
	DifficultyMixed,
}

func DifficultiesAsStringSlice() []string {
	result := make([]string, len(allDifficulties))
	for i, d := range allDifficulties {
		result[i] = string(d)
	}
	return result
}

// CanonicalizeDifficulty maps user input onto a known level. Unknown input yields medium.
func CanonicalizeDifficulty(input string) (Difficulty, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return DifficultyMedium, false
	}

	synonyms := map[string]Difficulty{
		"beginner":     DifficultyEasy,
		"simple":       DifficultyEasy,
		"intermediate": DifficultyMedium,
		"normal":       DifficultyMedium,
		"advanced":     DifficultyHard,
		"difficult":    DifficultyHard,
		"mix":          DifficultyMixed,
		"any":          DifficultyMixed,
	}
	if d, ok := synonyms[normalized]; ok {
		return d, true
	}
	for _, d := range allDifficulties {
		if normalized == string(d) {
			return d, true
		}
	}
	return DifficultyMedium, false
}
