package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestScoresAndSorts(t *testing.T) {
	candidates := []string{
		"TESCO STORES LIMITED",
		"TESCO PROPERTY HOLDINGS LIMITED",
		"ACME HOLDINGS LIMITED",
		"RIVERSIDE DEVELOPMENTS PLC",
	}

	suggestions := Suggest("TESKO STORES", candidates, DefaultSuggestionThreshold, DefaultSuggestionLimit)
	assert.NotEmpty(t, suggestions)

	for i, s := range suggestions {
		assert.Greater(t, s.Similarity, 0.0)
		assert.LessOrEqual(t, s.Similarity, 100.0)
		if i > 0 {
			assert.GreaterOrEqual(t, suggestions[i-1].Similarity, s.Similarity)
		}
	}
	assert.Equal(t, "TESCO STORES LIMITED", suggestions[0].Name)
}

func TestSuggestHonoursThresholdAndLimit(t *testing.T) {
	candidates := []string{"AAA", "AAB", "AAC", "AAD", "AAE", "AAF", "AAG"}

	suggestions := Suggest("AA", candidates, 0.1, 3)
	assert.Len(t, suggestions, 3)

	none := Suggest("ZZZZZZZZ", []string{"COMPLETELY DIFFERENT"}, 99.9, 5)
	assert.Empty(t, none)
}

func TestSuggestDeduplicatesCaseInsensitively(t *testing.T) {
	suggestions := Suggest("acme", []string{"ACME LTD", "Acme Ltd"}, 50, 5)
	assert.Len(t, suggestions, 1)
}

func TestSuggestEmptyInputs(t *testing.T) {
	assert.Empty(t, Suggest("", []string{"A"}, 70, 5))
	assert.Empty(t, Suggest("query", nil, 70, 5))
}
