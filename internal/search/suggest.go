package search

import (
	"math"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Suggestion scoring uses Jaro-Winkler similarity scaled to a 0-100
// percentage. Jaro-Winkler favours shared prefixes, which suits company
// names where the distinctive part leads ("TESKO STORES" vs
// "TESCO STORES LIMITED").
const (
	DefaultSuggestionThreshold = 70.0
	DefaultSuggestionLimit     = 5

	// DirectorSuggestionThreshold is looser: these suggestions steer a
	// failed director search toward a company name search.
	DirectorSuggestionThreshold = 60.0
)

// Suggest scores query against every candidate name and returns the
// top matches at or above threshold, sorted by descending similarity
// and deduplicated case-insensitively. Scores are in (0, 100].
func Suggest(query string, candidates []string, threshold float64, limit int) []Suggestion {
	query = strings.TrimSpace(query)
	if query == "" || len(candidates) == 0 {
		return nil
	}

	jw := metrics.NewJaroWinkler()

	scored := make([]Suggestion, 0, len(candidates))
	for _, candidate := range candidates {
		score := strutil.Similarity(strings.ToUpper(query), strings.ToUpper(candidate), jw) * 100
		if score >= threshold {
			scored = append(scored, Suggestion{
				Name:       candidate,
				Similarity: math.Round(score*10) / 10,
			})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	seen := make(map[string]bool, limit)
	suggestions := make([]Suggestion, 0, limit)
	for _, s := range scored {
		key := strings.ToUpper(s.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		suggestions = append(suggestions, s)
		if len(suggestions) >= limit {
			break
		}
	}
	return suggestions
}
