// Package suggest finds the closest known name for a misspelled one.
package suggest

import (
	"sort"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Closest returns the candidate with the smallest edit distance to name,
// or "" when every candidate would need a complete rewrite.
func Closest(name string, candidates []string) (closest string) {
	nameRunes := []rune(name)
	closestDistance := len(name)

	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	for _, candidate := range sorted {
		distance := levenshtein.DistanceForStrings(
			nameRunes,
			[]rune(candidate),
			levenshtein.DefaultOptions,
		)
		if distance < closestDistance && distance < len(candidate) {
			closest = candidate
			closestDistance = distance
		}
	}
	return
}

// Hint renders a " (did you mean ...?)" suffix, or "" without a match.
func Hint(name string, candidates []string) string {
	if c := Closest(name, candidates); c != "" {
		return " (did you mean " + c + "?)"
	}
	return ""
}
