// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package spell

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Nearest returns the candidate closest to word or "" when none
// is within a third of word's length
func Nearest(word string, candidates []string) string {
	maxDist := (len(word) + 2) / 3

	sorted := append([]string{}, candidates...)
	sort.Strings(sorted)

	var best string
	bestDist := maxDist + 1

	for _, candidate := range sorted {
		if candidate == word {
			continue
		}
		if strings.EqualFold(candidate, word) {
			return candidate
		}
		dist := levenshtein.ComputeDistance(strings.ToLower(word), strings.ToLower(candidate))
		if dist < bestDist {
			best, bestDist = candidate, dist
		}
	}
	return best
}

// Suggestion formats a hint to be appended to an error message
func Suggestion(word string, candidates []string) string {
	nearest := Nearest(word, candidates)
	if len(nearest) == 0 {
		return ""
	}
	return fmt.Sprintf(" (did you mean '%s'?)", nearest)
}
