package rules

// maxSuggestDistance bounds how far a typo may be from a rule name and
// still produce a suggestion.
const maxSuggestDistance = 3

// suggest returns the catalogue name closest to name, if any is close enough.
func suggest(name string, names []string) (string, bool) {
	best, bestDist := "", maxSuggestDistance+1

	for _, candidate := range names {
		d := editDistance(name, candidate)
		if d < bestDist {
			best, bestDist = candidate, d
		}
	}

	return best, best != ""
}

// editDistance is the Levenshtein distance between a and b over runes,
// kept in two rows.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i

		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(rb)]
}
