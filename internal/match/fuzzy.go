// Package match locates the substring of a reference text that best
// approximates a citation under a bounded Levenshtein budget.
package match

import (
	"github.com/scholarlabs/scholar/internal/model"
)

// Find returns the contiguous substring of haystack with the minimum
// Levenshtein distance to needle, restricted to distances at or below
// maxDistance. Insertions, deletions and substitutions all cost one and
// distances are measured in runes.
//
// Ties are broken deterministically: the earliest starting offset wins,
// then the shortest matched length. Distance 0 means needle occurs verbatim.
// When no substring comes within maxDistance the result is NoMatch.
//
// The sweep is a Sellers dynamic program over haystack positions with
// Ukkonen's last-active-cell cutoff, so only rows within the distance budget
// are evaluated and the cost stays near O(len(haystack) * maxDistance).
//
// An empty needle matches trivially at offset 0. An empty haystack yields
// NoMatch unless the needle is also empty. Matched substrings are never
// empty for a non-empty needle. A negative maxDistance is caller
// misconfiguration and panics.
func Find(needle, haystack string, maxDistance int) model.MatchResult {
	if maxDistance < 0 {
		panic("match: negative max distance")
	}

	if needle == "" {
		return model.Match("", 0, 0)
	}
	if haystack == "" {
		return model.NoMatch()
	}

	p := []rune(needle)
	t := []rune(haystack)
	m := len(p)
	n := len(t)

	// Byte offset of each rune position, for slicing matches out of the
	// original string.
	byteOff := make([]int, 0, n+1)
	for i := range haystack {
		byteOff = append(byteOff, i)
	}
	byteOff = append(byteOff, len(haystack))

	inf := maxDistance + 1

	// prevD/curD hold one DP column: distance of the best alignment of
	// p[:i] against a haystack substring ending at the current position.
	// prevS/curS track where that substring starts (rune index), so ties
	// can be resolved without a traceback.
	prevD := make([]int, m+1)
	prevS := make([]int, m+1)
	curD := make([]int, m+1)
	curS := make([]int, m+1)

	for i := 0; i <= m; i++ {
		if i < inf {
			prevD[i] = i
		} else {
			prevD[i] = inf
		}
		prevS[i] = 0
	}

	lastActive := maxDistance
	if lastActive > m {
		lastActive = m
	}

	bestDist := inf
	bestStart := 0
	bestEnd := 0

	for j := 1; j <= n; j++ {
		curD[0] = 0
		curS[0] = j // free start: a match may begin at any haystack offset

		limit := lastActive + 1
		if limit > m {
			limit = m
		}

		for i := 1; i <= limit; i++ {
			cost := 1
			if p[i-1] == t[j-1] {
				cost = 0
			}

			d := prevD[i-1] + cost
			s := prevS[i-1]
			if v := prevD[i] + 1; v < d || (v == d && prevS[i] < s) {
				d = v
				s = prevS[i]
			}
			if v := curD[i-1] + 1; v < d || (v == d && curS[i-1] < s) {
				d = v
				s = curS[i-1]
			}
			if d > inf {
				d = inf
			}
			curD[i] = d
			curS[i] = s
		}

		// The band may widen by one row next column; seed the row beyond it
		// so stale values from earlier columns are never read.
		if limit < m {
			curD[limit+1] = inf
			curS[limit+1] = j
		}

		// A full alignment of the needle ends at this column only when the
		// band reached the final row.
		if limit == m && curD[m] <= maxDistance && curS[m] != j {
			d, s := curD[m], curS[m]
			if d < bestDist || (d == bestDist && s < bestStart) {
				bestDist = d
				bestStart = s
				bestEnd = j
			}
			if bestDist == 0 {
				break
			}
		}

		// Ukkonen cutoff: drop trailing rows that exceeded the budget.
		la := limit
		for la > 0 && curD[la] > maxDistance {
			la--
		}
		lastActive = la

		prevD, curD = curD, prevD
		prevS, curS = curS, prevS
	}

	if bestDist > maxDistance {
		return model.NoMatch()
	}

	return model.Match(haystack[byteOff[bestStart]:byteOff[bestEnd]], bestDist, byteOff[bestStart])
}
