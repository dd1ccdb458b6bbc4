package matcher

import "strings"

// Score returns how closely query matches stored on a 0-1 scale, ignoring
// case. When either string contains the other the score is 1.0 regardless
// of how different their lengths are; otherwise it is Ratio.
//
// Whitespace and punctuation are compared as-is.
func Score(query, stored string) float64 {
	q := strings.ToLower(query)
	s := strings.ToLower(stored)
	if strings.Contains(s, q) || strings.Contains(q, s) {
		return 1.0
	}
	return ratio([]rune(q), []rune(s))
}

// Ratio returns the case-insensitive sequence similarity 2*M/T, where M is
// the number of characters in the matching blocks and T the combined length
// of both strings. Two empty strings have a ratio of 1.0.
func Ratio(a, b string) float64 {
	return ratio([]rune(strings.ToLower(a)), []rune(strings.ToLower(b)))
}

func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1.0
	}
	// Longest-block search breaks ties by position, so the pair is put in a
	// fixed order to keep Ratio(a, b) == Ratio(b, a).
	if string(b) < string(a) {
		a, b = b, a
	}
	return 2.0 * float64(matchingCharacters(a, b)) / float64(total)
}

// popularMinLen is the length of b from which characters occurring in more
// than 1% of it (plus one) are ignored when searching for matching runs.
const popularMinLen = 200

// matchingCharacters sums the sizes of the matching blocks found by
// repeatedly taking the longest common run and recursing on both sides of it.
func matchingCharacters(a, b []rune) int {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}
	if n := len(b); n >= popularMinLen {
		limit := n/100 + 1
		for r, js := range b2j {
			if len(js) > limit {
				delete(b2j, r)
			}
		}
	}

	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(a), 0, len(b)}}
	matched := 0
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, b2j, s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		matched += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return matched
}

// longestMatch finds the longest run a[i:i+k] == b[j:j+k] inside the given
// bounds. Among equally long runs it returns the one starting earliest in a,
// then earliest in b.
func longestMatch(a []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (besti, bestj, bestk int) {
	besti, bestj = alo, blo
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return besti, bestj, bestk
}
