package matcher

import (
	"sort"

	"github.com/ziadkadry99/errmatch/internal/dataset"
)

// DefaultTopK caps the number of candidates returned for a query.
const DefaultTopK = 5

// Rank orders candidates by priority, then similarity, both descending, and
// keeps at most topK. Priority outranks similarity: a weak High match is
// listed before a near-exact Low one. Ties keep their input order.
func Rank(candidates []Candidate, topK int) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := PriorityRank(ranked[i].Priority), PriorityRank(ranked[j].Priority)
		if pi != pj {
			return pi > pj
		}
		return ranked[i].Similarity > ranked[j].Similarity
	})

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

// FindMatches classifies every record of ds against query and returns the
// ranked candidates.
func FindMatches(query string, ds dataset.Dataset, threshold float64, topK int) []Candidate {
	if len(ds.Records) == 0 {
		return nil
	}

	var candidates []Candidate
	for _, rec := range ds.Records {
		if c, ok := Classify(rec, ds.Columns, query, threshold); ok {
			candidates = append(candidates, c)
		}
	}
	return Rank(candidates, topK)
}
