package matcher

import (
	"fmt"
	"math"
	"strings"
)

const (
	// DefaultExactThreshold is the top-candidate similarity at which the
	// engine answers directly without checking for ambiguity.
	DefaultExactThreshold = 0.9
	// DefaultAmbiguityWindow is how close two similarities must be for the
	// candidates to count as tied.
	DefaultAmbiguityWindow = 0.15

	ambiguityInspect   = 3 // candidates grouped by IsAmbiguous
	followUpInspect    = 5 // candidates grouped by BuildFollowUp
	maxFollowUpOptions = 4
	genericKeywordMax  = 2
)

// scoreGroups clusters candidates greedily: each joins the first group whose
// first member is within window of it, or starts a new group.
func scoreGroups(matches []Candidate, window float64) [][]Candidate {
	var groups [][]Candidate
	for _, m := range matches {
		placed := false
		for gi, g := range groups {
			if math.Abs(g[0].Similarity-m.Similarity) <= window {
				groups[gi] = append(groups[gi], m)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []Candidate{m})
		}
	}
	return groups
}

// IsAmbiguous reports whether the user should be asked to clarify before an
// answer is given. It fires when the leading tied candidates fall in
// different categories, or when the query itself is too generic (at most two
// vocabulary keywords) and there are three or more candidates.
func IsAmbiguous(matches []Candidate, query string, window float64) bool {
	if len(matches) < 2 {
		return false
	}

	top := matches
	if len(top) > ambiguityInspect {
		top = top[:ambiguityInspect]
	}
	groups := scoreGroups(top, window)
	if len(groups) > 0 && len(groups[0]) >= 2 {
		seen := map[Category]bool{}
		for _, m := range groups[0] {
			seen[CategoryOf(m.Error)] = true
		}
		if len(seen) > 1 {
			return true
		}
	}

	return len(ExtractKeywords(query)) <= genericKeywordMax && len(matches) >= 3
}

// BuildFollowUp writes the clarifying question for an ambiguous match set.
// With candidates from more than one category it asks for a category;
// otherwise, with three or more candidates, it asks for a specific error.
// It returns nil when neither applies.
func BuildFollowUp(matches []Candidate) *FollowUp {
	if len(matches) < 2 {
		return nil
	}

	top := matches
	if len(top) > followUpInspect {
		top = top[:followUpInspect]
	}
	var order []Category
	byCategory := map[Category][]Candidate{}
	for _, m := range top {
		c := CategoryOf(m.Error)
		if _, ok := byCategory[c]; !ok {
			order = append(order, c)
		}
		byCategory[c] = append(byCategory[c], m)
	}

	switch {
	case len(order) > 1:
		return categoryFollowUp(order, byCategory, matches)
	case len(matches) >= 3:
		return specificFollowUp(matches)
	}
	return nil
}

func categoryFollowUp(order []Category, byCategory map[Category][]Candidate, matches []Candidate) *FollowUp {
	if len(order) > maxFollowUpOptions {
		order = order[:maxFollowUpOptions]
	}

	var b strings.Builder
	b.WriteString("I found multiple types of errors that might match your description. Could you help me narrow it down?\n\n")

	options := make([]Option, 0, len(order))
	for i, c := range order {
		group := byCategory[c]
		opt := Option{
			Number:      i + 1,
			Category:    c,
			DisplayName: DisplayName(c),
			Example:     group[0].Error,
			Count:       len(group),
		}
		options = append(options, opt)

		noun := "match"
		if opt.Count > 1 {
			noun = "matches"
		}
		fmt.Fprintf(&b, "%d. **%s** (%d %s)\n", opt.Number, opt.DisplayName, opt.Count, noun)
		fmt.Fprintf(&b, "   Example: \"%s\"\n\n", opt.Example)
	}
	b.WriteString("Please type the number or describe which type of error you're experiencing.")

	return &FollowUp{
		Question:        b.String(),
		Type:            FollowUpCategory,
		Options:         options,
		OriginalMatches: matches,
	}
}

func specificFollowUp(matches []Candidate) *FollowUp {
	top := matches
	if len(top) > maxFollowUpOptions {
		top = top[:maxFollowUpOptions]
	}

	var b strings.Builder
	b.WriteString("I found several similar errors. Could you provide more details?\n\n")

	options := make([]Option, 0, len(top))
	for i := range top {
		m := top[i]
		pct := int(m.Similarity * 100)
		options = append(options, Option{
			Number:            i + 1,
			Match:             &m,
			SimilarityPercent: pct,
		})
		fmt.Fprintf(&b, "%d. \"%s\" (%d%% match)\n", i+1, m.Error, pct)
	}
	b.WriteString("\nPlease type the number of the closest match, or provide more specific details about your error.")

	return &FollowUp{
		Question:        b.String(),
		Type:            FollowUpSpecific,
		Options:         options,
		OriginalMatches: matches,
	}
}
