package matcher

import (
	"strings"

	"github.com/ziadkadry99/errmatch/internal/dataset"
)

// DefaultThreshold is the minimum similarity for a row to become a candidate.
const DefaultThreshold = 0.6

// columnRule describes how a value in a non-error column is used.
type columnRule struct {
	priority bool    // the column holds the priority level
	kind     FixKind // fix label when priority is false
	front    bool    // insert ahead of fixes collected so far
}

// namedRules are matched against normalized column headers, in order.
var namedRules = []struct {
	names []string
	rule  columnRule
}{
	{[]string{"priority", "priority_level", "urgency"}, columnRule{priority: true}},
	{[]string{"primary_fix", "main_fix", "fix", "solution"}, columnRule{kind: FixPrimary, front: true}},
	{[]string{"secondary_fix", "alternative_fix", "alt_fix", "alternative"}, columnRule{kind: FixAlternative}},
	{[]string{"tertiary_fix", "additional_fix", "extra_fix"}, columnRule{kind: FixAdditional}},
}

// positionalRules apply to columns whose header matches no named rule,
// keyed by 1-based position after the error column.
var positionalRules = map[int]columnRule{
	1: {kind: FixPrimary, front: true},
	2: {kind: FixAlternative},
	3: {kind: FixAdditional},
}

// blankValues are cell contents treated as missing.
var blankValues = map[string]bool{
	"":     true,
	"nan":  true,
	"none": true,
	"null": true,
}

// normalizeHeader lower-cases a header and maps spaces and hyphens to
// underscores so "Primary Fix" and "primary-fix" match primary_fix.
func normalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(name)
}

// ruleFor resolves the rule for a column: named rules first, then position.
func ruleFor(column string, position int) columnRule {
	header := normalizeHeader(column)
	for _, nr := range namedRules {
		for _, n := range nr.names {
			if header == n {
				return nr.rule
			}
		}
	}
	if r, ok := positionalRules[position]; ok {
		return r
	}
	return columnRule{kind: OptionKind(position - 1)}
}

// Classify scores rec against query and, if the similarity reaches
// threshold, extracts its fixes and priority. columns gives the header order;
// the first column holds the error text. Rows with a blank error text never
// match.
func Classify(rec dataset.Record, columns []string, query string, threshold float64) (Candidate, bool) {
	if len(columns) == 0 {
		return Candidate{}, false
	}
	errorText, _ := rec.Value(0)
	if strings.TrimSpace(errorText) == "" {
		return Candidate{}, false
	}

	similarity := Score(query, errorText)
	if similarity < threshold {
		return Candidate{}, false
	}

	c := Candidate{
		Error:      errorText,
		Priority:   DefaultPriority,
		Similarity: similarity,
	}
	for pos := 1; pos < len(columns); pos++ {
		raw, ok := rec.Value(pos)
		if !ok {
			continue
		}
		value := strings.TrimSpace(raw)
		if blankValues[strings.ToLower(value)] {
			continue
		}

		rule := ruleFor(columns[pos], pos)
		switch {
		case rule.priority:
			c.Priority = value
		case rule.front:
			c.Fixes = append([]Fix{{Type: rule.kind, Content: value}}, c.Fixes...)
		default:
			c.Fixes = append(c.Fixes, Fix{Type: rule.kind, Content: value})
		}
	}

	if len(c.Fixes) == 0 {
		c.Fixes = []Fix{{Type: FixPrimary, Content: NoFixContent}}
	}
	return c, true
}
