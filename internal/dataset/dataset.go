package dataset

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalid is returned for datasets with fewer than two columns or no rows.
var ErrInvalid = errors.New("dataset must have at least 2 columns (Error Message and at least one Fix column) and at least one data row")

// Record is one row of an uploaded dataset. Values are positional and line
// up with Dataset.Columns; the first value is the error text.
type Record struct {
	Values []string
}

// Value returns the cell at column index i and whether the row has one.
func (r Record) Value(i int) (string, bool) {
	if i < 0 || i >= len(r.Values) {
		return "", false
	}
	return r.Values[i], true
}

// Map keys the row's values by column name. Cells missing from a short row
// are left out.
func (r Record) Map(columns []string) map[string]string {
	m := make(map[string]string, len(columns))
	for i, c := range columns {
		if v, ok := r.Value(i); ok {
			m[c] = v
		}
	}
	return m
}

// Dataset is an uploaded error-to-fix table. A Dataset is never modified
// after it is stored; uploads replace it wholesale.
type Dataset struct {
	Columns  []string  `json:"columns"`
	Records  []Record  `json:"-"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Len returns the number of rows.
func (d Dataset) Len() int { return len(d.Records) }

// Validate checks the minimum shape the matcher needs.
func (d Dataset) Validate() error {
	if len(d.Columns) < 2 {
		return fmt.Errorf("%w: found %d column(s)", ErrInvalid, len(d.Columns))
	}
	if len(d.Records) == 0 {
		return fmt.Errorf("%w: no data rows", ErrInvalid)
	}
	return nil
}

// Sample returns up to n rows keyed by column name.
func (d Dataset) Sample(n int) []map[string]string {
	if n > len(d.Records) {
		n = len(d.Records)
	}
	out := make([]map[string]string, 0, n)
	for _, r := range d.Records[:n] {
		out = append(out, r.Map(d.Columns))
	}
	return out
}

// Merge concatenates datasets that share the same header row (compared
// case-insensitively). The first dataset's headers are kept and Source lists
// every input.
func Merge(sets ...Dataset) (Dataset, error) {
	if len(sets) == 0 {
		return Dataset{}, fmt.Errorf("%w: nothing to merge", ErrInvalid)
	}
	merged := Dataset{
		Columns:  sets[0].Columns,
		LoadedAt: sets[0].LoadedAt,
	}
	var sources []string
	for _, s := range sets {
		if !sameHeaders(merged.Columns, s.Columns) {
			return Dataset{}, fmt.Errorf("%s: headers %v differ from %v", s.Source, s.Columns, merged.Columns)
		}
		merged.Records = append(merged.Records, s.Records...)
		sources = append(sources, s.Source)
	}
	merged.Source = strings.Join(sources, ",")
	return merged, nil
}

func sameHeaders(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(strings.TrimSpace(a[i]), strings.TrimSpace(b[i])) {
			return false
		}
	}
	return true
}
