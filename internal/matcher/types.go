package matcher

import (
	"fmt"
	"strings"
)

// FixKind labels a remediation step extracted from a dataset row.
type FixKind string

const (
	FixPrimary     FixKind = "Primary"
	FixAlternative FixKind = "Alternative"
	FixAdditional  FixKind = "Additional"
)

// OptionKind returns the label used for fixes found in the fourth and later
// positional columns, e.g. "Option 3".
func OptionKind(n int) FixKind {
	return FixKind(fmt.Sprintf("Option %d", n))
}

// Fix is a single remediation step.
type Fix struct {
	Type    FixKind `json:"type"`
	Content string  `json:"content"`
}

// NoFixContent is the sentinel fix attached to rows that carry no usable fix.
const NoFixContent = "No specific fix provided"

// DefaultPriority is assigned when a row has no priority column or value.
const DefaultPriority = "Medium"

// priorityRanks orders priority levels. Unknown values rank as Medium.
var priorityRanks = map[string]int{
	"critical": 4,
	"urgent":   4,
	"high":     3,
	"medium":   2,
	"low":      1,
}

// PriorityRank returns the sort rank of a priority label.
func PriorityRank(priority string) int {
	if r, ok := priorityRanks[strings.ToLower(strings.TrimSpace(priority))]; ok {
		return r
	}
	return priorityRanks["medium"]
}

// Candidate is a dataset row that scored above the threshold for a query.
type Candidate struct {
	Error      string  `json:"error"`
	Fixes      []Fix   `json:"fixes"`
	Priority   string  `json:"priority"`
	Similarity float64 `json:"similarity"`
}

// Category is a coarse topical bucket used to group candidates when asking
// the user to disambiguate. It never influences scoring.
type Category string

const (
	CategoryMemory     Category = "memory"
	CategoryStorage    Category = "storage"
	CategoryBootloader Category = "bootloader"
	CategoryFirmware   Category = "firmware"
	CategoryProcessor  Category = "processor"
	CategoryGeneral    Category = "general"
)

// FollowUpType identifies what a clarifying question asks the user to pick.
type FollowUpType string

const (
	FollowUpCategory FollowUpType = "category_selection"
	FollowUpSpecific FollowUpType = "specific_selection"
)

// Option is one numbered choice in a FollowUp. Category options carry
// Category, DisplayName, Example and Count; specific options carry Match and
// SimilarityPercent.
type Option struct {
	Number            int        `json:"number"`
	Category          Category   `json:"category,omitempty"`
	DisplayName       string     `json:"display_name,omitempty"`
	Example           string     `json:"example,omitempty"`
	Count             int        `json:"count,omitempty"`
	Match             *Candidate `json:"match,omitempty"`
	SimilarityPercent int        `json:"similarity_percent,omitempty"`
}

// FollowUp is a clarifying question built for one chat turn.
type FollowUp struct {
	Question        string       `json:"question"`
	QuestionHTML    string       `json:"question_html,omitempty"`
	Type            FollowUpType `json:"type"`
	Options         []Option     `json:"options"`
	OriginalMatches []Candidate  `json:"original_matches"`
}

// SuggestedFormat shows how a new entry should be laid out in the dataset.
type SuggestedFormat struct {
	CSVRow       string   `json:"csv_row"`
	ExcelColumns []string `json:"excel_columns"`
}

// EntryTemplate is a prefilled dataset row for an error the dataset does not
// cover yet.
type EntryTemplate struct {
	ErrorMessage    string          `json:"error_message"`
	PrimaryFix      string          `json:"primary_fix"`
	AlternativeFix  string          `json:"alternative_fix"`
	AdditionalFix   string          `json:"additional_fix"`
	Priority        string          `json:"priority"`
	Category        Category        `json:"category"`
	SuggestedFormat SuggestedFormat `json:"suggested_format"`
}

// ResponseKind discriminates the Response variants.
type ResponseKind string

const (
	KindExactMatch ResponseKind = "exact_match"
	KindMatches    ResponseKind = "matches"
	KindNoMatch    ResponseKind = "no_match"
)

// Response is the outcome of matching one query. Which fields are populated
// depends on Kind:
//
//	exact_match: Message, ExactMatch=true, Matches (single top candidate)
//	matches:     Message, Matches (up to top-k), FollowUp (may be nil)
//	no_match:    Message, Unmatched=true, Suggestions, Template
type Response struct {
	Kind        ResponseKind   `json:"kind"`
	Message     string         `json:"message"`
	ExactMatch  bool           `json:"exact_match"`
	Matches     []Candidate    `json:"matches,omitempty"`
	FollowUp    *FollowUp      `json:"follow_up"`
	Unmatched   bool           `json:"unmatched,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
	Template    *EntryTemplate `json:"database_template,omitempty"`
}
