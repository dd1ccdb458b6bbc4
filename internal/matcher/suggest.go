package matcher

import (
	"fmt"
	"strings"
)

const maxSuggestions = 6

// genericSuggestions close every suggestion list.
var genericSuggestions = []string{
	"Consider adding this error to your database with a detailed fix description",
	"Check if there are similar errors in your database that might help",
	"Document the system configuration where this error occurs",
}

// Suggestions returns up to six hints for rephrasing an unmatched query or
// extending the dataset to cover it.
func Suggestions(query string) []string {
	var out []string
	lower := strings.ToLower(query)

	if len(ExtractKeywords(query)) == 0 {
		out = append(out,
			"Try using more specific technical terms related to boot processes",
			"Include error codes or specific component names if available",
		)
	}
	if len(strings.Fields(query)) < 3 {
		out = append(out,
			"Provide more detailed description of when this error occurs",
			"Include any error codes or system information",
		)
	}
	if containsAny(lower, "boot", "startup", "start") {
		out = append(out,
			"Specify the boot stage: BIOS/UEFI, bootloader, or OS loading",
			"Mention if this happens on cold boot, warm restart, or both",
		)
	}
	if containsAny(lower, "error", "fail") {
		out = append(out,
			"Include the exact error message or code if displayed",
			"Describe what happens: system freezes, restarts, or shows error screen",
		)
	}
	out = append(out, genericSuggestions...)

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// Placeholder text used in entry templates and unmatched-error exports.
const (
	PlaceholderPrimaryFix     = "[Please provide the main solution for this error]"
	PlaceholderAlternativeFix = "[Optional: Provide an alternative solution]"
	PlaceholderAdditionalFix  = "[Optional: Provide additional troubleshooting steps]"
	PlaceholderPriority       = "[High/Medium/Low - Set priority level]"
)

// TemplateColumns is the recommended header row for a dataset.
var TemplateColumns = []string{"Error Message", "Primary Fix", "Alternative Fix", "Additional Fix", "Priority"}

// NewEntryTemplate prefills a dataset entry for an unmatched query.
func NewEntryTemplate(query string) *EntryTemplate {
	return &EntryTemplate{
		ErrorMessage:   query,
		PrimaryFix:     PlaceholderPrimaryFix,
		AlternativeFix: PlaceholderAlternativeFix,
		AdditionalFix:  PlaceholderAdditionalFix,
		Priority:       PlaceholderPriority,
		Category:       CategoryOf(query),
		SuggestedFormat: SuggestedFormat{
			CSVRow:       fmt.Sprintf(`"%s","[Primary Fix]","[Alternative Fix]","[Additional Fix]","Medium"`, query),
			ExcelColumns: append([]string(nil), TemplateColumns...),
		},
	}
}
