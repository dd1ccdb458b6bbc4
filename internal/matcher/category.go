package matcher

import (
	"strings"
	"unicode"
)

var (
	bootTerms     = []string{"boot", "bios", "uefi", "mbr", "gpt", "bootloader", "grub", "ntldr", "bootmgr"}
	hardwareTerms = []string{"memory", "ram", "cpu", "disk", "drive", "ssd", "hdd", "tpm", "secure"}
	errorTerms    = []string{"error", "failure", "failed", "missing", "corrupt", "invalid", "timeout", "panic"}
)

// vocabulary is scanned in this order by ExtractKeywords.
var vocabulary = concat(bootTerms, hardwareTerms, errorTerms)

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// ExtractKeywords returns every vocabulary term that occurs anywhere in text,
// case-insensitively, in vocabulary order. Terms match as substrings, so
// "rebooting" yields "boot".
func ExtractKeywords(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, term := range vocabulary {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}
	return found
}

// categoryRules is a first-match-wins decision list.
var categoryRules = []struct {
	terms    []string
	category Category
}{
	{[]string{"memory", "ram"}, CategoryMemory},
	{[]string{"disk", "drive", "ssd", "hdd", "mbr", "gpt"}, CategoryStorage},
	{[]string{"boot", "bootloader", "grub", "ntldr", "bootmgr"}, CategoryBootloader},
	{[]string{"bios", "uefi", "tpm", "secure"}, CategoryFirmware},
	{[]string{"cpu"}, CategoryProcessor},
}

// DetermineCategory maps extracted keywords to a Category.
func DetermineCategory(keywords []string) Category {
	have := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		have[k] = true
	}
	for _, rule := range categoryRules {
		for _, t := range rule.terms {
			if have[t] {
				return rule.category
			}
		}
	}
	return CategoryGeneral
}

// CategoryOf is DetermineCategory(ExtractKeywords(text)).
func CategoryOf(text string) Category {
	return DetermineCategory(ExtractKeywords(text))
}

var categoryLabels = map[Category]string{
	CategoryMemory:     "Memory/RAM related",
	CategoryStorage:    "Hard drive/Storage related",
	CategoryBootloader: "Boot loader/Boot manager related",
	CategoryFirmware:   "BIOS/UEFI/Firmware related",
	CategoryProcessor:  "CPU/Processor related",
	CategoryGeneral:    "General system",
}

// DisplayName returns the user-facing label of a category. Unknown
// categories are title-cased.
func DisplayName(c Category) string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return titleCase(string(c))
}

// titleCase upper-cases the first letter of every word and lower-cases the
// rest, where a word is a run of letters.
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
