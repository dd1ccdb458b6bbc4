package unmatched

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/ziadkadry99/errmatch/internal/matcher"
)

// ExportHeader is the header row of the unmatched-errors CSV export.
var ExportHeader = []string{"Timestamp", "Error Message", "Suggested Primary Fix", "Suggested Alternative Fix", "Priority"}

// WriteCSV writes entries as a spreadsheet the dataset owner can fill in and
// upload back.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{
			e.Timestamp.Format(time.RFC3339),
			e.ErrorMessage,
			matcher.PlaceholderPrimaryFix,
			matcher.PlaceholderAlternativeFix,
			matcher.DefaultPriority,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
