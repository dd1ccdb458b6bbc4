package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/xuri/excelize/v2"
)

// DefaultMaxRows caps how many data rows are kept from one upload.
const DefaultMaxRows = 1000

// allowedExtensions are the upload formats accepted by Allowed.
var allowedExtensions = map[string]bool{
	".csv":  true,
	".xls":  true,
	".xlsx": true,
}

// Allowed reports whether filename has a supported spreadsheet extension.
func Allowed(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ErrLegacyExcel is returned for binary .xls workbooks. They pass Allowed so
// the user gets this explanation instead of a generic file-type error.
var ErrLegacyExcel = errors.New("legacy .xls workbooks are not supported; save the file as .xlsx or .csv")

// ParseError wraps a failure to read an uploaded file.
type ParseError struct {
	Filename string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Error reading file: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse reads a CSV or XLSX table from r. The first row is the header; at
// most maxRows data rows are kept (maxRows <= 0 means DefaultMaxRows). The
// result is validated, so a nil error guarantees at least two columns and
// one row.
func Parse(filename string, r io.Reader, maxRows int) (Dataset, error) {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = readCSV(r)
	case ".xlsx":
		rows, err = readXLSX(r)
	case ".xls":
		err = ErrLegacyExcel
	default:
		err = fmt.Errorf("unsupported file type %q", filepath.Ext(filename))
	}
	if err != nil {
		return Dataset{}, &ParseError{Filename: filename, Err: err}
	}

	ds := fromRows(rows, maxRows)
	ds.Source = filename
	ds.LoadedAt = time.Now().UTC()
	if err := ds.Validate(); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

// fromRows turns a header row plus data rows into a Dataset, dropping rows
// whose cells are all blank.
func fromRows(rows [][]string, maxRows int) Dataset {
	var ds Dataset
	if len(rows) == 0 {
		return ds
	}
	for _, h := range rows[0] {
		ds.Columns = append(ds.Columns, strings.TrimSpace(h))
	}
	for _, row := range rows[1:] {
		if len(ds.Records) >= maxRows {
			break
		}
		if allBlank(row) {
			continue
		}
		if len(row) > len(ds.Columns) {
			row = row[:len(ds.Columns)]
		}
		ds.Records = append(ds.Records, Record{Values: row})
	}
	return ds
}

func allBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	return f.GetRows(sheet)
}

// LoadFile parses the dataset stored at path.
func LoadFile(path string, maxRows int) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, &ParseError{Filename: path, Err: err}
	}
	defer f.Close()
	return Parse(path, f, maxRows)
}

// LoadGlob parses every supported file matching pattern (which may use **)
// and merges them in lexical path order. All files must share one header row.
// At most maxRows data rows are kept across all files.
func LoadGlob(pattern string, maxRows int) (Dataset, error) {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return Dataset{}, fmt.Errorf("expanding %s: %w", pattern, err)
	}

	var files []string
	for _, p := range paths {
		if Allowed(p) {
			files = append(files, p)
		}
	}
	if len(files) == 0 {
		return Dataset{}, fmt.Errorf("no csv or xlsx files match %s", pattern)
	}
	sort.Strings(files)

	sets := make([]Dataset, 0, len(files))
	for _, p := range files {
		ds, err := LoadFile(p, maxRows)
		if err != nil {
			return Dataset{}, fmt.Errorf("loading %s: %w", p, err)
		}
		sets = append(sets, ds)
	}
	merged, err := Merge(sets...)
	if err != nil {
		return Dataset{}, err
	}
	if len(merged.Records) > maxRows {
		merged.Records = merged.Records[:maxRows]
	}
	return merged, nil
}
