// Package recipients reads recipient tables from CSV and Excel files.
//
// A table must have an email column; a name column is optional. Rows with a
// blank email are skipped, not rejected.
package recipients

import (
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"golang.org/x/text/unicode/norm"
)

// Default header names.
const (
	DefaultEmailColumn = "Email"
	DefaultNameColumn  = "Name"
)

// Record is one recipient row. Row is the 1-based line in the source file, header included.
type Record struct {
	Row     int    `csv:"row"`
	Email   string `csv:"email"`
	Name    string `csv:"name"`
	HasName bool   `csv:"-"`
}

// Table is an ordered, read-only set of recipient records.
type Table struct {
	records []Record
	columns []string
	skipped int
	hasName bool
	sheet   string
}

// Records returns the records in file order. The slice must not be modified.
func (t *Table) Records() []Record { return t.records }

// Len returns the number of records with a non-blank email.
func (t *Table) Len() int { return len(t.records) }

// Skipped returns the number of rows dropped for a blank email.
func (t *Table) Skipped() int { return t.skipped }

// HasNameColumn reports whether the header contains the name column.
func (t *Table) HasNameColumn() bool { return t.hasName }

// Columns returns the normalized header.
func (t *Table) Columns() []string { return t.columns }

// WriteCSV writes the accepted records as CSV with a row,email,name header.
func (t *Table) WriteCSV(w io.Writer) error {
	return gocsv.Marshal(t.records, w)
}

// Sheet returns the worksheet the records came from, or "" for CSV.
func (t *Table) Sheet() string { return t.sheet }

// missingValues are the spellings spreadsheet tools use for an empty cell.
var missingValues = map[string]struct{}{
	"nan":  {},
	"na":   {},
	"n/a":  {},
	"null": {},
	"none": {},
	"<na>": {},
}

// cleanCell trims and NFC-normalizes a cell and maps missing-value markers to "".
func cleanCell(s string) string {
	s = strings.TrimSpace(norm.NFC.String(s))
	if _, ok := missingValues[strings.ToLower(s)]; ok {
		return ""
	}
	return s
}

func build(rows [][]string, o *options) (*Table, error) {
	if len(rows) == 0 {
		return nil, errEmpty
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(norm.NFC.String(strings.TrimPrefix(h, "\ufeff")))
	}

	emailIdx, nameIdx := -1, -1
	for i, h := range header {
		if h == o.emailColumn && emailIdx == -1 {
			emailIdx = i
		}
		if h == o.nameColumn && nameIdx == -1 {
			nameIdx = i
		}
	}
	if emailIdx == -1 {
		return nil, ErrMissingColumn
	}

	t := &Table{columns: header, hasName: nameIdx != -1, sheet: o.sheet}
	for i, row := range rows[1:] {
		email := cleanCell(cell(row, emailIdx))
		if email == "" {
			if !blankRow(row) {
				t.skipped++
			}
			continue
		}
		rec := Record{Row: i + 2, Email: email}
		if nameIdx != -1 {
			rec.Name = cleanCell(cell(row, nameIdx))
			rec.HasName = rec.Name != ""
		}
		t.records = append(t.records, rec)
	}
	return t, nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

// blankRow reports whether every cell is empty. Such rows are padding, not skipped recipients.
func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
