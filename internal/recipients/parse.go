package recipients

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

var errEmpty = fmt.Errorf("%w: no header row", ErrInvalidTable)

// Option configures Parse.
type Option func(*options)

type options struct {
	emailColumn string
	nameColumn  string
	sheet       string
}

// WithColumns overrides the email and name header names. Empty values keep the defaults.
func WithColumns(email, name string) Option {
	return func(o *options) {
		if email != "" {
			o.emailColumn = email
		}
		if name != "" {
			o.nameColumn = name
		}
	}
}

// WithSheet selects a worksheet by name. The first sheet is used by default.
func WithSheet(name string) Option {
	return func(o *options) {
		o.sheet = name
	}
}

// Supported reports whether filename has an extension Parse can read.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".xlsx", ".xlsm":
		return true
	}
	return false
}

// Parse reads a recipient table. The reader is chosen by the filename extension.
func Parse(filename string, data []byte, opts ...Option) (*Table, error) {
	o := &options{emailColumn: DefaultEmailColumn, nameColumn: DefaultNameColumn}
	for _, opt := range opts {
		opt(o)
	}

	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		rows, err = readCSV(data)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(data, o)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	return build(rows, o)
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := gocsv.LazyCSVReader(bytes.NewReader(data))
	if cr, ok := r.(*csv.Reader); ok {
		cr.FieldsPerRecord = -1
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	return rows, nil
}

func readXLSX(data []byte, o *options) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errEmpty
	}
	if o.sheet == "" {
		o.sheet = sheets[0]
	} else if idx, _ := f.GetSheetIndex(o.sheet); idx == -1 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, o.sheet)
	}

	rows, err := f.GetRows(o.sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	return rows, nil
}
