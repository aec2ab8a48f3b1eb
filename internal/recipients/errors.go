package recipients

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTable is the parent of every table validation error.
	ErrInvalidTable = errors.New("invalid recipient table")

	// ErrMissingColumn indicates the email column is absent from the header.
	ErrMissingColumn = fmt.Errorf("%w: missing email column", ErrInvalidTable)

	// ErrUnsupportedFormat indicates a file extension with no reader.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported file format", ErrInvalidTable)

	// ErrSheetNotFound indicates WithSheet named a sheet the workbook lacks.
	ErrSheetNotFound = fmt.Errorf("%w: sheet not found", ErrInvalidTable)
)
