package xlsxstore

import "errors"

var (
	// ErrWorkbookExists is returned by Create when the backing file already exists
	ErrWorkbookExists = errors.New("xlsxstore: workbook already exists")

	// ErrWorkbookNotFound is returned when the backing file does not exist
	ErrWorkbookNotFound = errors.New("xlsxstore: workbook not found")

	// ErrSheetExists is returned when a sheet name is already taken
	ErrSheetExists = errors.New("xlsxstore: sheet already exists")

	// ErrSheetNotFound is returned when a sheet does not exist
	ErrSheetNotFound = errors.New("xlsxstore: sheet not found")

	// ErrInvalidName is returned for database or sheet names that cannot be stored
	ErrInvalidName = errors.New("xlsxstore: invalid name")

	// ErrInvalidRange is returned for ranges starting before A1 or with a negative size
	ErrInvalidRange = errors.New("xlsxstore: invalid range")

	// ErrNoFormula is returned by Evaluate when cell A1 of the scratch sheet holds no formula
	ErrNoFormula = errors.New("xlsxstore: no formula to evaluate")
)
