package driver

import "errors"

// Predefined errors
var (
	// ErrQuery is returned when a QUERY formula cannot be evaluated. The engine reports
	// grammar errors and SQL errors alike through it.
	ErrQuery = errors.New("sheetdb driver: query evaluation failed")

	// ErrStmtExecContextNotSupported is returned when statement does not support ExecContext
	ErrStmtExecContextNotSupported = errors.New("sheetdb driver: statement does not support ExecContext")

	// ErrStmtQueryContextNotSupported is returned when statement does not support QueryContext
	ErrStmtQueryContextNotSupported = errors.New("sheetdb driver: statement does not support QueryContext")

	// ErrPrepareContextNotSupported is returned when underlying connection does not support PrepareContext
	ErrPrepareContextNotSupported = errors.New("sheetdb driver: underlying connection does not support PrepareContext")

	// ErrTooManyColumns is returned when a range is wider than a worksheet allows
	ErrTooManyColumns = errors.New("sheetdb driver: too many columns")
)
