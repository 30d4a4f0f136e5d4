package sheetdb

import (
	"errors"
	"fmt"
	"strings"
)

// Standard error messages and error creation functions for consistency
var (
	// ErrDatabaseExists is returned by Create when the backing file already exists
	ErrDatabaseExists = errors.New("sheetdb: database already exists")

	// ErrDatabaseNotFound is returned by Open when the backing file does not exist
	ErrDatabaseNotFound = errors.New("sheetdb: database not found")

	// ErrValidation indicates that a database or table lacks a required structure
	ErrValidation = errors.New("sheetdb: validation failed")

	// ErrTableExists is returned by CreateTable when the sheet already exists
	ErrTableExists = errors.New("sheetdb: table already exists")

	// ErrTableNotFound is returned when a table does not exist
	ErrTableNotFound = errors.New("sheetdb: table not found")

	// ErrReservedName is returned when a table would shadow an internal sheet
	ErrReservedName = errors.New("sheetdb: reserved name")

	// ErrDuplicateColumnName is returned when a table is declared with the same column twice
	ErrDuplicateColumnName = errors.New("sheetdb: duplicate column name")

	// ErrInvalidColumnName is returned for empty column names, query keywords and user columns named like the identity column
	ErrInvalidColumnName = errors.New("sheetdb: invalid column name")

	// ErrNoColumns is returned by CreateTable without any column
	ErrNoColumns = errors.New("sheetdb: a table needs at least one column")

	// ErrInvalidFilter is returned when an update or delete filter carries its own select clause
	ErrInvalidFilter = errors.New("sheetdb: filter must not contain a select clause")

	// ErrCorruptIdentity is returned when an identity cell does not hold a row number
	ErrCorruptIdentity = errors.New("sheetdb: corrupt row identity")

	// ErrQueryGrammar indicates that the query engine rejected a filter fragment
	ErrQueryGrammar = errors.New("sheetdb: query grammar error")

	// ErrClosed is returned when a closed database is used
	ErrClosed = errors.New("sheetdb: database is closed")
)

// QueryError is returned when a query evaluates to a spreadsheet error value.
// errors.Is(err, ErrQueryGrammar) holds for every QueryError.
type QueryError struct {
	// Query is the address-qualified fragment that was staged
	Query string
	// Token is the error value the evaluation produced, such as #VALUE!
	Token string
	// Err is the cause reported by the store, if any
	Err error
}

// Error implements error
func (e *QueryError) Error() string {
	msg := fmt.Sprintf("sheetdb: query %q evaluated to %s", e.Query, e.Token)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is ErrQueryGrammar
func (e *QueryError) Is(target error) bool {
	return target == ErrQueryGrammar //nolint:errorlint // sentinel comparison
}

// Unwrap returns the cause reported by the store
func (e *QueryError) Unwrap() error {
	return e.Err
}

// ErrorContext provides context for where an error occurred
type ErrorContext struct {
	Operation string
	Database  string
	TableName string
	Details   string
}

// NewErrorContext creates a new error context
func NewErrorContext(operation, database string) *ErrorContext {
	return &ErrorContext{
		Operation: operation,
		Database:  database,
	}
}

// WithTable adds table context to the error
func (ec *ErrorContext) WithTable(tableName string) *ErrorContext {
	ec.TableName = tableName
	return ec
}

// WithDetails adds details to the error context
func (ec *ErrorContext) WithDetails(details string) *ErrorContext {
	ec.Details = details
	return ec
}

// Error creates a formatted error with context
func (ec *ErrorContext) Error(baseErr error) error {
	var parts []string
	parts = append(parts, fmt.Sprintf("sheetdb: %s failed", ec.Operation))

	if ec.Database != "" {
		parts = append(parts, "database: "+ec.Database)
	}

	if ec.TableName != "" {
		parts = append(parts, "table: "+ec.TableName)
	}

	if ec.Details != "" {
		parts = append(parts, "details: "+ec.Details)
	}

	context := strings.Join(parts, ", ")
	if baseErr != nil {
		return fmt.Errorf("%s: %w", context, baseErr)
	}
	return fmt.Errorf("%s", context)
}
