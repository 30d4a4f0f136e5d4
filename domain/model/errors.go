// Package model provides domain model for sheetdb
package model

import "errors"

var (
	// ErrDuplicateColumnName is returned when a header contains the same column name twice
	ErrDuplicateColumnName = errors.New("duplicate column name")

	// ErrEmptyColumnName is returned when a header contains a blank column name
	ErrEmptyColumnName = errors.New("empty column name")

	// ErrReservedColumnName is returned when a user column collides with the identity column
	ErrReservedColumnName = errors.New("reserved column name")

	// ErrColumnNotFound is returned when a column name is not part of the header
	ErrColumnNotFound = errors.New("column not found")

	// ErrInvalidPosition is returned for column positions below 1 or malformed column letters
	ErrInvalidPosition = errors.New("invalid column position")

	// ErrMissingIdentityColumn is returned when header cell A1 is not the identity column
	ErrMissingIdentityColumn = errors.New("missing identity column")
)
