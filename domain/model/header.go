package model

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// IdentityColumn is the header of column 1 of every table sheet.
// Its cells hold IdentityFormula so they always evaluate to their own row number.
const IdentityColumn = "row"

// alphabetSize is the radix of spreadsheet column letters.
const alphabetSize = 26

// FoldName returns the case-folded form of a column name.
// A Caser is stateful, so a fresh one is created per call.
func FoldName(name string) string {
	return cases.Fold().String(name)
}

// Header is the first row of a table sheet.
// Header[0] is IdentityColumn, Header[1:] are user columns in declaration order.
type Header []string

// NewHeader create new Header. Column names are NFC normalized and trimmed.
func NewHeader(h []string) Header {
	header := make(Header, len(h))
	for i, name := range h {
		header[i] = norm.NFC.String(strings.TrimSpace(name))
	}
	return header
}

// NewTableHeader builds the header of a new table: the identity column followed by columns.
func NewTableHeader(columns ...string) (Header, error) {
	header := NewHeader(append([]string{IdentityColumn}, columns...))
	if err := header.Validate(); err != nil {
		return nil, err
	}
	return header, nil
}

// Equal compare Header.
func (h Header) Equal(h2 Header) bool {
	if len(h) != len(h2) {
		return false
	}
	for i, v := range h {
		if v != h2[i] {
			return false
		}
	}
	return true
}

// Validate checks the structural invariants of a table header. Column names are
// compared case-insensitively, the way filters address them.
func (h Header) Validate() error {
	if len(h) == 0 || h[0] != IdentityColumn {
		return ErrMissingIdentityColumn
	}

	seen := make(map[string]struct{}, len(h))
	for i, name := range h {
		if name == "" {
			return fmt.Errorf("%w: position %d", ErrEmptyColumnName, i+1)
		}
		if i > 0 && FoldName(name) == FoldName(IdentityColumn) {
			return fmt.Errorf("%w: %s", ErrReservedColumnName, name)
		}
		key := FoldName(name)
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateColumnName, name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Columns returns the user columns (everything after the identity column).
func (h Header) Columns() []string {
	if len(h) <= 1 {
		return []string{}
	}
	columns := make([]string, len(h)-1)
	copy(columns, h[1:])
	return columns
}

// PositionOf returns the 1-based position of name. The header is searched left to right
// and the first exact match wins.
func (h Header) PositionOf(name string) (int, error) {
	for i, column := range h {
		if column == name {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
}

// PositionOfFold is PositionOf with case-insensitive matching.
func (h Header) PositionOfFold(name string) (int, error) {
	target := FoldName(name)
	for i, column := range h {
		if FoldName(column) == target {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
}

// LastLetter returns the column letter of the rightmost header cell.
func (h Header) LastLetter() string {
	if len(h) == 0 {
		return "A"
	}
	letter, _ := ColumnLetter(len(h)) //nolint:errcheck // len(h) >= 1
	return letter
}

// ColumnLetter converts a 1-based column position to its bijective base-26 address.
// 1 is "A", 26 is "Z", 27 is "AA".
func ColumnLetter(position int) (string, error) {
	if position < 1 {
		return "", fmt.Errorf("%w: %d", ErrInvalidPosition, position)
	}

	var letters []byte
	for position > 0 {
		index := (position - 1) % alphabetSize
		letters = append([]byte{byte('A' + index)}, letters...)
		position = (position - index - 1) / alphabetSize
	}
	return string(letters), nil
}

// ColumnNumber is the inverse of ColumnLetter. Letters are case-insensitive.
func ColumnNumber(letters string) (int, error) {
	if letters == "" {
		return 0, fmt.Errorf("%w: empty column letters", ErrInvalidPosition)
	}

	position := 0
	for _, r := range strings.ToUpper(letters) {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidPosition, letters)
		}
		position = position*alphabetSize + int(r-'A') + 1
	}
	return position, nil
}
