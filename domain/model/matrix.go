package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Matrix is a rectangular block of cell values, row-major.
// Values are string, int64, float64 or bool. Empty cells are "".
type Matrix [][]any

// errorTokens are the in-band error values a spreadsheet evaluation can produce.
var errorTokens = map[string]struct{}{
	"#VALUE!": {},
	"#N/A":    {},
	"#REF!":   {},
	"#NAME?":  {},
	"#ERROR!": {},
	"#DIV/0!": {},
	"#NUM!":   {},
	"#NULL!":  {},
}

// IsErrorToken reports whether v is a spreadsheet error value.
func IsErrorToken(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, ok = errorTokens[strings.TrimSpace(s)]
	return ok
}

// NewMatrix allocates a rows x cols matrix filled with "".
func NewMatrix(rows, cols int) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		m[i] = make([]any, cols)
		for j := range m[i] {
			m[i][j] = ""
		}
	}
	return m
}

// Width returns the length of the widest row.
func (m Matrix) Width() int {
	width := 0
	for _, row := range m {
		width = max(width, len(row))
	}
	return width
}

// DropLast returns m without its final row.
func (m Matrix) DropLast() Matrix {
	if len(m) == 0 {
		return m
	}
	return m[:len(m)-1]
}

// Column returns the values of the 0-based column index; short rows yield "".
func (m Matrix) Column(index int) []any {
	values := make([]any, len(m))
	for i, row := range m {
		if index < len(row) {
			values[i] = row[index]
		} else {
			values[i] = ""
		}
	}
	return values
}

// ErrorToken returns the error token when m is the single-cell error result of a failed evaluation.
func (m Matrix) ErrorToken() (string, bool) {
	if len(m) != 1 || len(m[0]) == 0 || !IsErrorToken(m[0][0]) {
		return "", false
	}
	for _, v := range m[0][1:] {
		if ToString(v) != "" {
			return "", false
		}
	}
	return strings.TrimSpace(m[0][0].(string)), true //nolint:forcetypeassert // checked by IsErrorToken
}

// ToString renders a cell value the way a sheet displays it.
func ToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case []byte:
		return string(val)
	case Formula:
		return "=" + string(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// ToInt converts an integral cell value (int64, float64 without fraction, or numeric string) to int.
func ToInt(v any) (int, bool) {
	switch val := v.(type) {
	case int64:
		return int(val), true
	case int:
		return val, true
	case float64:
		if val != math.Trunc(val) {
			return 0, false
		}
		return int(val), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// ParseScalar turns a raw cell string into int64, float64 or string.
func ParseScalar(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !strings.ContainsAny(trimmed, "0123456789") {
		return raw
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return raw
}
