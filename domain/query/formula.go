package query

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/nao1215/sheetdb/domain/model"
)

// ErrMalformedFormula is returned when a staged cell does not hold a QUERY formula
var ErrMalformedFormula = errors.New("malformed QUERY formula")

const queryFunction = "QUERY"

// Formula is a QUERY call over a whole-column range of one sheet:
//
//	QUERY(users!A:E, "select A where C = 'x'")
type Formula struct {
	Sheet       string
	FirstColumn string
	LastColumn  string
	Query       string
}

// NewFormula builds the QUERY formula selecting columns A through the last header column of sheet.
func NewFormula(sheet string, header model.Header, query string) Formula {
	return Formula{
		Sheet:       sheet,
		FirstColumn: "A",
		LastColumn:  header.LastLetter(),
		Query:       query,
	}
}

// String renders the formula without the leading '='.
func (f Formula) String() string {
	return fmt.Sprintf(`%s(%s!%s:%s, "%s")`,
		queryFunction,
		quoteSheetName(f.Sheet),
		f.FirstColumn,
		f.LastColumn,
		strings.ReplaceAll(f.Query, `"`, `""`),
	)
}

// Columns returns the 1-based first and last column positions of the range.
func (f Formula) Columns() (int, int, error) {
	first, err := model.ColumnNumber(f.FirstColumn)
	if err != nil {
		return 0, 0, err
	}
	last, err := model.ColumnNumber(f.LastColumn)
	if err != nil {
		return 0, 0, err
	}
	if last < first {
		return 0, 0, fmt.Errorf("%w: range %s:%s", ErrMalformedFormula, f.FirstColumn, f.LastColumn)
	}
	return first, last, nil
}

// quoteSheetName wraps a sheet name in single quotes unless it is a plain identifier.
func quoteSheetName(name string) string {
	plain := name != ""
	for _, r := range name {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			plain = false
			break
		}
	}
	if plain {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// ParseFormula parses the text produced by Formula.String. A leading '=' is accepted.
func ParseFormula(text string) (Formula, error) {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "="))
	if len(s) < len(queryFunction)+1 || !strings.EqualFold(s[:len(queryFunction)], queryFunction) {
		return Formula{}, fmt.Errorf("%w: %q", ErrMalformedFormula, text)
	}
	s = strings.TrimSpace(s[len(queryFunction):])
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return Formula{}, fmt.Errorf("%w: %q", ErrMalformedFormula, text)
	}
	s = strings.TrimSpace(s[1 : len(s)-1])

	var f Formula
	rest, err := parseSheetName(s, &f)
	if err != nil {
		return Formula{}, fmt.Errorf("%w: %q", err, text)
	}

	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return Formula{}, fmt.Errorf("%w: missing query argument in %q", ErrMalformedFormula, text)
	}
	first, last, ok := strings.Cut(strings.TrimSpace(rest[:comma]), ":")
	if !ok {
		return Formula{}, fmt.Errorf("%w: bad range in %q", ErrMalformedFormula, text)
	}
	f.FirstColumn = strings.ToUpper(strings.TrimSpace(first))
	f.LastColumn = strings.ToUpper(strings.TrimSpace(last))
	if _, _, err := f.Columns(); err != nil {
		return Formula{}, fmt.Errorf("%w: %q", ErrMalformedFormula, text)
	}

	arg := strings.TrimSpace(rest[comma+1:])
	end, terminated := scanQuoted(arg, 0, '"')
	if !strings.HasPrefix(arg, `"`) || !terminated || end != len(arg) {
		return Formula{}, fmt.Errorf("%w: query must be one double-quoted string in %q", ErrMalformedFormula, text)
	}
	f.Query = strings.ReplaceAll(arg[1:len(arg)-1], `""`, `"`)
	return f, nil
}

// parseSheetName reads the sheet part of "sheet!A:E" into f and returns the text after '!'.
func parseSheetName(s string, f *Formula) (string, error) {
	if strings.HasPrefix(s, "'") {
		end, ok := scanQuoted(s, 0, '\'')
		if !ok || end >= len(s) || s[end] != '!' {
			return "", ErrMalformedFormula
		}
		f.Sheet = strings.ReplaceAll(s[1:end-1], "''", "'")
		return s[end+1:], nil
	}

	name, rest, ok := strings.Cut(s, "!")
	if !ok || strings.TrimSpace(name) == "" {
		return "", ErrMalformedFormula
	}
	f.Sheet = strings.TrimSpace(name)
	return rest, nil
}
