// Package query translates filter fragments written with column names into
// fragments addressed by column letters, builds the QUERY formula staged in the
// scratch sheet, and compiles the query language into SQL for the evaluation engine.
package query

import (
	"strings"

	"github.com/nao1215/sheetdb/domain/model"
)

// structuralKeywords are never rewritten as column names unless written as `quoted identifiers`.
var structuralKeywords = map[string]struct{}{
	"select": {}, "where": {}, "group": {}, "by": {}, "order": {}, "pivot": {},
	"limit": {}, "offset": {}, "label": {}, "format": {}, "options": {},
	"and": {}, "or": {}, "not": {}, "is": {}, "null": {}, "asc": {}, "desc": {},
	"like": {}, "contains": {}, "starts": {}, "ends": {}, "with": {}, "matches": {},
	"true": {}, "false": {},
}

// IsKeyword reports whether name is a query-language keyword. Filters never read a
// keyword as a column name unless it is backquoted.
func IsKeyword(name string) bool {
	_, ok := structuralKeywords[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Translator rewrites column names in filter fragments into column letters.
type Translator struct {
	letters map[string]string // folded column name -> letter
}

// NewTranslator builds a Translator for a table header. When two columns fold to the
// same name the leftmost one wins.
func NewTranslator(header model.Header) *Translator {
	letters := make(map[string]string, len(header))
	for i, name := range header {
		key := model.FoldName(name)
		if _, ok := letters[key]; ok {
			continue
		}
		letter, err := model.ColumnLetter(i + 1)
		if err != nil {
			continue
		}
		letters[key] = letter
	}
	return &Translator{letters: letters}
}

// Translate returns fragment with every identifier that names a header column replaced
// by the column letter. Matching is case-insensitive and whole-token only; string
// literals are never touched. Each token is rewritten at most once, so a letter produced
// by one replacement is never matched against another column.
func (tr *Translator) Translate(fragment string) string {
	tokens := lex(fragment)
	for i, t := range tokens {
		switch t.kind {
		case tokenIdent:
			if _, ok := structuralKeywords[t.word()]; ok {
				continue
			}
			if letter, ok := tr.letters[model.FoldName(t.text)]; ok {
				tokens[i].text = letter
			}
		case tokenQuotedIdent:
			if letter, ok := tr.letters[model.FoldName(t.quotedName())]; ok {
				tokens[i] = token{kind: tokenIdent, text: letter}
			}
		}
	}
	return render(tokens)
}

// Letter returns the column letter of a header column, matched case-insensitively.
func (tr *Translator) Letter(name string) (string, bool) {
	letter, ok := tr.letters[model.FoldName(name)]
	return letter, ok
}

// Translate is a convenience wrapper around NewTranslator(header).Translate(fragment).
func Translate(header model.Header, fragment string) string {
	return NewTranslator(header).Translate(fragment)
}
