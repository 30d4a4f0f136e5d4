package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokenSpace tokenKind = iota
	tokenIdent
	tokenQuotedIdent
	tokenString
	tokenNumber
	tokenSymbol
)

// token is a lexical unit of a query fragment. text is the exact source text,
// so concatenating the text of all tokens reproduces the fragment.
type token struct {
	kind tokenKind
	text string
	// unterminated is set for string literals and quoted identifiers missing their closing quote.
	unterminated bool
}

// word returns the lower-cased text of an identifier token, or "" for other kinds.
func (t token) word() string {
	if t.kind != tokenIdent {
		return ""
	}
	return strings.ToLower(t.text)
}

// literal returns the content of a string literal without quotes and escapes.
func (t token) literal() string {
	if t.kind != tokenString || len(t.text) < 2 || t.unterminated {
		return ""
	}
	quote := t.text[:1]
	body := t.text[1 : len(t.text)-1]
	return strings.ReplaceAll(body, quote+quote, quote)
}

// quotedName returns the name inside a `quoted identifier`.
func (t token) quotedName() string {
	if t.kind != tokenQuotedIdent || len(t.text) < 2 || t.unterminated {
		return ""
	}
	return t.text[1 : len(t.text)-1]
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// lex splits a fragment into tokens. It never fails: malformed input is reported
// through unterminated tokens and left for the grammar check.
func lex(s string) []token {
	var tokens []token
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case unicode.IsSpace(r):
			j := i + size
			for j < len(s) {
				r2, size2 := utf8.DecodeRuneInString(s[j:])
				if !unicode.IsSpace(r2) {
					break
				}
				j += size2
			}
			tokens = append(tokens, token{kind: tokenSpace, text: s[i:j]})
			i = j
		case r == '\'' || r == '"':
			end, ok := scanQuoted(s, i, byte(r))
			tokens = append(tokens, token{kind: tokenString, text: s[i:end], unterminated: !ok})
			i = end
		case r == '`':
			end, ok := scanQuoted(s, i, '`')
			tokens = append(tokens, token{kind: tokenQuotedIdent, text: s[i:end], unterminated: !ok})
			i = end
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9'):
			j := i + size
			for j < len(s) {
				r2, size2 := utf8.DecodeRuneInString(s[j:])
				if !unicode.IsDigit(r2) && r2 != '.' && !unicode.IsLetter(r2) {
					break
				}
				j += size2
			}
			tokens = append(tokens, token{kind: tokenNumber, text: s[i:j]})
			i = j
		case isIdentStart(r):
			j := i + size
			for j < len(s) {
				r2, size2 := utf8.DecodeRuneInString(s[j:])
				if !isIdentPart(r2) {
					break
				}
				j += size2
			}
			tokens = append(tokens, token{kind: tokenIdent, text: s[i:j]})
			i = j
		default:
			j := i + size
			if j < len(s) && isTwoCharOperator(s[i:j+1]) {
				j++
			}
			tokens = append(tokens, token{kind: tokenSymbol, text: s[i:j]})
			i = j
		}
	}
	return tokens
}

// scanQuoted returns the end offset of a quoted run starting at s[start]. A doubled
// quote inside the run is an escaped quote.
func scanQuoted(s string, start int, quote byte) (int, bool) {
	for j := start + 1; j < len(s); j++ {
		if s[j] != quote {
			continue
		}
		if j+1 < len(s) && s[j+1] == quote {
			j++
			continue
		}
		return j + 1, true
	}
	return len(s), false
}

func isTwoCharOperator(op string) bool {
	switch op {
	case "!=", "<>", "<=", ">=", "==", "||":
		return true
	default:
		return false
	}
}

// render concatenates token texts.
func render(tokens []token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.text)
	}
	return b.String()
}
