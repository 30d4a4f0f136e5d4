package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrGrammar is returned when a fragment is not valid in the query language
var ErrGrammar = errors.New("invalid query")

type clause int

const (
	clauseNone clause = iota - 1
	clauseSelect
	clauseWhere
	clauseGroupBy
	clausePivot
	clauseOrderBy
	clauseLimit
	clauseOffset
	clauseLabel
	clauseFormat
	clauseOptions
)

var clauseNames = map[clause]string{
	clauseSelect:  "select",
	clauseWhere:   "where",
	clauseGroupBy: "group by",
	clausePivot:   "pivot",
	clauseOrderBy: "order by",
	clauseLimit:   "limit",
	clauseOffset:  "offset",
	clauseLabel:   "label",
	clauseFormat:  "format",
	clauseOptions: "options",
}

var singleWordClauses = map[string]clause{
	"select":  clauseSelect,
	"where":   clauseWhere,
	"pivot":   clausePivot,
	"limit":   clauseLimit,
	"offset":  clauseOffset,
	"label":   clauseLabel,
	"format":  clauseFormat,
	"options": clauseOptions,
}

// Statement is a parsed query-language fragment. Empty strings mean the clause is absent;
// Limit and Offset are -1 when absent.
type Statement struct {
	Select  string
	Where   string
	GroupBy string
	OrderBy string
	Limit   int
	Offset  int
}

// Parse parses a fragment such as "select A, C where D > 20 order by C limit 5".
// A fragment without a select clause selects every column.
func Parse(fragment string) (*Statement, error) {
	tokens := lex(fragment)
	for _, t := range tokens {
		if t.unterminated {
			return nil, fmt.Errorf("%w: unterminated %s", ErrGrammar, t.text)
		}
		if t.kind == tokenSymbol && t.text == ";" {
			return nil, fmt.Errorf("%w: multiple statements are not allowed", ErrGrammar)
		}
	}

	bodies, err := splitClauses(tokens)
	if err != nil {
		return nil, err
	}

	stmt := &Statement{Select: "*", Limit: -1, Offset: -1}
	for c := clauseSelect; c <= clauseOptions; c++ {
		body, ok := bodies[c]
		if !ok {
			continue
		}
		rewritten, err := rewriteOperators(body)
		if err != nil {
			return nil, err
		}
		text := strings.TrimSpace(render(rewritten))
		if text == "" {
			return nil, fmt.Errorf("%w: empty %s clause", ErrGrammar, clauseNames[c])
		}

		switch c {
		case clauseSelect:
			stmt.Select = text
		case clauseWhere:
			stmt.Where = text
		case clauseGroupBy:
			stmt.GroupBy = text
		case clauseOrderBy:
			stmt.OrderBy = text
		case clauseLimit, clauseOffset:
			n, err := strconv.Atoi(text)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: %s needs a non-negative integer, got %q", ErrGrammar, clauseNames[c], text)
			}
			if c == clauseLimit {
				stmt.Limit = n
			} else {
				stmt.Offset = n
			}
		default:
			return nil, fmt.Errorf("%w: %s clause is not supported", ErrGrammar, clauseNames[c])
		}
	}
	return stmt, nil
}

// splitClauses cuts the token stream at top-level clause keywords.
func splitClauses(tokens []token) (map[clause][]token, error) {
	bodies := make(map[clause][]token)
	current := clauseNone
	depth := 0

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.kind == tokenSymbol {
			switch t.text {
			case "(":
				depth++
			case ")":
				depth--
				if depth < 0 {
					return nil, fmt.Errorf("%w: unbalanced parenthesis", ErrGrammar)
				}
			}
		}

		next := clauseNone
		skip := 0
		if depth == 0 && t.kind == tokenIdent {
			if c, ok := singleWordClauses[t.word()]; ok {
				next = c
			} else if w := t.word(); w == "group" || w == "order" {
				if j := nextNonSpace(tokens, i+1); j > 0 && tokens[j].word() == "by" {
					next = clauseOrderBy
					if w == "group" {
						next = clauseGroupBy
					}
					skip = j - i
				}
			}
		}

		if next == clauseNone {
			if current == clauseNone {
				if t.kind != tokenSpace {
					return nil, fmt.Errorf("%w: unexpected %q before the first clause", ErrGrammar, t.text)
				}
				continue
			}
			bodies[current] = append(bodies[current], t)
			continue
		}

		if next <= current {
			return nil, fmt.Errorf("%w: %s clause is duplicated or out of order", ErrGrammar, clauseNames[next])
		}
		current = next
		bodies[current] = []token{}
		i += skip
	}

	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced parenthesis", ErrGrammar)
	}
	return bodies, nil
}

// nextNonSpace returns the index of the first non-space token at or after i, or -1.
func nextNonSpace(tokens []token, i int) int {
	for ; i < len(tokens); i++ {
		if tokens[i].kind != tokenSpace {
			return i
		}
	}
	return -1
}

// lastNonSpace returns the index of the last non-space token in tokens, or -1.
func lastNonSpace(tokens []token) int {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].kind != tokenSpace {
			return i
		}
	}
	return -1
}

// rewriteOperators maps query-language literals and string operators onto SQLite expressions.
func rewriteOperators(tokens []token) ([]token, error) {
	out := make([]token, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch {
		case t.kind == tokenString:
			out = append(out, sqlString(t.literal()))

		case t.kind == tokenQuotedIdent:
			return nil, fmt.Errorf("%w: unknown column %s", ErrGrammar, t.text)

		case isTypedLiteralKeyword(t.word()):
			j := nextNonSpace(tokens, i+1)
			if j < 0 || tokens[j].kind != tokenString {
				out = append(out, t)
				continue
			}
			out = append(out, sqlString(tokens[j].literal()))
			i = j

		case t.word() == "matches":
			return nil, fmt.Errorf("%w: matches operator is not supported", ErrGrammar)

		case t.word() == "contains" || t.word() == "starts" || t.word() == "ends":
			op := t.word()
			j := i
			if op != "contains" {
				j = nextNonSpace(tokens, i+1)
				if j < 0 || tokens[j].word() != "with" {
					out = append(out, t)
					continue
				}
			}
			k := nextNonSpace(tokens, j+1)
			if k < 0 || tokens[k].kind != tokenString {
				return nil, fmt.Errorf("%w: %s needs a string literal", ErrGrammar, op)
			}
			l := operandStart(out)
			if l < 0 {
				return nil, fmt.Errorf("%w: %s needs a column on its left", ErrGrammar, op)
			}

			lhs := strings.TrimSpace(render(out[l:]))
			rhs := sqlString(tokens[k].literal()).text
			var expr string
			switch op {
			case "contains":
				expr = fmt.Sprintf("instr(%s, %s) > 0", lhs, rhs)
			case "starts":
				expr = fmt.Sprintf("substr(%s, 1, length(%s)) = %s", lhs, rhs, rhs)
			default:
				expr = fmt.Sprintf("substr(%s, -length(%s)) = %s", lhs, rhs, rhs)
			}
			out = append(out[:l], token{kind: tokenSymbol, text: expr})
			i = k

		default:
			out = append(out, t)
		}
	}
	return out, nil
}

// operandStart returns the index where the operand ending at the last non-space token
// of out begins. The operand is a column, a literal or a function call such as lower(B).
func operandStart(out []token) int {
	l := lastNonSpace(out)
	if l < 0 {
		return -1
	}
	switch {
	case out[l].kind == tokenIdent && out[l].word() != "" && !isOperatorWord(out[l].word()):
		return l
	case out[l].kind == tokenString || out[l].kind == tokenNumber:
		return l
	case out[l].kind == tokenSymbol && out[l].text == ")":
		depth := 0
		for i := l; i >= 0; i-- {
			if out[i].kind != tokenSymbol {
				continue
			}
			switch out[i].text {
			case ")":
				depth++
			case "(":
				depth--
			}
			if depth == 0 {
				if fn := lastNonSpace(out[:i]); fn >= 0 && out[fn].kind == tokenIdent && !isOperatorWord(out[fn].word()) {
					return fn
				}
				return i
			}
		}
	}
	return -1
}

func isOperatorWord(word string) bool {
	switch word {
	case "and", "or", "not":
		return true
	default:
		return false
	}
}

func isTypedLiteralKeyword(word string) bool {
	switch word {
	case "date", "datetime", "timestamp", "timeofday":
		return true
	default:
		return false
	}
}

// sqlString renders s as a single-quoted SQLite string literal.
func sqlString(s string) token {
	return token{kind: tokenString, text: "'" + strings.ReplaceAll(s, "'", "''") + "'"}
}

// SQL renders the statement as a SQLite SELECT over table.
func (s *Statement) SQL(table string) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(s.Select)
	b.WriteString(" FROM ")
	b.WriteString(QuoteIdentifier(table))
	if s.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(s.Where)
	}
	if s.GroupBy != "" {
		b.WriteString(" GROUP BY ")
		b.WriteString(s.GroupBy)
	}
	if s.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(s.OrderBy)
	}
	switch {
	case s.Limit >= 0:
		fmt.Fprintf(&b, " LIMIT %d", s.Limit)
	case s.Offset >= 0:
		b.WriteString(" LIMIT -1")
	}
	if s.Offset >= 0 {
		fmt.Fprintf(&b, " OFFSET %d", s.Offset)
	}
	return b.String()
}

// Compile parses fragment and renders it as SQL over table.
func Compile(fragment, table string) (string, error) {
	stmt, err := Parse(fragment)
	if err != nil {
		return "", err
	}
	return stmt.SQL(table), nil
}

// QuoteIdentifier quotes a SQLite identifier with square brackets.
func QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
