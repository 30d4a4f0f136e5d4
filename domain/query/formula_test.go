package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormula_String(t *testing.T) {
	t.Parallel()

	t.Run("plain sheet name", func(t *testing.T) {
		t.Parallel()
		f := NewFormula("users", usersHeader(), "select A where C = 'x'")
		assert.Equal(t, `QUERY(users!A:E, "select A where C = 'x'")`, f.String())
	})

	t.Run("sheet name with space and quote", func(t *testing.T) {
		t.Parallel()
		f := NewFormula("bob's list", usersHeader(), "select A")
		assert.Equal(t, `QUERY('bob''s list'!A:E, "select A")`, f.String())
	})

	t.Run("double quotes in the query are doubled", func(t *testing.T) {
		t.Parallel()
		f := NewFormula("users", usersHeader(), `where C = "x"`)
		assert.Equal(t, `QUERY(users!A:E, "where C = ""x""")`, f.String())
	})
}

func TestParseFormula(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		for _, f := range []Formula{
			NewFormula("users", usersHeader(), "select A where C = 'hiromi suzuki'"),
			NewFormula("bob's list", usersHeader(), `where C = "x" and D = 'y'`),
			NewFormula("users", usersHeader(), ""),
		} {
			got, err := ParseFormula("=" + f.String())
			require.NoError(t, err, f.String())
			assert.Equal(t, f, got)
		}
	})

	t.Run("lower case function and range", func(t *testing.T) {
		t.Parallel()

		got, err := ParseFormula(`query(users!a:c, "select A")`)
		require.NoError(t, err)
		assert.Equal(t, Formula{Sheet: "users", FirstColumn: "A", LastColumn: "C", Query: "select A"}, got)

		first, last, err := got.Columns()
		require.NoError(t, err)
		assert.Equal(t, 1, first)
		assert.Equal(t, 3, last)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()

		for _, text := range []string{
			"",
			"SUM(A:E)",
			"QUERY(users!A:E)",
			`QUERY(users!E:A, "x")`,
			`QUERY(users!A:E, "x" & "y")`,
			`QUERY(users!A:E, select A)`,
			`QUERY(A:E, "select A")`,
			`QUERY(users!A:E, "select A"`,
		} {
			_, err := ParseFormula(text)
			assert.ErrorIs(t, err, ErrMalformedFormula, text)
		}
	})
}
