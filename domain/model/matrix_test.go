package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatrix_DropLast(t *testing.T) {
	t.Parallel()

	m := Matrix{{int64(2), "a"}, {int64(3), "b"}, {"", ""}}
	assert.Equal(t, Matrix{{int64(2), "a"}, {int64(3), "b"}}, m.DropLast())
	assert.Empty(t, Matrix{{""}}.DropLast())
	assert.Empty(t, Matrix{}.DropLast())
}

func TestMatrix_ErrorToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		m     Matrix
		token string
		isErr bool
	}{
		{name: "value error", m: Matrix{{"#VALUE!"}}, token: "#VALUE!", isErr: true},
		{name: "error with blank trailing cells", m: Matrix{{"#N/A", "", ""}}, token: "#N/A", isErr: true},
		{name: "regular single cell", m: Matrix{{"hello"}}},
		{name: "error token among data", m: Matrix{{"#VALUE!", "x"}}},
		{name: "two rows", m: Matrix{{"#VALUE!"}, {"#VALUE!"}}},
		{name: "numeric cell", m: Matrix{{int64(1)}}},
		{name: "empty", m: Matrix{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			token, ok := tt.m.ErrorToken()
			assert.Equal(t, tt.isErr, ok)
			assert.Equal(t, tt.token, token)
		})
	}
}

func TestMatrix_ColumnAndWidth(t *testing.T) {
	t.Parallel()

	m := Matrix{{int64(2), "a", "x"}, {int64(3)}}
	assert.Equal(t, 3, m.Width())
	assert.Equal(t, []any{"x", ""}, m.Column(2))
	assert.Equal(t, []any{int64(2), int64(3)}, m.Column(0))

	empty := NewMatrix(2, 2)
	assert.Equal(t, Matrix{{"", ""}, {"", ""}}, empty)
}

func TestToString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       any
		expected string
	}{
		{nil, ""},
		{"abc", "abc"},
		{int64(42), "42"},
		{7, "7"},
		{3.5, "3.5"},
		{float64(30), "30"},
		{true, "TRUE"},
		{false, "FALSE"},
		{IdentityFormula, "=ROW()"},
		{[]byte("raw"), "raw"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ToString(tt.in), "ToString(%#v)", tt.in)
	}
}

func TestToInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in any
		n  int
		ok bool
	}{
		{int64(5), 5, true},
		{5, 5, true},
		{float64(7), 7, true},
		{7.5, 0, false},
		{" 12 ", 12, true},
		{"abc", 0, false},
		{true, 0, false},
	}

	for _, tt := range tests {
		n, ok := ToInt(tt.in)
		assert.Equal(t, tt.ok, ok, "ToInt(%#v)", tt.in)
		assert.Equal(t, tt.n, n, "ToInt(%#v)", tt.in)
	}
}

func TestParseScalar(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(30), ParseScalar("30"))
	assert.Equal(t, 1.5, ParseScalar("1.5"))
	assert.Equal(t, "kanagawa", ParseScalar("kanagawa"))
	assert.Equal(t, "", ParseScalar(""))
	assert.Equal(t, "NaN", ParseScalar("NaN"))
	assert.Equal(t, "Inf", ParseScalar("Inf"))
}
