package driver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/sheetdb/domain/model"
	"github.com/nao1215/sheetdb/domain/query"
)

func usersSource() model.Matrix {
	return model.Matrix{
		{"row", "id", "name", "address", "age"},
		{int64(2), int64(1), "hiromi suzuki", "tokyo", int64(20)},
		{int64(3), int64(2), "kenta tsujii", "osaka", int64(31)},
		{int64(4), int64(3), "naoki", "", ""},
	}
}

func usersFormula(q string) query.Formula {
	return query.Formula{Sheet: "users", FirstColumn: "A", LastColumn: "E", Query: q}
}

func TestEngine_Evaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  model.Matrix
	}{
		{
			name:  "no query returns every data row",
			query: "",
			want: model.Matrix{
				{int64(2), int64(1), "hiromi suzuki", "tokyo", int64(20)},
				{int64(3), int64(2), "kenta tsujii", "osaka", int64(31)},
				{int64(4), int64(3), "naoki", "", ""},
			},
		},
		{
			name:  "identity projection",
			query: "select A where C = 'hiromi suzuki'",
			want:  model.Matrix{{int64(2)}},
		},
		{
			name:  "numeric comparison",
			query: "select A, C where E > 25",
			want:  model.Matrix{{int64(3), "kenta tsujii"}},
		},
		{
			name:  "contains",
			query: "select C where C contains 'suzuki'",
			want:  model.Matrix{{"hiromi suzuki"}},
		},
		{
			name:  "group by",
			query: "select D, count(A) group by D order by D",
			want: model.Matrix{
				{"", int64(1)},
				{"osaka", int64(1)},
				{"tokyo", int64(1)},
			},
		},
		{
			name:  "limit and offset",
			query: "select B order by B desc limit 1 offset 1",
			want:  model.Matrix{{int64(2)}},
		},
		{
			name:  "no match",
			query: "where C = 'nobody'",
			want:  model.Matrix{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NewEngine().Evaluate(t.Context(), usersFormula(tt.query), usersSource())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_EvaluateHeaderOnly(t *testing.T) {
	t.Parallel()

	source := model.Matrix{{"row", "id", "name", "address", "age"}}
	got, err := NewEngine().Evaluate(t.Context(), usersFormula("select A"), source)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEngine_EvaluateRealColumn(t *testing.T) {
	t.Parallel()

	source := model.Matrix{
		{"row", "price"},
		{int64(2), int64(1)},
		{int64(3), 1.5},
	}
	f := query.Formula{Sheet: "items", FirstColumn: "A", LastColumn: "B", Query: "select B order by A"}

	got, err := NewEngine().Evaluate(t.Context(), f, source)
	require.NoError(t, err)
	assert.Equal(t, model.Matrix{{int64(1)}, {1.5}}, got)
}

func TestEngine_EvaluateKeepsCellTypes(t *testing.T) {
	t.Parallel()

	source := model.Matrix{
		{"row", "zip", "active", "price", "note"},
		{int64(2), "007", true, "1.50", int64(10)},
		{int64(3), "0123", false, "2", "ten"},
		{int64(4), "", "", "", ""},
	}
	f := query.Formula{Sheet: "items", FirstColumn: "A", LastColumn: "E", Query: "select B, C, D, E order by A"}

	got, err := NewEngine().Evaluate(t.Context(), f, source)
	require.NoError(t, err)
	assert.Equal(t, model.Matrix{
		{"007", true, "1.50", int64(10)},
		{"0123", false, "2", "ten"},
		{"", "", "", ""},
	}, got)

	t.Run("boolean filter", func(t *testing.T) {
		t.Parallel()

		f := query.Formula{Sheet: "items", FirstColumn: "A", LastColumn: "E", Query: "select B where C = true"}
		got, err := NewEngine().Evaluate(t.Context(), f, source)
		require.NoError(t, err)
		assert.Equal(t, model.Matrix{{"007"}}, got)
	})
}

func TestEngine_EvaluateErrors(t *testing.T) {
	t.Parallel()

	t.Run("grammar error", func(t *testing.T) {
		t.Parallel()

		_, err := NewEngine().Evaluate(t.Context(), usersFormula("where"), usersSource())
		assert.ErrorIs(t, err, ErrQuery)
		assert.ErrorIs(t, err, query.ErrGrammar)
	})

	t.Run("column outside the range", func(t *testing.T) {
		t.Parallel()

		_, err := NewEngine().Evaluate(t.Context(), usersFormula("where F = 1"), usersSource())
		assert.ErrorIs(t, err, ErrQuery)
	})

	t.Run("reversed range", func(t *testing.T) {
		t.Parallel()

		f := query.Formula{Sheet: "users", FirstColumn: "E", LastColumn: "A"}
		_, err := NewEngine().Evaluate(t.Context(), f, usersSource())
		assert.ErrorIs(t, err, ErrQuery)
	})
}

func TestBuildCreateTableQuery(t *testing.T) {
	t.Parallel()

	got := buildCreateTableQuery([]model.ColumnInfo{
		{Name: "A", Type: model.ColumnTypeInteger},
		{Name: "B", Type: model.ColumnTypeText},
		{Name: "C", Type: model.ColumnTypeReal},
		{Name: "D", Type: model.ColumnTypeBoolean},
		{Name: "E", Type: model.ColumnTypeMixed},
	})
	assert.Equal(t, "CREATE TABLE [data] ([A] INTEGER, [B] TEXT, [C] NUMERIC, [D] BOOLEAN, [E] BLOB)", got)
	assert.Equal(t, "INSERT INTO [data] VALUES (?, ?, ?)", buildInsertQuery(3))
}

func TestValidateFieldValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", ValidateFieldValue("a\x00bc"))
	assert.Len(t, ValidateFieldValue(strings.Repeat("a", MaxValueLength+10)), MaxValueLength)
	assert.ErrorIs(t, ValidateColumnCount(MaxColumnCount+1), ErrTooManyColumns)
	assert.NoError(t, ValidateColumnCount(MaxColumnCount))
}
