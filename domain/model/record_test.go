package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInsertRow(t *testing.T) {
	t.Parallel()

	header := Header{"row", "id", "name", "address", "age"}

	t.Run("Full record", func(t *testing.T) {
		t.Parallel()

		row := NewInsertRow(header, Record{"id": 1, "name": "kenta tsujii", "address": "kanagawa", "age": 30})
		assert.Equal(t, []any{IdentityFormula, 1, "kenta tsujii", "kanagawa", 30}, row)
	})

	t.Run("Missing, nil and unknown keys", func(t *testing.T) {
		t.Parallel()

		row := NewInsertRow(header, Record{"id": 2, "age": nil, "hhh": "gggg"})
		assert.Equal(t, []any{IdentityFormula, 2, "", "", ""}, row)
	})
}

func TestNewUpdateVector(t *testing.T) {
	t.Parallel()

	header := Header{"row", "id", "name", "address", "age"}
	vector := NewUpdateVector(header, Record{"id": "fuga", "name": "hoge", "hhh": "gggg"})

	assert.Len(t, vector, 4)
	assert.Equal(t, "fuga", vector[0])
	assert.Equal(t, "hoge", vector[1])
	assert.True(t, IsUnset(vector[2]), "address is absent")
	assert.True(t, IsUnset(vector[3]), "age is absent")
	assert.False(t, vector.IsNoop())

	assert.True(t, NewUpdateVector(header, Record{"hhh": 1}).IsNoop())
	assert.True(t, NewUpdateVector(header, Record{"id": Unset}).IsNoop())
}

func TestUpdateVector_Overlay(t *testing.T) {
	t.Parallel()

	t.Run("Absent values keep the existing cell", func(t *testing.T) {
		t.Parallel()

		vector := UpdateVector{"fuga", "hoge", Unset, Unset}
		got := vector.Overlay([]any{int64(2), "hiromi suzuki", "kanagawa", int64(38)})
		assert.Equal(t, []any{"fuga", "hoge", "kanagawa", int64(38)}, got)
	})

	t.Run("Falsy values are written", func(t *testing.T) {
		t.Parallel()

		vector := UpdateVector{"", 0, false, Unset}
		got := vector.Overlay([]any{"a", int64(1), true, "keep"})
		assert.Equal(t, []any{"", 0, false, "keep"}, got)
	})

	t.Run("Short row is padded", func(t *testing.T) {
		t.Parallel()

		vector := UpdateVector{Unset, "x"}
		got := vector.Overlay([]any{"a"})
		assert.Equal(t, []any{"a", "x"}, got)
	})

	t.Run("Original row is not modified", func(t *testing.T) {
		t.Parallel()

		row := []any{"a", "b"}
		_ = UpdateVector{"x", Unset}.Overlay(row)
		assert.Equal(t, []any{"a", "b"}, row)
	})
}

func TestUnset_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", ToString(Unset))
	assert.False(t, IsUnset(""))
	assert.False(t, IsUnset(nil))
}
