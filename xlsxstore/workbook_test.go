package xlsxstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/sheetdb/domain/model"
)

var usersHeader = []any{"row", "id", "name", "address", "age"}

// newUsersWorkbook creates a workbook holding a "users" sheet with two data rows.
func newUsersWorkbook(t *testing.T, path string) *Workbook {
	t.Helper()

	wb, err := Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = wb.Close() })

	require.NoError(t, wb.CreateSheet("users"))
	require.NoError(t, wb.SetRange("users", 1, 1, model.Matrix{usersHeader}))
	require.NoError(t, wb.AppendRow("users", []any{model.IdentityFormula, int64(1), "hiromi suzuki", "tokyo", int64(20)}))
	require.NoError(t, wb.AppendRow("users", []any{model.IdentityFormula, int64(2), "kenta tsujii", "osaka", int64(31)}))
	return wb
}

func TestCreate(t *testing.T) {
	t.Parallel()

	t.Run("existing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "test_db.xlsx")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0600))

		_, err := Create(path)
		assert.ErrorIs(t, err, ErrWorkbookExists)
	})

	t.Run("bzip2 is read only", func(t *testing.T) {
		t.Parallel()

		_, err := Create(filepath.Join(t.TempDir(), "test_db.xlsx.bz2"))
		assert.ErrorIs(t, err, model.ErrCompressionNotWritable)
	})

	t.Run("nothing is written before save", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "test_db.xlsx")
		wb, err := Create(path)
		require.NoError(t, err)
		defer wb.Close()

		assert.Equal(t, path, wb.Path())
		assert.NoFileExists(t, path)
	})
}

func TestOpen_NotFound(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.ErrorIs(t, err, ErrWorkbookNotFound)
}

func TestWorkbook_SaveAndOpen(t *testing.T) {
	t.Parallel()

	for _, ct := range []model.CompressionType{model.CompressionNone, model.CompressionGZ, model.CompressionXZ, model.CompressionZSTD} {
		t.Run(ct.String(), func(t *testing.T) {
			t.Parallel()

			path := FilePath(t.TempDir(), "test_db", ct)
			wb := newUsersWorkbook(t, path)
			require.NoError(t, wb.Save(t.Context()))
			require.FileExists(t, path)

			reopened, err := Open(path)
			require.NoError(t, err)
			defer reopened.Close()

			assert.Contains(t, reopened.SheetNames(), "users")
			got, err := reopened.GetRange("users", 1, 1, 3, 5)
			require.NoError(t, err)
			assert.Equal(t, model.Matrix{
				usersHeader,
				{int64(2), int64(1), "hiromi suzuki", "tokyo", int64(20)},
				{int64(3), int64(2), "kenta tsujii", "osaka", int64(31)},
			}, got)
		})
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	path := FilePath(t.TempDir(), "test_db", model.CompressionNone)
	wb := newUsersWorkbook(t, path)
	require.NoError(t, wb.Save(t.Context()))

	require.NoError(t, Remove(path))
	assert.NoFileExists(t, path)
	assert.ErrorIs(t, Remove(path), ErrWorkbookNotFound)
}

func TestWorkbook_Sheets(t *testing.T) {
	t.Parallel()

	wb := newUsersWorkbook(t, filepath.Join(t.TempDir(), "test_db.xlsx"))

	assert.True(t, wb.HasSheet("users"))
	assert.False(t, wb.HasSheet("orders"))
	assert.ErrorIs(t, wb.CreateSheet("users"), ErrSheetExists)
	assert.ErrorIs(t, wb.CreateSheet("a/b"), ErrInvalidName)

	require.NoError(t, wb.DeleteSheet("Sheet1"))
	assert.Equal(t, []string{"users"}, wb.SheetNames())
	assert.Error(t, wb.DeleteSheet("users"))
	assert.ErrorIs(t, wb.DeleteSheet("orders"), ErrSheetNotFound)
}

func TestWorkbook_CellTypes(t *testing.T) {
	t.Parallel()

	wb := newUsersWorkbook(t, filepath.Join(t.TempDir(), "test_db.xlsx"))
	require.NoError(t, wb.CreateSheet("types"))
	require.NoError(t, wb.SetRange("types", 1, 2, model.Matrix{{"001", 1.5, true, nil, "=1+1"}}))

	got, err := wb.GetRange("types", 1, 2, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, model.Matrix{{"001", 1.5, true, "", "=1+1"}}, got)
}

func TestWorkbook_RowsAndExtent(t *testing.T) {
	t.Parallel()

	wb := newUsersWorkbook(t, filepath.Join(t.TempDir(), "test_db.xlsx"))

	lastRow, err := wb.LastRow("users")
	require.NoError(t, err)
	assert.Equal(t, 3, lastRow)
	lastColumn, err := wb.LastColumn("users")
	require.NoError(t, err)
	assert.Equal(t, 5, lastColumn)

	t.Run("rows holding only the identity formula count", func(t *testing.T) {
		require.NoError(t, wb.AppendRow("users", model.NewInsertRow(model.Header{"row", "id", "name", "address", "age"}, model.Record{})))
		require.NoError(t, wb.AppendRow("users", []any{model.IdentityFormula, int64(4)}))

		lastRow, err := wb.LastRow("users")
		require.NoError(t, err)
		assert.Equal(t, 5, lastRow)

		got, err := wb.GetRange("users", 4, 1, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, model.Matrix{{int64(4), ""}, {int64(5), int64(4)}}, got)
	})

	t.Run("identity follows row deletion", func(t *testing.T) {
		require.NoError(t, wb.DeleteRow("users", 2))

		got, err := wb.GetRange("users", 2, 1, 1, 3)
		require.NoError(t, err)
		assert.Equal(t, model.Matrix{{int64(2), int64(2), "kenta tsujii"}}, got)
	})

	t.Run("delete a range of rows", func(t *testing.T) {
		require.NoError(t, wb.DeleteRows("users", 2, 3))
		require.NoError(t, wb.DeleteRows("users", 2, 0))

		lastRow, err := wb.LastRow("users")
		require.NoError(t, err)
		assert.Equal(t, 1, lastRow)
	})
}

func TestWorkbook_InvalidRange(t *testing.T) {
	t.Parallel()

	wb := newUsersWorkbook(t, filepath.Join(t.TempDir(), "test_db.xlsx"))

	_, err := wb.GetRange("users", 0, 1, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = wb.GetRange("orders", 1, 1, 1, 1)
	assert.ErrorIs(t, err, ErrSheetNotFound)
	assert.ErrorIs(t, wb.SetRange("users", 1, 0, model.Matrix{{"x"}}), ErrInvalidRange)
	assert.ErrorIs(t, wb.DeleteRow("users", 0), ErrInvalidRange)
	_, err = wb.LastRow("orders")
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestWorkbook_UnsetLeavesCell(t *testing.T) {
	t.Parallel()

	wb := newUsersWorkbook(t, filepath.Join(t.TempDir(), "test_db.xlsx"))
	require.NoError(t, wb.SetRange("users", 2, 2, model.Matrix{{model.Unset, "hoge", model.Unset, int64(0)}}))

	got, err := wb.GetRange("users", 2, 1, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, model.Matrix{{int64(2), int64(1), "hoge", "tokyo", int64(0)}}, got)
}
