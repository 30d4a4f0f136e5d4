package sheetdb

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// discardLogger keeps test output quiet.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestBuilder returns a built builder writing into a fresh temporary directory.
func newTestBuilder(t *testing.T) *DBBuilder {
	t.Helper()

	builder, err := NewBuilder().
		SetDir(t.TempDir()).
		SetSettleDelay(time.Millisecond).
		SetLogger(discardLogger()).
		Build(context.Background())
	require.NoError(t, err)
	return builder
}

// newWorkbookDB creates a database backed by an .xlsx workbook.
func newWorkbookDB(t *testing.T) *DB {
	t.Helper()

	db, err := newTestBuilder(t).Create(context.Background(), "test_db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newMemoryDB creates a database in a memoryStore.
func newMemoryDB(t *testing.T) (*DB, *memoryStore) {
	t.Helper()

	store := newMemoryStore()
	db, err := newTestBuilder(t).CreateWithStore(context.Background(), "test_db", store)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, store
}

// storeKinds runs every CRUD test once per store implementation: the workbook
// evaluates queries synchronously, the memory store is polled.
var storeKinds = []struct {
	name       string
	newDB      func(t *testing.T) *DB
	errorToken string
}{
	{
		name:       "workbook",
		newDB:      newWorkbookDB,
		errorToken: "#VALUE!",
	},
	{
		name: "memory",
		newDB: func(t *testing.T) *DB {
			t.Helper()
			db, _ := newMemoryDB(t)
			return db
		},
		errorToken: "#N/A",
	},
}

// newUsersTable creates the users table holding the two sample records.
func newUsersTable(t *testing.T, db *DB) *Table {
	t.Helper()

	ctx := context.Background()
	users, err := db.CreateTable(ctx, "users", "id", "name", "address", "age")
	require.NoError(t, err)
	require.NoError(t, users.Insert(ctx,
		Record{"id": 1, "name": "kenta tsujii", "address": "kanagawa", "age": 30},
		Record{"id": 2, "name": "hiromi suzuki", "address": "kanagawa", "age": 38},
	))
	return users
}
