package sheetdb

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsettledStore reports a different extent on every read, like a sheet that keeps recalculating.
type unsettledStore struct {
	*memoryStore
	mu    sync.Mutex
	reads int
}

func (s *unsettledStore) LastColumn(sheet string) (int, error) {
	if sheet != QuerySheet {
		return s.memoryStore.LastColumn(sheet)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return s.reads, nil
}

func TestExecutor_PollLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store := &unsettledStore{memoryStore: newMemoryStore()}
	builder, err := NewBuilder().
		SetDir(t.TempDir()).
		SetSettleDelay(time.Millisecond).
		SetMaxPolls(3).
		SetLogger(logger).
		Build(ctx)
	require.NoError(t, err)

	db, err := builder.CreateWithStore(ctx, "test_db", store)
	require.NoError(t, err)
	users := newUsersTable(t, db)

	got, err := users.Select(ctx, "select name where age = 30")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "kenta tsujii", got[0][0])

	assert.Equal(t, 3, store.reads)
	assert.Contains(t, logs.String(), "query result did not settle")
	assert.Contains(t, logs.String(), "request_id=")
}

func TestExecutor_PollCanceled(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryStore()
	builder, err := NewBuilder().
		SetDir(t.TempDir()).
		SetSettleDelay(time.Hour).
		SetLogger(discardLogger()).
		Build(ctx)
	require.NoError(t, err)

	db, err := builder.CreateWithStore(ctx, "test_db", store)
	require.NoError(t, err)
	users := newUsersTable(t, db)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()

	_, err = users.Select(ctx, "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueryError(t *testing.T) {
	t.Parallel()

	err := &QueryError{Query: "where C >", Token: "#VALUE!"}
	assert.ErrorIs(t, err, ErrQueryGrammar)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, `sheetdb: query "where C >" evaluated to #VALUE!`, err.Error())
}

func TestStartsWithSelect(t *testing.T) {
	t.Parallel()

	assert.True(t, startsWithSelect("select A where B = 1"))
	assert.True(t, startsWithSelect("  SELECT *"))
	assert.False(t, startsWithSelect("where B = 'select'"))
	assert.False(t, startsWithSelect(""))
}
