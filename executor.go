package sheetdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/nao1215/sheetdb/domain/model"
	"github.com/nao1215/sheetdb/domain/query"
	"github.com/nao1215/sheetdb/driver"
)

// executor runs queries through the scratch sheet of one database.
// Only one query may be staged at a time, so every execution holds sem.
type executor struct {
	store       Store
	sem         *semaphore.Weighted
	settleDelay time.Duration
	maxPolls    int
	logger      *slog.Logger
}

func newExecutor(store Store, settleDelay time.Duration, maxPolls int, logger *slog.Logger) *executor {
	return &executor{
		store:       store,
		sem:         semaphore.NewWeighted(1),
		settleDelay: settleDelay,
		maxPolls:    maxPolls,
		logger:      logger,
	}
}

// execute stages a QUERY over the columns of header in sheet, filtered by fragment,
// and returns the result rows. fragment must already be address-qualified.
func (e *executor) execute(ctx context.Context, sheet string, header model.Header, fragment string) (model.Matrix, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.sem.Release(1)

	formula := query.NewFormula(sheet, header, fragment).String()
	logger := e.logger.With(
		slog.String("request_id", newRequestID()),
		slog.String("table", sheet),
	)
	logger.DebugContext(ctx, "staging query", slog.String("formula", formula))

	if err := e.store.SetFormula(QuerySheet, 1, 1, formula); err != nil {
		return nil, fmt.Errorf("failed to stage query: %w", err)
	}

	extent, evalErr := e.settle(ctx, logger)
	if evalErr != nil && !errors.Is(evalErr, driver.ErrQuery) {
		return nil, evalErr
	}

	result, err := e.readBack(extent)
	if err != nil {
		return nil, err
	}
	if token, ok := result.ErrorToken(); ok {
		logger.DebugContext(ctx, "query evaluated to an error", slog.String("token", token))
		return nil, &QueryError{Query: fragment, Token: token, Err: evalErr}
	}
	if evalErr != nil {
		return nil, &QueryError{Query: fragment, Token: "#VALUE!", Err: evalErr}
	}

	logger.DebugContext(ctx, "query evaluated", slog.Int("rows", len(result)))
	return result, nil
}

// settle waits until the scratch sheet holds the result of the staged formula.
// A store that evaluates on demand is asked to do so; any other store is polled
// until two consecutive reads of its extent agree.
func (e *executor) settle(ctx context.Context, logger *slog.Logger) (model.Extent, error) {
	if evaluator, ok := e.store.(Evaluator); ok {
		return evaluator.Evaluate(ctx, QuerySheet)
	}

	timer := time.NewTimer(e.settleDelay)
	defer timer.Stop()

	var previous model.Extent
	for i := range e.maxPolls {
		select {
		case <-ctx.Done():
			return model.Extent{}, ctx.Err()
		case <-timer.C:
		}

		current, err := e.extent()
		if err != nil {
			return model.Extent{}, err
		}
		if i > 0 && current == previous {
			return current, nil
		}
		previous = current
		timer.Reset(e.settleDelay)
	}

	logger.WarnContext(ctx, "query result did not settle",
		slog.Int("polls", e.maxPolls),
		slog.Duration("settle_delay", e.settleDelay),
	)
	return previous, nil
}

func (e *executor) extent() (model.Extent, error) {
	lastRow, err := e.store.LastRow(QuerySheet)
	if err != nil {
		return model.Extent{}, err
	}
	lastColumn, err := e.store.LastColumn(QuerySheet)
	if err != nil {
		return model.Extent{}, err
	}
	return model.Extent{LastRow: lastRow, LastColumn: lastColumn}, nil
}

// readBack reads the spill below the formula cell. The read spans one row past the
// result, so the final row is dropped.
func (e *executor) readBack(extent model.Extent) (model.Matrix, error) {
	if extent.Empty() {
		return model.Matrix{}, nil
	}
	m, err := e.store.GetRange(QuerySheet, 2, 1, extent.LastRow, extent.LastColumn)
	if err != nil {
		return nil, fmt.Errorf("failed to read query result: %w", err)
	}
	return m.DropLast(), nil
}

// newRequestID returns a time-ordered id for correlating the log lines of one query.
func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
