package sheetdb

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/nao1215/sheetdb/domain/model"
	"github.com/nao1215/sheetdb/domain/query"
	"github.com/nao1215/sheetdb/driver"
)

// Table is a handle to one table sheet. Filters are written with column names
// as if they were identifiers, for example "where age > 20 order by name".
type Table struct {
	db         *DB
	name       string
	header     model.Header
	translator *query.Translator
}

func newTable(db *DB, name string, header model.Header) *Table {
	return &Table{
		db:         db,
		name:       name,
		header:     header,
		translator: query.NewTranslator(header),
	}
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Columns returns the user columns in declaration order.
func (t *Table) Columns() []string {
	return t.header.Columns()
}

// Header returns the full header, the identity column included.
func (t *Table) Header() model.Header {
	header := make(model.Header, len(t.header))
	copy(header, t.header)
	return header
}

// Count returns the number of data rows.
func (t *Table) Count(ctx context.Context) (int, error) {
	if err := t.db.checkOpen(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	last, err := t.db.store.LastRow(t.name)
	if err != nil {
		return 0, t.errorContext("count").Error(err)
	}
	return max(last-1, 0), nil
}

// Insert appends one row per record. Keys that are not columns are ignored and
// missing columns are written as "".
func (t *Table) Insert(ctx context.Context, records ...Record) error {
	if err := t.db.checkOpen(); err != nil {
		return err
	}

	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := sanitize(model.NewInsertRow(t.header, record))
		if err := t.db.store.AppendRow(t.name, row); err != nil {
			return t.errorContext("insert").WithDetails(fmt.Sprintf("record %d", i)).Error(err)
		}
	}
	if err := t.db.saveOnWrite(ctx); err != nil {
		return err
	}

	t.db.logger.DebugContext(ctx, "rows inserted", slog.String("table", t.name), slog.Int("rows", len(records)))
	return nil
}

// Select returns the rows matching filter. An empty filter selects every row. Without
// a select clause the identity column is result column 1, followed by the user columns.
func (t *Table) Select(ctx context.Context, filter string) (Matrix, error) {
	if err := t.db.checkOpen(); err != nil {
		return nil, err
	}

	result, err := t.db.exec.execute(ctx, t.name, t.header, t.translator.Translate(strings.TrimSpace(filter)))
	if err != nil {
		return nil, t.errorContext("select").Error(err)
	}
	return result, nil
}

// Delete removes the rows matching filter and returns how many were removed. An empty
// filter removes every data row; on an empty table it is a no-op.
func (t *Table) Delete(ctx context.Context, filter string) (int, error) {
	if err := t.db.checkOpen(); err != nil {
		return 0, err
	}

	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	if strings.TrimSpace(filter) == "" {
		return t.deleteAll(ctx)
	}

	rows, err := t.matchRows(ctx, filter)
	if err != nil {
		return 0, t.errorContext("delete").Error(err)
	}

	// rows is in descending order, so every deletion leaves the pending row numbers in place
	deleted := 0
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if err := t.db.store.DeleteRow(t.name, row); err != nil {
			return deleted, t.errorContext("delete").WithDetails(fmt.Sprintf("row %d", row)).Error(err)
		}
		deleted++
	}
	if err := t.db.saveOnWrite(ctx); err != nil {
		return deleted, err
	}

	t.db.logger.DebugContext(ctx, "rows deleted", slog.String("table", t.name), slog.Int("rows", deleted))
	return deleted, nil
}

func (t *Table) deleteAll(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	last, err := t.db.store.LastRow(t.name)
	if err != nil {
		return 0, t.errorContext("delete").Error(err)
	}
	count := last - 1
	if count <= 0 {
		return 0, nil
	}
	if err := t.db.store.DeleteRows(t.name, 2, count); err != nil {
		return 0, t.errorContext("delete").Error(err)
	}
	if err := t.db.saveOnWrite(ctx); err != nil {
		return count, err
	}

	t.db.logger.DebugContext(ctx, "rows deleted", slog.String("table", t.name), slog.Int("rows", count))
	return count, nil
}

// Update applies record to the rows matching filter and returns how many rows were
// written. Columns missing from record, or set to Unset, keep their value; every other
// value, "", 0 and false included, is written. An empty filter updates every data row.
func (t *Table) Update(ctx context.Context, record Record, filter string) (int, error) {
	if err := t.db.checkOpen(); err != nil {
		return 0, err
	}

	vector := model.UpdateVector(sanitize(model.NewUpdateVector(t.header, record)))
	if vector.IsNoop() {
		return 0, nil
	}

	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	var (
		updated int
		err     error
	)
	if strings.TrimSpace(filter) == "" {
		updated, err = t.updateAll(ctx, vector)
	} else {
		updated, err = t.updateMatching(ctx, vector, filter)
	}
	if err != nil {
		return updated, t.errorContext("update").Error(err)
	}
	if err := t.db.saveOnWrite(ctx); err != nil {
		return updated, err
	}

	t.db.logger.DebugContext(ctx, "rows updated", slog.String("table", t.name), slog.Int("rows", updated))
	return updated, nil
}

// updateAll overlays vector on every data row in one read and one write.
func (t *Table) updateAll(ctx context.Context, vector model.UpdateVector) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	last, err := t.db.store.LastRow(t.name)
	if err != nil {
		return 0, err
	}
	count := last - 1
	if count <= 0 {
		return 0, nil
	}

	width := len(t.header) - 1
	rows, err := t.db.store.GetRange(t.name, 2, 2, count, width)
	if err != nil {
		return 0, err
	}
	for i, row := range rows {
		rows[i] = vector.Overlay(row)
	}
	if err := t.db.store.SetRange(t.name, 2, 2, rows); err != nil {
		return 0, err
	}
	return count, nil
}

// updateMatching overlays vector on each row matching filter.
func (t *Table) updateMatching(ctx context.Context, vector model.UpdateVector, filter string) (int, error) {
	rows, err := t.matchRows(ctx, filter)
	if err != nil {
		return 0, err
	}

	width := len(t.header) - 1
	updated := 0
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		current, err := t.db.store.GetRange(t.name, row, 2, 1, width)
		if err != nil {
			return updated, err
		}
		if err := t.db.store.SetRange(t.name, row, 2, Matrix{vector.Overlay(current[0])}); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// matchRows returns the physical rows matching filter, highest first. The identity
// column is projected after the filter is translated, so the result is read at the
// moment of use and reflects every earlier shift.
func (t *Table) matchRows(ctx context.Context, filter string) ([]int, error) {
	translated := t.translator.Translate(strings.TrimSpace(filter))
	if startsWithSelect(translated) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, filter)
	}

	result, err := t.db.exec.execute(ctx, t.name, t.header, "select A "+translated)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(result))
	rows := make([]int, 0, len(result))
	for _, values := range result {
		if len(values) == 0 {
			continue
		}
		row, ok := model.ToInt(values[0])
		if !ok || row < 2 {
			return nil, fmt.Errorf("%w: %q", ErrCorruptIdentity, model.ToString(values[0]))
		}
		if _, ok := seen[row]; ok {
			continue
		}
		seen[row] = struct{}{}
		rows = append(rows, row)
	}

	slices.Sort(rows)
	slices.Reverse(rows)
	return rows, nil
}

func (t *Table) errorContext(operation string) *ErrorContext {
	return NewErrorContext(operation, t.db.name).WithTable(t.name)
}

// startsWithSelect reports whether the first word of fragment is "select".
func startsWithSelect(fragment string) bool {
	fields := strings.Fields(fragment)
	return len(fields) > 0 && strings.EqualFold(fields[0], "select")
}

// sanitize strips null bytes and overlong text from string values.
func sanitize(values []any) []any {
	for i, v := range values {
		if s, ok := v.(string); ok {
			values[i] = driver.ValidateFieldValue(s)
		}
	}
	return values
}
