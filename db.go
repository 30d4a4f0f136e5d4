package sheetdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/sheetdb/domain/model"
	"github.com/nao1215/sheetdb/xlsxstore"
)

const (
	// creatorMarker is written to cell A1 of the table-info sheet
	creatorMarker = "created by spread sheet db app."
	// createdAtPrefix prefixes the creation time in cell A2 of the table-info sheet
	createdAtPrefix = "created at: "
	// idPrefix prefixes the database id in cell A3 of the table-info sheet
	idPrefix = "id: "
	// defaultSheet is the sheet a new workbook starts with
	defaultSheet = "Sheet1"
)

// DB is a database: one backing store holding one sheet per table plus the
// reserved QuerySheet and TableInfoSheet. A DB is safe for concurrent use;
// queries are serialized through the scratch sheet and mutations through the DB.
type DB struct {
	name     string
	path     string
	store    Store
	exec     *executor
	logger   *slog.Logger
	autoSave autoSaveConfig

	// mu serializes mutations, so a delete or update never acts on row numbers
	// another writer has already shifted.
	mu     sync.Mutex
	closed atomic.Bool
}

// Info is the metadata kept in the table-info sheet
type Info struct {
	// Creator is the creation marker
	Creator string
	// CreatedAt is the creation time, zero when the sheet holds no parsable time
	CreatedAt time.Time
	// ID identifies the database
	ID string
}

// Name returns the database name.
func (db *DB) Name() string {
	return db.name
}

// Path returns the backing file path, or "" for a database living in a caller-provided store.
func (db *DB) Path() string {
	return db.path
}

// provision writes the reserved sheets of a new database.
func (db *DB) provision(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := db.store.CreateSheet(TableInfoSheet); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", TableInfoSheet, err)
	}
	info := model.Matrix{
		{creatorMarker},
		{createdAtPrefix + time.Now().UTC().Format(time.RFC3339)},
		{idPrefix + uuid.NewString()},
	}
	if err := db.store.SetRange(TableInfoSheet, 1, 1, info); err != nil {
		return fmt.Errorf("failed to write %s sheet: %w", TableInfoSheet, err)
	}
	if err := db.store.CreateSheet(QuerySheet); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", QuerySheet, err)
	}

	if db.store.HasSheet(defaultSheet) {
		if err := db.store.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("failed to delete %s sheet: %w", defaultSheet, err)
		}
	}
	return nil
}

// validate checks that both reserved sheets exist.
func (db *DB) validate() error {
	for _, sheet := range []string{QuerySheet, TableInfoSheet} {
		if !db.store.HasSheet(sheet) {
			return NewErrorContext("open", db.name).
				WithDetails(fmt.Sprintf("missing %s sheet", sheet)).
				Error(ErrValidation)
		}
	}
	return nil
}

func (db *DB) checkOpen() error {
	if db.closed.Load() {
		return ErrClosed
	}
	return nil
}

// CreateTable creates a table with the given columns. The table sheet gets the header
// row "row", columns...; the identity column is added automatically.
// Column names are case-insensitive, so "Name" and "name" are duplicates, and query
// keywords such as "where", "label" or "limit" are rejected with ErrInvalidColumnName.
func (db *DB) CreateTable(ctx context.Context, name string, columns ...string) (*Table, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := newValidator()
	ec := NewErrorContext("create table", db.name).WithTable(name)
	if err := v.validateTableName(name); err != nil {
		return nil, ec.Error(err)
	}
	header, err := v.validateColumns(columns)
	if err != nil {
		return nil, ec.Error(err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if db.store.HasSheet(name) {
		return nil, ec.Error(ErrTableExists)
	}
	if err := db.store.CreateSheet(name); err != nil {
		if errors.Is(err, xlsxstore.ErrSheetExists) {
			return nil, ec.Error(ErrTableExists)
		}
		return nil, ec.Error(err)
	}

	row := make([]any, len(header))
	for i, column := range header {
		row[i] = column
	}
	if err := db.store.SetRange(name, 1, 1, model.Matrix{row}); err != nil {
		return nil, ec.WithDetails("write header").Error(err)
	}
	if err := db.saveOnWrite(ctx); err != nil {
		return nil, ec.Error(err)
	}

	db.logger.DebugContext(ctx, "table created",
		slog.String("table", name),
		slog.Any("columns", header.Columns()),
	)
	return newTable(db, name, header), nil
}

// Table returns a handle to an existing table.
func (db *DB) Table(ctx context.Context, name string) (*Table, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ec := NewErrorContext("get table", db.name).WithTable(name)
	if isReservedSheet(name) || !db.store.HasSheet(name) {
		return nil, ec.Error(ErrTableNotFound)
	}

	header, err := db.readHeader(name)
	if err != nil {
		return nil, ec.Error(err)
	}
	return newTable(db, name, header), nil
}

// readHeader reads and validates row 1 of a table sheet.
func (db *DB) readHeader(name string) (model.Header, error) {
	lastColumn, err := db.store.LastColumn(name)
	if err != nil {
		return nil, err
	}
	if lastColumn == 0 {
		return nil, fmt.Errorf("%w: empty header", ErrValidation)
	}

	cells, err := db.store.GetRange(name, 1, 1, 1, lastColumn)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, lastColumn)
	for _, v := range cells[0] {
		names = append(names, model.ToString(v))
	}
	for len(names) > 0 && strings.TrimSpace(names[len(names)-1]) == "" {
		names = names[:len(names)-1]
	}

	header := model.NewHeader(names)
	if err := header.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return header, nil
}

// Tables returns the names of the tables in sheet order.
func (db *DB) Tables() []string {
	tables := make([]string, 0)
	for _, sheet := range db.store.SheetNames() {
		if isReservedSheet(sheet) {
			continue
		}
		tables = append(tables, sheet)
	}
	return tables
}

// Info returns the metadata of the database.
func (db *DB) Info(ctx context.Context) (Info, error) {
	if err := db.checkOpen(); err != nil {
		return Info{}, err
	}
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}

	cells, err := db.store.GetRange(TableInfoSheet, 1, 1, 3, 1)
	if err != nil {
		return Info{}, NewErrorContext("info", db.name).Error(err)
	}

	info := Info{Creator: model.ToString(cells[0][0])}
	createdAt := strings.TrimPrefix(model.ToString(cells[1][0]), createdAtPrefix)
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		info.CreatedAt = t
	}
	if id, ok := strings.CutPrefix(model.ToString(cells[2][0]), idPrefix); ok {
		info.ID = id
	}
	return info, nil
}

// Save writes the database to its backing file.
func (db *DB) Save(ctx context.Context) error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	if err := db.store.Save(ctx); err != nil {
		return NewErrorContext("save", db.name).Error(err)
	}
	db.logger.DebugContext(ctx, "database saved")
	return nil
}

// saveOnWrite saves after a mutation when auto-save on write is enabled.
func (db *DB) saveOnWrite(ctx context.Context) error {
	if !db.autoSave.enabled || db.autoSave.timing != AutoSaveOnWrite {
		return nil
	}
	return db.Save(ctx)
}

// Close releases the database. With auto-save on close enabled the database is saved
// first. Closing a closed database is a no-op.
func (db *DB) Close() error {
	if !db.closed.CompareAndSwap(false, true) {
		return nil
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	var saveErr error
	if db.autoSave.enabled && db.autoSave.timing == AutoSaveOnClose {
		if err := db.store.Save(context.Background()); err != nil {
			saveErr = NewErrorContext("auto-save", db.name).Error(err)
		}
	}
	return errors.Join(saveErr, db.store.Close())
}

// Drop closes the database and deletes its backing file. Unsaved changes are discarded.
func (db *DB) Drop(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !db.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.store.Close(); err != nil {
		return NewErrorContext("drop", db.name).Error(err)
	}
	if db.path == "" {
		return nil
	}
	if err := xlsxstore.Remove(db.path); err != nil {
		if errors.Is(err, xlsxstore.ErrWorkbookNotFound) {
			return NewErrorContext("drop", db.name).Error(ErrDatabaseNotFound)
		}
		return NewErrorContext("drop", db.name).Error(err)
	}

	db.logger.DebugContext(ctx, "database dropped", slog.String("path", db.path))
	return nil
}
