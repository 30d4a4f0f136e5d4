package sheetdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/sheetdb/domain/model"
	"github.com/nao1215/sheetdb/xlsxstore"
)

// DBBuilder is a builder for creating and opening databases.
// Use NewBuilder to create a new instance, then chain method calls to configure it.
//
// The typical usage pattern is:
//
//	validatedBuilder, err := sheetdb.NewBuilder().SetDir("spreadsheet_db").Build(ctx)
//	if err != nil {
//		return err
//	}
//	db, err := validatedBuilder.Open(ctx, "test_db")
//	if err != nil {
//		return err
//	}
//	defer db.Close()
type DBBuilder struct {
	// dir is the directory holding the backing files
	dir string
	// compression is applied to the backing file of created and opened databases
	compression model.CompressionType
	// settleDelay is the wait between polls of a store that recalculates on its own
	settleDelay time.Duration
	// maxPolls bounds the number of polls per query
	maxPolls int
	// logger receives the debug and warn logs of the databases
	logger *slog.Logger
	// autoSaveConfig contains auto-save settings
	autoSaveConfig *autoSaveConfig
	// built is set by a successful Build
	built     bool
	validator *validator
}

// AutoSaveTiming specifies when automatic saving should occur
type AutoSaveTiming int

const (
	// AutoSaveOnClose saves the database when db.Close() is called (default)
	AutoSaveOnClose AutoSaveTiming = iota
	// AutoSaveOnWrite saves the database after every insert, update, delete and table creation
	AutoSaveOnWrite
)

// String returns the string representation of AutoSaveTiming
func (t AutoSaveTiming) String() string {
	switch t {
	case AutoSaveOnClose:
		return "close"
	case AutoSaveOnWrite:
		return "write"
	default:
		return "unknown"
	}
}

// ParseAutoSaveTiming parses "close" or "write".
func ParseAutoSaveTiming(s string) (AutoSaveTiming, error) {
	switch s {
	case "close":
		return AutoSaveOnClose, nil
	case "write":
		return AutoSaveOnWrite, nil
	default:
		return AutoSaveOnClose, fmt.Errorf("unsupported auto-save timing: %q", s)
	}
}

// autoSaveConfig holds configuration for automatic saving
type autoSaveConfig struct {
	enabled bool
	timing  AutoSaveTiming
}

// NewBuilder creates a new database builder with the default settings:
// directory DefaultDir, no compression, DefaultSettleDelay, DefaultMaxPolls and slog.Default().
func NewBuilder() *DBBuilder {
	return &DBBuilder{
		dir:            DefaultDir,
		compression:    model.CompressionNone,
		settleDelay:    DefaultSettleDelay,
		maxPolls:       DefaultMaxPolls,
		logger:         nil, // resolved in Build
		autoSaveConfig: nil, // Default: no auto-save
		validator:      newValidator(),
	}
}

// SetDir sets the directory holding the backing files.
// Returns the builder for method chaining.
func (b *DBBuilder) SetDir(dir string) *DBBuilder {
	b.dir = dir
	b.built = false
	return b
}

// SetCompression sets the compression of the backing file. Databases created with
// CompressionBZ2 cannot be saved, so Create rejects it.
// Returns the builder for method chaining.
func (b *DBBuilder) SetCompression(compression model.CompressionType) *DBBuilder {
	b.compression = compression
	b.built = false
	return b
}

// SetSettleDelay sets the wait between two reads of the scratch sheet of a store
// that recalculates formulas on its own.
// Returns the builder for method chaining.
func (b *DBBuilder) SetSettleDelay(d time.Duration) *DBBuilder {
	b.settleDelay = d
	b.built = false
	return b
}

// SetMaxPolls sets the maximum number of reads of the scratch sheet per query.
// Returns the builder for method chaining.
func (b *DBBuilder) SetMaxPolls(n int) *DBBuilder {
	b.maxPolls = n
	b.built = false
	return b
}

// SetLogger sets the logger. A nil logger means slog.Default().
// Returns the builder for method chaining.
func (b *DBBuilder) SetLogger(logger *slog.Logger) *DBBuilder {
	b.logger = logger
	return b
}

// EnableAutoSave enables automatic saving of the backing file.
//
// Example:
//
//	builder := sheetdb.NewBuilder().
//		EnableAutoSave(sheetdb.AutoSaveOnWrite) // Save after every mutation
//
// Returns the builder for method chaining.
func (b *DBBuilder) EnableAutoSave(timing AutoSaveTiming) *DBBuilder {
	b.autoSaveConfig = &autoSaveConfig{
		enabled: true,
		timing:  timing,
	}
	b.built = false
	return b
}

// DisableAutoSave disables automatic saving.
// Returns the builder for method chaining.
func (b *DBBuilder) DisableAutoSave() *DBBuilder {
	b.autoSaveConfig = nil
	return b
}

// Build validates the configuration. Create and Open are only available on a built builder.
func (b *DBBuilder) Build(ctx context.Context) (*DBBuilder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.validator.validateDir(b.dir); err != nil {
		return nil, err
	}
	if err := b.validator.validateCompression(b.compression); err != nil {
		return nil, err
	}
	if err := b.validator.validatePolling(b.settleDelay, b.maxPolls); err != nil {
		return nil, err
	}
	if err := b.validator.validateAutoSaveConfig(b.autoSaveConfig); err != nil {
		return nil, err
	}
	b.built = true
	return b, nil
}

// Create creates the database name in the configured directory. The backing file
// is written before Create returns.
func (b *DBBuilder) Create(ctx context.Context, name string) (*DB, error) {
	if err := b.validateInputsAvailable(); err != nil {
		return nil, err
	}
	if err := b.validator.validateName(name); err != nil {
		return nil, err
	}

	path := xlsxstore.FilePath(b.dir, name, b.compression)
	wb, err := xlsxstore.Create(path)
	if err != nil {
		if errors.Is(err, xlsxstore.ErrWorkbookExists) {
			return nil, NewErrorContext("create", name).WithDetails(path).Error(ErrDatabaseExists)
		}
		return nil, NewErrorContext("create", name).Error(err)
	}

	db := b.newDB(name, path, wb)
	if err := db.provision(ctx); err != nil {
		_ = wb.Close()
		return nil, NewErrorContext("create", name).Error(err)
	}
	if err := wb.Save(ctx); err != nil {
		_ = wb.Close()
		return nil, NewErrorContext("create", name).WithDetails("save").Error(err)
	}

	db.logger.DebugContext(ctx, "database created", slog.String("path", path))
	return db, nil
}

// Open opens the existing database name in the configured directory.
func (b *DBBuilder) Open(ctx context.Context, name string) (*DB, error) {
	if err := b.validateInputsAvailable(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.validator.validateName(name); err != nil {
		return nil, err
	}

	path := xlsxstore.FilePath(b.dir, name, b.compression)
	wb, err := xlsxstore.Open(path)
	if err != nil {
		if errors.Is(err, xlsxstore.ErrWorkbookNotFound) {
			return nil, NewErrorContext("open", name).WithDetails(path).Error(ErrDatabaseNotFound)
		}
		return nil, NewErrorContext("open", name).Error(err)
	}

	db := b.newDB(name, path, wb)
	if err := db.validate(); err != nil {
		_ = wb.Close()
		return nil, err
	}

	db.logger.DebugContext(ctx, "database opened", slog.String("path", path))
	return db, nil
}

// CreateWithStore provisions the database name inside store, which must not hold
// the reserved sheets yet. Drop on the returned database only closes the store.
func (b *DBBuilder) CreateWithStore(ctx context.Context, name string, store Store) (*DB, error) {
	if err := b.validateInputsAvailable(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("store cannot be nil")
	}
	if store.HasSheet(QuerySheet) || store.HasSheet(TableInfoSheet) {
		return nil, NewErrorContext("create", name).Error(ErrDatabaseExists)
	}

	db := b.newDB(name, "", store)
	if err := db.provision(ctx); err != nil {
		return nil, NewErrorContext("create", name).Error(err)
	}
	return db, nil
}

// OpenWithStore opens the database name held by store.
func (b *DBBuilder) OpenWithStore(ctx context.Context, name string, store Store) (*DB, error) {
	if err := b.validateInputsAvailable(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("store cannot be nil")
	}

	db := b.newDB(name, "", store)
	if err := db.validate(); err != nil {
		return nil, err
	}
	return db, nil
}

// validateInputsAvailable checks that Build has been called.
func (b *DBBuilder) validateInputsAvailable() error {
	if !b.built {
		return errors.New("builder is not validated: did you call Build()?")
	}
	return nil
}

func (b *DBBuilder) newDB(name, path string, store Store) *DB {
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("db", name))

	var autoSave autoSaveConfig
	if b.autoSaveConfig != nil {
		autoSave = *b.autoSaveConfig
	}

	return &DB{
		name:     name,
		path:     path,
		store:    store,
		exec:     newExecutor(store, b.settleDelay, b.maxPolls, logger),
		logger:   logger,
		autoSave: autoSave,
	}
}
