package sheetdb

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nao1215/sheetdb/domain/model"
	"github.com/nao1215/sheetdb/domain/query"
	"github.com/nao1215/sheetdb/driver"
	"github.com/nao1215/sheetdb/xlsxstore"
)

// validator handles validation logic for DBBuilder and DB
type validator struct{}

// newValidator creates a new validator instance
func newValidator() *validator {
	return &validator{}
}

// validateDir validates the directory holding the backing files. A missing directory
// is fine: it is created by the first save.
func (v *validator) validateDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("directory cannot be empty")
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory: %s", dir)
	}
	return nil
}

// validateName validates a database name, the base name of its backing file
func (v *validator) validateName(name string) error {
	if err := xlsxstore.ValidateName(name); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// validateCompression validates the compression of the backing file
func (v *validator) validateCompression(compression model.CompressionType) error {
	switch compression {
	case model.CompressionNone, model.CompressionGZ, model.CompressionBZ2, model.CompressionXZ, model.CompressionZSTD:
		return nil
	default:
		return fmt.Errorf("unsupported compression type: %d", compression)
	}
}

// validatePolling validates the settings of the poll-until-stable wait
func (v *validator) validatePolling(settleDelay time.Duration, maxPolls int) error {
	if settleDelay < 0 {
		return fmt.Errorf("settle delay cannot be negative: %s", settleDelay)
	}
	if maxPolls < 1 {
		return fmt.Errorf("max polls must be at least 1: %d", maxPolls)
	}
	return nil
}

// validateAutoSaveConfig validates auto-save configuration
func (v *validator) validateAutoSaveConfig(config *autoSaveConfig) error {
	if config == nil {
		return nil // Auto-save is optional
	}
	if !config.enabled {
		return nil // Disabled config is valid
	}

	switch config.timing {
	case AutoSaveOnClose, AutoSaveOnWrite:
		return nil
	default:
		return fmt.Errorf("unsupported auto-save timing: %d", config.timing)
	}
}

// validateTableName validates the name of a new table
func (v *validator) validateTableName(name string) error {
	if isReservedSheet(name) {
		return fmt.Errorf("%w: %s", ErrReservedName, name)
	}
	if err := xlsxstore.ValidateSheetName(name); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// validateColumns builds the header of a new table
func (v *validator) validateColumns(columns []string) (model.Header, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}

	for _, column := range columns {
		if query.IsKeyword(column) {
			return nil, fmt.Errorf("%w: %q is a query keyword", ErrInvalidColumnName, column)
		}
	}

	header, err := model.NewTableHeader(columns...)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrDuplicateColumnName):
			return nil, fmt.Errorf("%w: %w", ErrDuplicateColumnName, err)
		case errors.Is(err, model.ErrEmptyColumnName), errors.Is(err, model.ErrReservedColumnName):
			return nil, fmt.Errorf("%w: %w", ErrInvalidColumnName, err)
		default:
			return nil, err
		}
	}
	if err := driver.ValidateColumnCount(len(header)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return header, nil
}

// isReservedSheet reports whether name is one of the internal sheets, compared case-insensitively
func isReservedSheet(name string) bool {
	return strings.EqualFold(name, QuerySheet) || strings.EqualFold(name, TableInfoSheet)
}
