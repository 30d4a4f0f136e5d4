package xlsxstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/nao1215/sheetdb/domain/model"
	"github.com/nao1215/sheetdb/driver"
)

// Workbook is a tabular store backed by an .xlsx file. All methods are safe for concurrent use.
type Workbook struct {
	mu          sync.Mutex
	file        *excelize.File
	path        string
	compression model.CompressionType
	engine      *driver.Engine
}

// FilePath returns the path of the backing file of database name in dir.
func FilePath(dir, name string, compression model.CompressionType) string {
	return filepath.Join(dir, name+model.ExtXLSX+compression.Extension())
}

// Create creates a new in-memory workbook whose backing file is path. Nothing is written
// until Save. The compression of the backing file follows the extension of path.
func Create(path string) (*Workbook, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrWorkbookExists, path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	compression := model.DetectCompressionType(path)
	if compression == model.CompressionBZ2 {
		return nil, fmt.Errorf("%w: %s", model.ErrCompressionNotWritable, path)
	}

	return &Workbook{
		file:        excelize.NewFile(),
		path:        path,
		compression: compression,
		engine:      driver.NewEngine(),
	}, nil
}

// Open loads the workbook stored at path.
func Open(path string) (*Workbook, error) {
	f, err := os.Open(path) //nolint:gosec // path is built from a validated database name
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrWorkbookNotFound, path)
		}
		return nil, err
	}
	defer f.Close()

	compression := model.DetectCompressionType(path)
	reader, closeReader, err := model.NewCompressionHandler(compression).NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = closeReader() // Ignore close error
	}()

	// XLSX requires random access, so the decompressed workbook is read into memory
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	xlsxFile, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file %s: %w", path, err)
	}

	return &Workbook{
		file:        xlsxFile,
		path:        path,
		compression: compression,
		engine:      driver.NewEngine(),
	}, nil
}

// Remove deletes the backing file at path.
func Remove(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrWorkbookNotFound, path)
		}
		return err
	}
	return nil
}

// Path returns the backing file path.
func (w *Workbook) Path() string {
	return w.path
}

// Save writes the workbook to its backing file. The file is replaced atomically.
func (w *Workbook) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(w.path), "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath) // no-op after a successful rename
	}()

	if err := w.writeTo(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, w.path)
}

func (w *Workbook) writeTo(out io.Writer) error {
	writer, closeWriter, err := model.NewCompressionHandler(w.compression).NewWriter(out)
	if err != nil {
		return err
	}
	if err := w.file.Write(writer); err != nil {
		_ = closeWriter()
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return closeWriter()
}

// Close releases the workbook. Unsaved changes are lost.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// CreateSheet adds an empty sheet.
func (w *Workbook) CreateSheet(name string) error {
	if err := ValidateSheetName(name); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.hasSheet(name) {
		return fmt.Errorf("%w: %s", ErrSheetExists, name)
	}
	if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	return nil
}

// DeleteSheet removes a sheet. The last sheet of a workbook cannot be removed.
func (w *Workbook) DeleteSheet(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.hasSheet(name) {
		return fmt.Errorf("%w: %s", ErrSheetNotFound, name)
	}
	if w.file.SheetCount <= 1 {
		return fmt.Errorf("cannot delete the last sheet %s", name)
	}
	if err := w.file.DeleteSheet(name); err != nil {
		return fmt.Errorf("failed to delete sheet %s: %w", name, err)
	}
	w.file.SetActiveSheet(0)
	return nil
}

// HasSheet reports whether a sheet exists.
func (w *Workbook) HasSheet(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hasSheet(name)
}

func (w *Workbook) hasSheet(name string) bool {
	for _, sheet := range w.file.GetSheetList() {
		if sheet == name {
			return true
		}
	}
	return false
}

// SheetNames returns the sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.GetSheetList()
}

// GetRange reads numRows x numCols cells starting at (row, col). Cells are string,
// int64, float64 or bool; empty cells are "". Formula cells are evaluated.
func (w *Workbook) GetRange(sheet string, row, col, numRows, numCols int) (model.Matrix, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.getRange(sheet, row, col, numRows, numCols)
}

func (w *Workbook) getRange(sheet string, row, col, numRows, numCols int) (model.Matrix, error) {
	if row < 1 || col < 1 || numRows < 0 || numCols < 0 {
		return nil, fmt.Errorf("%w: row=%d col=%d rows=%d cols=%d", ErrInvalidRange, row, col, numRows, numCols)
	}
	if !w.hasSheet(sheet) {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}

	rows, err := w.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	m := model.NewMatrix(numRows, numCols)
	for r := range numRows {
		for c := range numCols {
			physicalRow, physicalCol := row+r, col+c
			raw := ""
			if physicalRow <= len(rows) && physicalCol <= len(rows[physicalRow-1]) {
				raw = rows[physicalRow-1][physicalCol-1]
			}
			v, err := w.cellValue(sheet, physicalRow, physicalCol, raw)
			if err != nil {
				return nil, err
			}
			m[r][c] = v
		}
	}
	return m, nil
}

// cellValue converts the raw text of a cell into a typed value.
func (w *Workbook) cellValue(sheet string, row, col int, raw string) (any, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}

	// Cached values of identity cells go stale when rows move, so column A is always recomputed
	if raw == "" || col == 1 {
		formula, err := w.file.GetCellFormula(sheet, cell)
		if err != nil {
			return nil, err
		}
		if formula != "" {
			return w.evaluateFormula(sheet, cell, row, formula), nil
		}
		if raw == "" {
			return "", nil
		}
	}

	cellType, err := w.file.GetCellType(sheet, cell)
	if err != nil {
		return nil, err
	}
	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return raw, nil
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "TRUE"), nil
	default:
		return model.ParseScalar(raw), nil
	}
}

// evaluateFormula computes a formula cell that has no cached value.
func (w *Workbook) evaluateFormula(sheet, cell string, row int, formula string) any {
	if isIdentityFormula(formula) {
		return int64(row)
	}
	v, err := w.file.CalcCellValue(sheet, cell)
	if err != nil {
		return "#VALUE!"
	}
	return model.ParseScalar(v)
}

func isIdentityFormula(formula string) bool {
	f := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(formula), "="))
	return strings.EqualFold(f, string(model.IdentityFormula))
}

// SetRange writes m with its top-left cell at (row, col). model.Formula values are
// written as formulas; model.Unset values leave the cell unchanged.
func (w *Workbook) SetRange(sheet string, row, col int, m model.Matrix) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.setRange(sheet, row, col, m)
}

func (w *Workbook) setRange(sheet string, row, col int, m model.Matrix) error {
	if row < 1 || col < 1 {
		return fmt.Errorf("%w: row=%d col=%d", ErrInvalidRange, row, col)
	}
	if !w.hasSheet(sheet) {
		return fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}

	for r, values := range m {
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+c, row+r)
			if err != nil {
				return err
			}
			if err := w.setCell(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func (w *Workbook) setCell(sheet, cell string, v any) error {
	switch val := v.(type) {
	case model.Formula:
		return w.file.SetCellFormula(sheet, cell, strings.TrimPrefix(string(val), "="))
	case nil:
		return w.file.SetCellValue(sheet, cell, "")
	case string, bool, int, int64, float64:
		return w.file.SetCellValue(sheet, cell, val)
	default:
		if model.IsUnset(val) {
			return nil
		}
		return w.file.SetCellValue(sheet, cell, model.ToString(val))
	}
}

// SetFormula writes a formula, given without the leading '=', into one cell.
func (w *Workbook) SetFormula(sheet string, row, col int, formula string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.setRange(sheet, row, col, model.Matrix{{model.Formula(formula)}})
}

// AppendRow writes values into the row below the last populated row.
func (w *Workbook) AppendRow(sheet string, values []any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	last, err := w.lastRow(sheet)
	if err != nil {
		return err
	}
	return w.setRange(sheet, last+1, 1, model.Matrix{values})
}

// DeleteRow removes one row; the rows below move up.
func (w *Workbook) DeleteRow(sheet string, row int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.deleteRows(sheet, row, 1)
}

// DeleteRows removes count rows starting at start. A count below 1 is a no-op.
func (w *Workbook) DeleteRows(sheet string, start, count int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.deleteRows(sheet, start, count)
}

func (w *Workbook) deleteRows(sheet string, start, count int) error {
	if start < 1 {
		return fmt.Errorf("%w: row=%d", ErrInvalidRange, start)
	}
	if !w.hasSheet(sheet) {
		return fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}
	for row := start + count - 1; row >= start; row-- {
		if err := w.file.RemoveRow(sheet, row); err != nil {
			return fmt.Errorf("failed to remove row %d of %s: %w", row, sheet, err)
		}
	}
	return nil
}

// LastRow returns the index of the last row holding a value or a formula in column A.
func (w *Workbook) LastRow(sheet string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastRow(sheet)
}

func (w *Workbook) lastRow(sheet string) (int, error) {
	extent, err := w.extent(sheet)
	return extent.LastRow, err
}

// LastColumn returns the index of the last populated column.
func (w *Workbook) LastColumn(sheet string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	extent, err := w.extent(sheet)
	return extent.LastColumn, err
}

// extent measures the populated area of a sheet. Formula cells in column A have no
// cached value until the workbook is recalculated, so rows are extended while column A
// holds a formula.
func (w *Workbook) extent(sheet string) (model.Extent, error) {
	if !w.hasSheet(sheet) {
		return model.Extent{}, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}

	rows, err := w.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return model.Extent{}, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	extent := model.Extent{LastRow: len(rows)}
	for _, row := range rows {
		extent.LastColumn = max(extent.LastColumn, len(row))
	}

	for {
		cell, err := excelize.CoordinatesToCellName(1, extent.LastRow+1)
		if err != nil {
			return model.Extent{}, err
		}
		formula, err := w.file.GetCellFormula(sheet, cell)
		if err != nil {
			return model.Extent{}, err
		}
		if formula == "" {
			break
		}
		extent.LastRow++
	}

	if extent.LastRow > 0 {
		extent.LastColumn = max(extent.LastColumn, 1)
	}
	return extent, nil
}
