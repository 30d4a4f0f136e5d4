package sheetdb

import (
	"context"

	"github.com/nao1215/sheetdb/domain/model"
)

// Store is the tabular store a database lives in: named sheets of cells addressed
// by 1-based rows and columns. Cell values are string, int64, float64 or bool, and
// model.Formula on the write side; empty cells read back as "".
//
// xlsxstore.Workbook is the implementation used by Create and Open.
type Store interface {
	CreateSheet(name string) error
	DeleteSheet(name string) error
	HasSheet(name string) bool
	SheetNames() []string

	// GetRange reads numRows x numCols cells with the top-left cell at (row, col).
	GetRange(sheet string, row, col, numRows, numCols int) (model.Matrix, error)
	// SetRange writes m with the top-left cell at (row, col). model.Unset cells are skipped.
	SetRange(sheet string, row, col int, m model.Matrix) error
	// SetFormula writes a formula, without the leading '=', into one cell.
	SetFormula(sheet string, row, col int, formula string) error
	// AppendRow writes values into the row below the last populated row.
	AppendRow(sheet string, values []any) error
	// DeleteRow removes a row; the rows below move up.
	DeleteRow(sheet string, row int) error
	// DeleteRows removes count rows starting at start.
	DeleteRows(sheet string, start, count int) error

	LastRow(sheet string) (int, error)
	LastColumn(sheet string) (int, error)

	Save(ctx context.Context) error
	Close() error
}

// Evaluator is implemented by stores that recalculate formulas on demand.
// Evaluate recalculates the QUERY formula in cell A1 of sheet, spills the result rows
// from A2 and returns the extent of the sheet afterwards. Stores without it are
// expected to recalculate on their own; the executor then polls until the scratch
// sheet stops changing.
type Evaluator interface {
	Evaluate(ctx context.Context, sheet string) (model.Extent, error)
}
