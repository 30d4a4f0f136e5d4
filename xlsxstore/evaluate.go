package xlsxstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/sheetdb/domain/model"
	"github.com/nao1215/sheetdb/domain/query"
	"github.com/nao1215/sheetdb/driver"
)

// errorValue is spilled in place of a result when the formula cannot be evaluated
const errorValue = "#VALUE!"

// Evaluate recalculates the QUERY formula in cell A1 of sheet and spills the result
// rows from A2 downwards, replacing the previous spill. It returns the extent of the
// sheet after the spill. When the query is rejected the spill is the single value
// #VALUE! and the returned error wraps driver.ErrQuery.
func (w *Workbook) Evaluate(ctx context.Context, sheet string) (model.Extent, error) {
	if err := ctx.Err(); err != nil {
		return model.Extent{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.hasSheet(sheet) {
		return model.Extent{}, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}
	text, err := w.file.GetCellFormula(sheet, "A1")
	if err != nil {
		return model.Extent{}, err
	}
	if text == "" {
		return model.Extent{}, fmt.Errorf("%w: %s!A1", ErrNoFormula, sheet)
	}

	previous, err := w.extent(sheet)
	if err != nil {
		return model.Extent{}, err
	}
	if err := w.deleteRows(sheet, 2, previous.LastRow-1); err != nil {
		return model.Extent{}, err
	}

	result, evalErr := w.evaluate(ctx, text)
	if evalErr != nil {
		if !errors.Is(evalErr, driver.ErrQuery) {
			return model.Extent{}, evalErr
		}
		result = model.Matrix{{errorValue}}
	}

	if err := w.setRange(sheet, 2, 1, result); err != nil {
		return model.Extent{}, err
	}
	extent := model.Extent{LastRow: 1 + len(result), LastColumn: max(result.Width(), 1)}
	return extent, evalErr
}

// evaluate runs a QUERY formula against the sheet it names.
func (w *Workbook) evaluate(ctx context.Context, text string) (model.Matrix, error) {
	f, err := query.ParseFormula(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", driver.ErrQuery, err)
	}
	if !w.hasSheet(f.Sheet) {
		return nil, fmt.Errorf("%w: %w: %s", driver.ErrQuery, ErrSheetNotFound, f.Sheet)
	}

	first, last, err := f.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", driver.ErrQuery, err)
	}
	extent, err := w.extent(f.Sheet)
	if err != nil {
		return nil, err
	}
	source, err := w.getRange(f.Sheet, 1, first, extent.LastRow, last-first+1)
	if err != nil {
		return nil, err
	}
	return w.engine.Evaluate(ctx, f, source)
}
