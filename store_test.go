package sheetdb

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/nao1215/sheetdb/domain/model"
	"github.com/nao1215/sheetdb/domain/query"
	"github.com/nao1215/sheetdb/driver"
)

// memoryStore is a Store without Evaluator. Like a hosted spreadsheet it recalculates
// the QUERY formula of the scratch sheet by itself whenever the formula is written,
// so queries against it go through the polling wait.
type memoryStore struct {
	mu     sync.Mutex
	order  []string
	sheets map[string][][]any
	engine *driver.Engine
	// errorToken is spilled when a query cannot be evaluated
	errorToken string
	saves      int
	closed     bool
}

var _ Store = (*memoryStore)(nil)

func newMemoryStore() *memoryStore {
	return &memoryStore{
		sheets:     make(map[string][][]any),
		engine:     driver.NewEngine(),
		errorToken: "#N/A",
	}
}

func (s *memoryStore) CreateSheet(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sheets[name]; ok {
		return fmt.Errorf("sheet %s already exists", name)
	}
	s.sheets[name] = nil
	s.order = append(s.order, name)
	return nil
}

func (s *memoryStore) DeleteSheet(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sheets[name]; !ok {
		return fmt.Errorf("sheet %s not found", name)
	}
	delete(s.sheets, name)
	s.order = slices.DeleteFunc(s.order, func(sheet string) bool { return sheet == name })
	return nil
}

func (s *memoryStore) HasSheet(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sheets[name]
	return ok
}

func (s *memoryStore) SheetNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

func (s *memoryStore) GetRange(sheet string, row, col, numRows, numCols int) (model.Matrix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getRange(sheet, row, col, numRows, numCols)
}

func (s *memoryStore) getRange(sheet string, row, col, numRows, numCols int) (model.Matrix, error) {
	rows, ok := s.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("sheet %s not found", sheet)
	}
	m := model.NewMatrix(numRows, numCols)
	for r := range numRows {
		for c := range numCols {
			physicalRow, physicalCol := row+r, col+c
			if physicalRow > len(rows) || physicalCol > len(rows[physicalRow-1]) {
				continue
			}
			switch v := rows[physicalRow-1][physicalCol-1].(type) {
			case model.Formula:
				if v == model.IdentityFormula {
					m[r][c] = int64(physicalRow)
				} else {
					m[r][c] = "=" + string(v)
				}
			case nil:
			default:
				m[r][c] = v
			}
		}
	}
	return m, nil
}

func (s *memoryStore) SetRange(sheet string, row, col int, m model.Matrix) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setRange(sheet, row, col, m)
}

func (s *memoryStore) setRange(sheet string, row, col int, m model.Matrix) error {
	rows, ok := s.sheets[sheet]
	if !ok {
		return fmt.Errorf("sheet %s not found", sheet)
	}
	for r, values := range m {
		for len(rows) < row+r {
			rows = append(rows, nil)
		}
		current := rows[row+r-1]
		for c, v := range values {
			if model.IsUnset(v) {
				continue
			}
			for len(current) < col+c {
				current = append(current, "")
			}
			if v == nil {
				v = ""
			}
			current[col+c-1] = v
		}
		rows[row+r-1] = current
	}
	s.sheets[sheet] = rows
	return nil
}

func (s *memoryStore) SetFormula(sheet string, row, col int, formula string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.setRange(sheet, row, col, model.Matrix{{model.Formula(formula)}}); err != nil {
		return err
	}
	if sheet == QuerySheet && row == 1 && col == 1 {
		s.recalculate(formula)
	}
	return nil
}

// recalculate replaces the spill below the scratch formula.
func (s *memoryStore) recalculate(text string) {
	result, err := s.evaluate(text)
	if err != nil {
		result = model.Matrix{{s.errorToken}}
	}
	rows := [][]any{{model.Formula(text)}}
	for _, r := range result {
		rows = append(rows, slices.Clone(r))
	}
	s.sheets[QuerySheet] = rows
}

func (s *memoryStore) evaluate(text string) (model.Matrix, error) {
	f, err := query.ParseFormula(text)
	if err != nil {
		return nil, err
	}
	first, last, err := f.Columns()
	if err != nil {
		return nil, err
	}
	rows, ok := s.sheets[f.Sheet]
	if !ok {
		return nil, errors.New("no such sheet")
	}
	source, err := s.getRange(f.Sheet, 1, first, len(rows), last-first+1)
	if err != nil {
		return nil, err
	}
	return s.engine.Evaluate(context.Background(), f, source)
}

func (s *memoryStore) AppendRow(sheet string, values []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.sheets[sheet]
	if !ok {
		return fmt.Errorf("sheet %s not found", sheet)
	}
	return s.setRange(sheet, len(rows)+1, 1, model.Matrix{values})
}

func (s *memoryStore) DeleteRow(sheet string, row int) error {
	return s.DeleteRows(sheet, row, 1)
}

func (s *memoryStore) DeleteRows(sheet string, start, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.sheets[sheet]
	if !ok {
		return fmt.Errorf("sheet %s not found", sheet)
	}
	if count < 1 || start > len(rows) {
		return nil
	}
	end := min(start-1+count, len(rows))
	s.sheets[sheet] = slices.Delete(rows, start-1, end)
	return nil
}

func (s *memoryStore) LastRow(sheet string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.sheets[sheet]
	if !ok {
		return 0, fmt.Errorf("sheet %s not found", sheet)
	}
	return len(rows), nil
}

func (s *memoryStore) LastColumn(sheet string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.sheets[sheet]
	if !ok {
		return 0, fmt.Errorf("sheet %s not found", sheet)
	}
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	return width, nil
}

func (s *memoryStore) Save(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	return nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
