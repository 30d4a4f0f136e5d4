package driver

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"

	"modernc.org/sqlite"

	"github.com/nao1215/sheetdb/domain/model"
	"github.com/nao1215/sheetdb/domain/query"
)

// TableName is the name of the SQLite table a range is loaded into.
const TableName = "data"

// Engine evaluates QUERY formulas. Every evaluation uses its own in-memory database,
// so an Engine is safe for concurrent use.
type Engine struct{}

// NewEngine creates a new query engine
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs the query of f over source, the cells of the formula's range.
// source[0] is the header row and is skipped. Result cells are string, int64, float64
// or bool; SQL NULL is returned as "".
func (e *Engine) Evaluate(ctx context.Context, f query.Formula, source model.Matrix) (model.Matrix, error) {
	first, last, err := f.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	if err := ValidateColumnCount(last); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}

	statement, err := query.Compile(f.Query, TableName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}

	letters, err := columnLetters(first, last)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	rows := dataRows(source, len(letters))

	conn, err := (&sqlite.Driver{}).Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory database: %w", err)
	}
	defer conn.Close()

	columns := model.InferColumnsInfo(letters, rows)
	if err := createTable(ctx, conn, columns); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	if err := insertRows(ctx, conn, columns, rows); err != nil {
		return nil, fmt.Errorf("failed to insert records: %w", err)
	}

	result, err := queryRows(ctx, conn, statement)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return result, nil
}

// columnLetters returns the letters of the columns first..last.
func columnLetters(first, last int) ([]string, error) {
	letters := make([]string, 0, last-first+1)
	for position := first; position <= last; position++ {
		letter, err := model.ColumnLetter(position)
		if err != nil {
			return nil, err
		}
		letters = append(letters, letter)
	}
	return letters, nil
}

// dataRows drops the header row and pads or cuts every row to width cells.
// Rows without any value are skipped, as a whole-column range ends at the last used row.
func dataRows(source model.Matrix, width int) model.Matrix {
	if len(source) <= 1 {
		return model.Matrix{}
	}

	rows := make(model.Matrix, 0, len(source)-1)
	for _, src := range source[1:] {
		row := make([]any, width)
		empty := true
		for i := range row {
			row[i] = ""
			if i < len(src) && src[i] != nil {
				row[i] = src[i]
			}
			if model.ToString(row[i]) != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// buildCreateTableQuery constructs a CREATE TABLE query for the given columns
func buildCreateTableQuery(columns []model.ColumnInfo) string {
	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		defs = append(defs, fmt.Sprintf(`%s %s`, query.QuoteIdentifier(col.Name), col.Type.String()))
	}
	return fmt.Sprintf(
		`CREATE TABLE %s (%s)`,
		query.QuoteIdentifier(TableName),
		strings.Join(defs, ", "),
	)
}

// buildInsertQuery constructs an INSERT query with one placeholder per column
func buildInsertQuery(columnCount int) string {
	placeholders := make([]string, columnCount)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	return fmt.Sprintf(
		`INSERT INTO %s VALUES (%s)`,
		query.QuoteIdentifier(TableName),
		strings.Join(placeholders, ", "),
	)
}

func createTable(ctx context.Context, conn driver.Conn, columns []model.ColumnInfo) error {
	stmt, err := prepare(ctx, conn, buildCreateTableQuery(columns))
	if err != nil {
		return err
	}
	defer stmt.Close()
	return execute(ctx, stmt, nil)
}

func insertRows(ctx context.Context, conn driver.Conn, columns []model.ColumnInfo, rows model.Matrix) error {
	if len(rows) == 0 {
		return nil
	}

	stmt, err := prepare(ctx, conn, buildInsertQuery(len(columns)))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		args := make([]driver.NamedValue, len(columns))
		for i, col := range columns {
			args[i] = driver.NamedValue{
				Ordinal: i + 1,
				Value:   toDriverValue(row[i], col.Type),
			}
		}
		if err := execute(ctx, stmt, args); err != nil {
			return err
		}
	}
	return nil
}

// toDriverValue converts a cell to the value stored in a column of type ct.
// Empty cells of typed columns become NULL.
func toDriverValue(v any, ct model.ColumnType) driver.Value {
	switch val := v.(type) {
	case nil:
		if ct == model.ColumnTypeText || ct == model.ColumnTypeMixed {
			return ""
		}
		return nil
	case string:
		if val == "" && ct != model.ColumnTypeText && ct != model.ColumnTypeMixed {
			return nil
		}
		return ValidateFieldValue(val)
	case int:
		return int64(val)
	case int64, float64:
		return val
	case bool:
		if ct == model.ColumnTypeBoolean {
			if val {
				return int64(1)
			}
			return int64(0)
		}
		return model.ToString(val)
	default:
		return ValidateFieldValue(model.ToString(val))
	}
}

func prepare(ctx context.Context, conn driver.Conn, statement string) (driver.Stmt, error) {
	if connPrepareCtx, ok := conn.(driver.ConnPrepareContext); ok {
		return connPrepareCtx.PrepareContext(ctx, statement)
	}
	return nil, ErrPrepareContextNotSupported
}

func execute(ctx context.Context, stmt driver.Stmt, args []driver.NamedValue) error {
	if stmtExecCtx, ok := stmt.(driver.StmtExecContext); ok {
		_, err := stmtExecCtx.ExecContext(ctx, args)
		return err
	}
	return ErrStmtExecContextNotSupported
}

// queryRows runs statement and collects every row.
func queryRows(ctx context.Context, conn driver.Conn, statement string) (model.Matrix, error) {
	stmt, err := prepare(ctx, conn, statement)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	stmtQueryCtx, ok := stmt.(driver.StmtQueryContext)
	if !ok {
		return nil, ErrStmtQueryContextNotSupported
	}
	rows, err := stmtQueryCtx.QueryContext(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boolColumns := booleanColumns(rows)
	result := model.Matrix{}
	dest := make([]driver.Value, len(rows.Columns()))
	for {
		if err := rows.Next(dest); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		row := make([]any, len(dest))
		for i, v := range dest {
			row[i] = fromDriverValue(v, boolColumns[i])
		}
		result = append(result, row)
	}
	return result, nil
}

// booleanColumns marks the result columns that read a BOOLEAN column directly.
func booleanColumns(rows driver.Rows) []bool {
	marks := make([]bool, len(rows.Columns()))
	typed, ok := rows.(driver.RowsColumnTypeDatabaseTypeName)
	if !ok {
		return marks
	}
	for i := range marks {
		marks[i] = strings.EqualFold(typed.ColumnTypeDatabaseTypeName(i), model.ColumnTypeBoolean.String())
	}
	return marks
}

func fromDriverValue(v driver.Value, boolean bool) any {
	switch val := v.(type) {
	case nil:
		return ""
	case bool:
		return val
	case int64:
		if boolean {
			return val != 0
		}
		return val
	case float64, string:
		return val
	case []byte:
		return string(val)
	default:
		return model.ToString(val)
	}
}
