package model

// ColumnType represents the SQL column type used when a sheet range is loaded into the query engine
type ColumnType int

const (
	// ColumnTypeText represents TEXT column type
	ColumnTypeText ColumnType = iota
	// ColumnTypeInteger represents INTEGER column type
	ColumnTypeInteger
	// ColumnTypeReal represents a column of fractional numbers. It is declared NUMERIC,
	// so integral values in it stay integers.
	ColumnTypeReal
	// ColumnTypeBoolean represents a column of TRUE/FALSE cells
	ColumnTypeBoolean
	// ColumnTypeMixed represents a column mixing text with numbers or booleans. It is
	// declared without affinity, so every value keeps its own type.
	ColumnTypeMixed
)

const (
	sqlTypeText    = "TEXT"
	sqlTypeInteger = "INTEGER"
	sqlTypeNumeric = "NUMERIC"
	sqlTypeBoolean = "BOOLEAN"
	sqlTypeMixed   = "BLOB"
)

// String returns the SQL column type string
func (ct ColumnType) String() string {
	switch ct {
	case ColumnTypeInteger:
		return sqlTypeInteger
	case ColumnTypeReal:
		return sqlTypeNumeric
	case ColumnTypeBoolean:
		return sqlTypeBoolean
	case ColumnTypeMixed:
		return sqlTypeMixed
	default:
		return sqlTypeText
	}
}

// IsNumeric reports whether the column holds numbers.
func (ct ColumnType) IsNumeric() bool {
	return ct == ColumnTypeInteger || ct == ColumnTypeReal
}

// ColumnInfo represents column information with name and inferred type
type ColumnInfo struct {
	Name string
	Type ColumnType
}

// InferColumnType infers the SQL column type from the Go types of cell values.
// Empty cells are skipped. Strings are text even when they look like numbers, so
// "007" or "1.50" come back exactly as they were stored.
func InferColumnType(values []any) ColumnType {
	var hasInteger, hasReal, hasBool, hasText bool

	for _, v := range values {
		switch val := v.(type) {
		case nil:
		case int64, int:
			hasInteger = true
		case float64:
			hasReal = true
		case bool:
			hasBool = true
		case string:
			if val != "" {
				hasText = true
			}
		default:
			if ToString(val) != "" {
				hasText = true
			}
		}
	}

	hasNumber := hasInteger || hasReal
	switch {
	case hasText && (hasNumber || hasBool), hasBool && hasNumber:
		return ColumnTypeMixed
	case hasText:
		return ColumnTypeText
	case hasBool:
		return ColumnTypeBoolean
	case hasReal:
		return ColumnTypeReal
	case hasInteger:
		return ColumnTypeInteger
	default:
		return ColumnTypeText
	}
}

// InferColumnsInfo infers one ColumnInfo per name from the rows of a matrix.
func InferColumnsInfo(names []string, rows Matrix) []ColumnInfo {
	columns := make([]ColumnInfo, len(names))
	for i, name := range names {
		columns[i] = ColumnInfo{
			Name: name,
			Type: InferColumnType(rows.Column(i)),
		}
	}
	return columns
}
