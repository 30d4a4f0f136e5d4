package model

// Formula is a cell value written as a spreadsheet formula instead of a literal.
// It is stored without the leading '='.
type Formula string

// IdentityFormula evaluates to the physical row number of the cell holding it.
const IdentityFormula Formula = "ROW()"

// Record maps column names to scalar values.
// Keys that are not header columns are ignored.
type Record map[string]any

type unset struct{}

// String implements fmt.Stringer so an Unset value never leaks into a sheet as "{}".
func (unset) String() string { return "" }

// Unset marks a Record value as "leave this cell unchanged" in an update.
// It is distinct from every legitimate value, including "", 0 and false.
var Unset any = unset{}

// IsUnset reports whether v is the Unset sentinel.
func IsUnset(v any) bool {
	_, ok := v.(unset)
	return ok
}

// NewInsertRow builds a full sheet row for r aligned to header h.
// Column 1 is IdentityFormula. Missing, nil or Unset values become "".
func NewInsertRow(h Header, r Record) []any {
	row := make([]any, 0, len(h))
	row = append(row, IdentityFormula)
	for _, column := range h.Columns() {
		v, ok := r[column]
		if !ok || v == nil || IsUnset(v) {
			row = append(row, "")
			continue
		}
		row = append(row, v)
	}
	return row
}

// UpdateVector holds one value per user column. Unset entries keep the existing cell.
type UpdateVector []any

// NewUpdateVector aligns r to the user columns of h.
func NewUpdateVector(h Header, r Record) UpdateVector {
	columns := h.Columns()
	vector := make(UpdateVector, len(columns))
	for i, column := range columns {
		v, ok := r[column]
		if !ok {
			vector[i] = Unset
			continue
		}
		if v == nil {
			v = ""
		}
		vector[i] = v
	}
	return vector
}

// IsNoop reports whether applying the vector can never change a row.
func (u UpdateVector) IsNoop() bool {
	for _, v := range u {
		if !IsUnset(v) {
			return false
		}
	}
	return true
}

// Overlay returns a copy of row with every non-Unset value of the vector applied.
// row holds user columns only. A row shorter than the vector is padded with "".
func (u UpdateVector) Overlay(row []any) []any {
	width := max(len(row), len(u))
	updated := make([]any, width)
	for i := range width {
		if i < len(row) {
			updated[i] = row[i]
		} else {
			updated[i] = ""
		}
		if i < len(u) && !IsUnset(u[i]) {
			updated[i] = u[i]
		}
	}
	return updated
}
