package model

// Extent is the populated area of a sheet, anchored at A1.
type Extent struct {
	LastRow    int
	LastColumn int
}

// Empty reports whether no cell is populated.
func (e Extent) Empty() bool {
	return e.LastRow == 0 || e.LastColumn == 0
}
