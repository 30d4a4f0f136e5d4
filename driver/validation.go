package driver

import (
	"fmt"
	"strings"
)

// MaxColumnCount defines the maximum number of columns of a worksheet (XFD)
const MaxColumnCount = 16384

// MaxValueLength defines the maximum number of characters a cell can hold
const MaxValueLength = 32767

// ValidateColumnCount checks if the number of columns is within acceptable limits
func ValidateColumnCount(columnCount int) error {
	if columnCount > MaxColumnCount {
		return fmt.Errorf("%w: %d > %d", ErrTooManyColumns, columnCount, MaxColumnCount)
	}
	return nil
}

// ValidateFieldValue sanitizes a text value before it is loaded into the engine
func ValidateFieldValue(value string) string {
	// Remove null bytes
	value = strings.ReplaceAll(value, "\x00", "")

	// Truncate extremely long values
	if len(value) > MaxValueLength {
		value = value[:MaxValueLength]
	}
	return value
}
