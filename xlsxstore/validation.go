package xlsxstore

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxSheetNameLength is the longest sheet name a workbook accepts
const MaxSheetNameLength = 31

// reservedNames cannot be used as file names on Windows
var reservedNames = []string{
	"con", "prn", "aux", "nul",
	"com1", "com2", "com3", "com4", "com5", "com6", "com7", "com8", "com9",
	"lpt1", "lpt2", "lpt3", "lpt4", "lpt5", "lpt6", "lpt7", "lpt8", "lpt9",
}

// ValidateName checks that a database name can be used as the base name of its backing file
func ValidateName(name string) error {
	// Check for empty or whitespace-only names
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: database name is empty", ErrInvalidName)
	}

	// Check for null byte injection
	if strings.Contains(name, "\x00") {
		return fmt.Errorf("%w: database name contains a null byte", ErrInvalidName)
	}

	// A name is a single path element
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q is not a plain file name", ErrInvalidName, name)
	}

	for _, char := range []string{"<", ">", ":", "\"", "|", "?", "*"} {
		if strings.Contains(name, char) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidName, name, char)
		}
	}

	lower := strings.ToLower(name)
	for _, reserved := range reservedNames {
		if lower == reserved {
			return fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
		}
	}
	return nil
}

// ValidateSheetName checks the naming rules of worksheets
func ValidateSheetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: sheet name is empty", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > MaxSheetNameLength {
		return fmt.Errorf("%w: sheet name %q is longer than %d characters", ErrInvalidName, name, MaxSheetNameLength)
	}
	if strings.ContainsAny(name, `:\/?*[]`) {
		return fmt.Errorf("%w: sheet name %q contains one of :\\/?*[]", ErrInvalidName, name)
	}
	if strings.HasPrefix(name, "'") || strings.HasSuffix(name, "'") {
		return fmt.Errorf("%w: sheet name %q starts or ends with an apostrophe", ErrInvalidName, name)
	}
	return nil
}
