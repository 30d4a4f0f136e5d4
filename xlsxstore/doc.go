// Package xlsxstore implements the tabular store of sheetdb on an .xlsx workbook.
//
// A Workbook is a set of named sheets addressed by 1-based rows and columns.
// It reads and writes rectangular ranges, appends and removes rows, and
// evaluates the QUERY formula staged in cell A1 of a scratch sheet with the
// engine of the driver package. The backing file may be compressed with gzip,
// xz or zstd; bzip2 files can be opened but not saved.
package xlsxstore
