package sheetdb

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/xuri/excelize/v2"

	"github.com/nao1215/sheetdb/domain/model"
)

// Dump exports every table into outputDir, one file per table named
// <table><format extension><compression extension>. The identity column is left
// out unless the options ask for it.
//
// Example:
//
//	// Default: Export as CSV files
//	err := db.Dump(ctx, "./output")
//
//	// Export as TSV files with gzip compression
//	options := sheetdb.NewDumpOptions().
//		WithFormat(sheetdb.OutputFormatTSV).
//		WithCompression(sheetdb.CompressionGZ)
//	err := db.Dump(ctx, "./output", options)
func (db *DB) Dump(ctx context.Context, outputDir string, opts ...DumpOptions) error {
	// Use default options if none provided
	options := NewDumpOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	if err := db.checkOpen(); err != nil {
		return err
	}
	ec := NewErrorContext("dump", db.name)
	if options.Compression == CompressionBZ2 {
		return ec.Error(model.ErrCompressionNotWritable)
	}
	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return ec.WithDetails(outputDir).Error(err)
	}

	for _, name := range db.Tables() {
		if err := ctx.Err(); err != nil {
			return err
		}
		header, records, err := db.exportTable(ctx, name, options.IncludeIdentity)
		if err != nil {
			return ec.WithTable(name).Error(err)
		}

		path := filepath.Join(outputDir, name+options.FileExtension())
		if err := writeDumpFile(path, name, options, header, records); err != nil {
			return ec.WithTable(name).WithDetails(path).Error(err)
		}
		db.logger.DebugContext(ctx, "table dumped",
			slog.String("table", name),
			slog.String("path", path),
			slog.Int("rows", len(records)),
		)
	}
	return nil
}

// exportTable reads a whole table through the query engine as text.
func (db *DB) exportTable(ctx context.Context, name string, includeIdentity bool) ([]string, [][]string, error) {
	table, err := db.Table(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	rows, err := table.Select(ctx, "")
	if err != nil {
		return nil, nil, err
	}

	first := 1
	if includeIdentity {
		first = 0
	}
	header := []string(table.Header())[first:]

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		record := make([]string, len(header))
		for i := range header {
			if first+i < len(row) {
				record[i] = model.ToString(row[first+i])
			}
		}
		records = append(records, record)
	}
	return header, records, nil
}

// writeDumpFile writes one table in the requested format through the compression handler.
func writeDumpFile(path, sheet string, options DumpOptions, header []string, records [][]string) (err error) {
	file, err := os.Create(path) //nolint:gosec // path is built from the output directory and a table name
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	writer, closeWriter, err := model.NewCompressionHandler(options.Compression).NewWriter(file)
	if err != nil {
		return err
	}

	switch options.Format {
	case OutputFormatCSV:
		err = writeDelimited(writer, ',', header, records)
	case OutputFormatTSV:
		err = writeDelimited(writer, '\t', header, records)
	case OutputFormatLTSV:
		err = writeLTSV(writer, header, records)
	case OutputFormatParquet:
		err = writeParquet(writer, header, records)
	case OutputFormatXLSX:
		err = writeXLSX(writer, sheet, header, records)
	default:
		err = fmt.Errorf("unsupported output format: %s", options.Format)
	}
	return errors.Join(err, closeWriter())
}

func writeDelimited(w io.Writer, comma rune, header []string, records [][]string) error {
	writer := csv.NewWriter(w)
	writer.Comma = comma
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	return nil
}

// writeLTSV writes label:value pairs separated by tabs, one record per line.
func writeLTSV(w io.Writer, header []string, records [][]string) error {
	replacer := strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")
	for _, record := range records {
		fields := make([]string, len(header))
		for i, label := range header {
			fields[i] = replacer.Replace(label) + ":" + replacer.Replace(record[i])
		}
		if _, err := io.WriteString(w, strings.Join(fields, "\t")+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// writeParquet writes an all-string Parquet file. The file is assembled in memory
// because the compression writer is not seekable.
func writeParquet(w io.Writer, header []string, records [][]string) error {
	fields := make([]arrow.Field, len(header))
	for i, name := range header {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()
	for _, record := range records {
		for i := range header {
			builder.Field(i).(*array.StringBuilder).Append(record[i]) //nolint:forcetypeassert // every field is a string
		}
	}
	rec := builder.NewRecord()
	defer rec.Release()

	var buf bytes.Buffer
	writer, err := pqarrow.NewFileWriter(schema, &buf, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := writer.Write(rec); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write parquet record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}

	_, err = io.Copy(w, &buf)
	return err
}

// writeXLSX writes the table into a workbook with a single sheet named after it.
func writeXLSX(w io.Writer, sheet string, header []string, records [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, header)
	rows = append(rows, records...)
	for i, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := make([]any, len(values))
		for j, v := range values {
			row[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	return f.Write(w)
}
