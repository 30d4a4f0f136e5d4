package sheetdb

import (
	"context"
	"time"

	"github.com/nao1215/sheetdb/domain/model"
)

const (
	// DefaultDir is the directory databases are created in unless the builder sets another
	DefaultDir = "spreadsheet_db"
	// QuerySheet is the reserved scratch sheet queries are staged in
	QuerySheet = "query"
	// TableInfoSheet is the reserved sheet holding the database metadata
	TableInfoSheet = "table_info"
	// IdentityColumn is the header of column A of every table
	IdentityColumn = model.IdentityColumn
	// DefaultSettleDelay is the wait between two reads of the scratch sheet when the store
	// recalculates on its own
	DefaultSettleDelay = 100 * time.Millisecond
	// DefaultMaxPolls bounds the reads of the scratch sheet per query
	DefaultMaxPolls = 10
)

type (
	// Record maps column names to values for Insert and Update
	Record = model.Record
	// Matrix is a block of cell values returned by Select
	Matrix = model.Matrix
	// DumpOptions configures Dump
	DumpOptions = model.DumpOptions
	// OutputFormat is a Dump file format
	OutputFormat = model.OutputFormat
	// CompressionType is the compression of a backing or dump file
	CompressionType = model.CompressionType
)

// Unset leaves a column unchanged when used as a Record value in Update.
var Unset = model.Unset

const (
	// OutputFormatCSV represents CSV output format
	OutputFormatCSV = model.OutputFormatCSV
	// OutputFormatTSV represents TSV output format
	OutputFormatTSV = model.OutputFormatTSV
	// OutputFormatLTSV represents LTSV output format
	OutputFormatLTSV = model.OutputFormatLTSV
	// OutputFormatParquet represents Parquet output format
	OutputFormatParquet = model.OutputFormatParquet
	// OutputFormatXLSX represents Excel XLSX output format
	OutputFormatXLSX = model.OutputFormatXLSX
)

const (
	// CompressionNone represents no compression
	CompressionNone = model.CompressionNone
	// CompressionGZ represents gzip compression
	CompressionGZ = model.CompressionGZ
	// CompressionBZ2 represents bzip2 compression, readable only
	CompressionBZ2 = model.CompressionBZ2
	// CompressionXZ represents xz compression
	CompressionXZ = model.CompressionXZ
	// CompressionZSTD represents zstd compression
	CompressionZSTD = model.CompressionZSTD
)

// NewDumpOptions creates new DumpOptions with default values (CSV format, no compression)
func NewDumpOptions() DumpOptions {
	return model.NewDumpOptions()
}

// Create creates the database name in DefaultDir.
//
// Example usage:
//
//	db, err := sheetdb.Create("test_db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	users, err := db.CreateTable(ctx, "users", "id", "name", "address", "age")
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = users.Insert(ctx, sheetdb.Record{"id": 1, "name": "kenta tsujii", "age": 30})
func Create(name string) (*DB, error) {
	return CreateContext(context.Background(), name)
}

// CreateContext is Create with context support.
func CreateContext(ctx context.Context, name string) (*DB, error) {
	builder, err := NewBuilder().Build(ctx)
	if err != nil {
		return nil, err
	}
	return builder.Create(ctx, name)
}

// Open opens the database name in DefaultDir.
//
// Example usage:
//
//	db, err := sheetdb.Open("test_db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	users, err := db.Table(ctx, "users")
//	if err != nil {
//		log.Fatal(err)
//	}
//	rows, err := users.Select(ctx, "where age > 30")
func Open(name string) (*DB, error) {
	return OpenContext(context.Background(), name)
}

// OpenContext is Open with context support.
func OpenContext(ctx context.Context, name string) (*DB, error) {
	builder, err := NewBuilder().Build(ctx)
	if err != nil {
		return nil, err
	}
	return builder.Open(ctx, name)
}
