// Package sheetdb stores relational tables in a spreadsheet workbook.
//
// A database is one workbook (an .xlsx file, optionally compressed) holding one
// sheet per table and two reserved sheets: "table_info" with the creation metadata
// and "query", a scratch sheet used to evaluate queries. Row 1 of a table sheet is
// the header. Column A is the identity column "row"; every data row holds the
// formula =ROW() there, so the column always reports the physical row of the record.
//
// # Basic Usage
//
//	db, err := sheetdb.Create("test_db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	users, err := db.CreateTable(ctx, "users", "id", "name", "address", "age")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = users.Insert(ctx,
//	    sheetdb.Record{"id": 1, "name": "kenta tsujii", "address": "kanagawa", "age": 30},
//	    sheetdb.Record{"id": 2, "name": "hiromi suzuki", "address": "kanagawa", "age": 38},
//	)
//	rows, err := users.Select(ctx, "where age > 35")
//
// # Filters
//
// Select, Update and Delete take a filter fragment in the spreadsheet query
// language, written with column names: "where name = 'hiromi suzuki' order by age".
// Column names are replaced by column letters before the query runs. Names are
// matched case-insensitively and as whole words; keywords such as "where" or "and"
// are never replaced. A column whose name is a keyword or contains spaces can be
// written as a `quoted identifier`.
//
// The query is staged as =QUERY(users!A:E, "...") in cell A1 of the query sheet.
// Stores implementing Evaluator recalculate it synchronously; any other store is
// polled until its result stops changing. Queries against one database run one
// at a time. A query the engine rejects is reported as a *QueryError.
//
// # Row Identity
//
// Update and Delete first select the identity column of the matching rows, then
// act on those physical rows. Rows are deleted from the bottom up, so deleting
// one row never moves a row that is still waiting to be deleted. Identity values
// are only valid until the next mutation.
//
// # Saving
//
// Changes live in memory until Save is called, unless auto-save is enabled on the
// builder with AutoSaveOnClose or AutoSaveOnWrite.
package sheetdb
