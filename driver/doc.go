// Package driver evaluates QUERY formulas.
//
// A QUERY formula names a whole-column range of a sheet and a fragment of the
// query language (select / where / group by / order by / limit / offset over
// column letters). The engine loads the data rows of the range into an
// in-memory SQLite database through modernc.org/sqlite, compiles the fragment
// into SQL and returns the result rows.
//
// Usage:
//
//	f, _ := query.ParseFormula(`QUERY(users!A:E, "select A where C = 'x'")`)
//	result, err := driver.NewEngine().Evaluate(ctx, f, source)
package driver
