package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/nao1215/sheetdb"
)

// NewInsertCommand creates the insert command.
func NewInsertCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "insert <database> <table> [records]",
		Short: "Insert rows into a table",
		Long: `Insert rows into a table. Records are a JSON object or an array of JSON
objects keyed by column name, read from standard input when omitted.

Example:
  sheetdb insert test_db users '{"id": 1, "name": "kenta tsujii", "age": 30}'
  cat users.json | sheetdb insert test_db users`,
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			if len(args) == 3 {
				raw = []byte(args[2])
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return WrapExitError(ExitCommandError, "read records", err)
				}
				raw = data
			}
			records, err := decodeRecords(raw)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid records", err)
			}

			return opts.withDB(cmd.Context(), args[0], true, func(db *sheetdb.DB) error {
				t, err := db.Table(cmd.Context(), args[1])
				if err != nil {
					return err
				}
				if err := t.Insert(cmd.Context(), records...); err != nil {
					return err
				}
				return opts.formatter(cmd).Success(
					fmt.Sprintf("inserted %d rows", len(records)),
					map[string]int{"inserted": len(records)},
				)
			})
		},
	}
}

// NewSelectCommand creates the select command.
func NewSelectCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "select <database> <table> [filter]",
		Short: "Query rows of a table",
		Long: `Query rows of a table with a filter written in the query language, using
column names. A bare predicate is read as a where clause. Without a select
clause every column is returned, the row identity first.

Example:
  sheetdb select test_db users
  sheetdb select test_db users "where age > 30 order by name"
  sheetdb select test_db users "select name, age where address = 'kanagawa'"`,
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := ""
			if len(args) == 3 {
				filter = normalizeFilter(args[2])
			}
			return opts.withDB(cmd.Context(), args[0], false, func(db *sheetdb.DB) error {
				t, err := db.Table(cmd.Context(), args[1])
				if err != nil {
					return err
				}
				rows, err := t.Select(cmd.Context(), filter)
				if err != nil {
					return WrapExitError(ExitFailure, "select", err)
				}
				var header []string
				if !hasSelectClause(filter) {
					header = t.Header()
				}
				return opts.formatter(cmd).Matrix(header, rows)
			})
		},
	}
}

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	Set   string
	Where string
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <database> <table>",
		Short: "Update rows of a table",
		Long: `Overwrite columns of the rows matching --where. The filter is a predicate
over column names, optionally prefixed with "where". Without --where every row
is updated.

Example:
  sheetdb update test_db users --set '{"age": 31}' --where "name = 'kenta tsujii'"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := decodeRecords([]byte(opts.Set))
			if err != nil || len(records) != 1 {
				return WrapExitError(ExitCommandError, "--set must be one JSON object", err)
			}
			return opts.withDB(cmd.Context(), args[0], true, func(db *sheetdb.DB) error {
				t, err := db.Table(cmd.Context(), args[1])
				if err != nil {
					return err
				}
				n, err := t.Update(cmd.Context(), records[0], normalizeFilter(opts.Where))
				if err != nil {
					return WrapExitError(ExitFailure, "update", err)
				}
				return opts.formatter(cmd).Success(fmt.Sprintf("updated %d rows", n), map[string]int{"updated": n})
			})
		},
	}

	cmd.Flags().StringVar(&opts.Set, "set", "", "columns to overwrite as a JSON object")
	cmd.Flags().StringVar(&opts.Where, "where", "", "filter selecting the rows to update")
	_ = cmd.MarkFlagRequired("set")

	return cmd
}

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	*RootOptions
	Where string
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete <database> <table>",
		Short: "Delete rows of a table",
		Long: `Delete the rows matching --where. The filter is a predicate over column
names, optionally prefixed with "where". Without --where every row is deleted.

Example:
  sheetdb delete test_db users --where "age < 20"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withDB(cmd.Context(), args[0], true, func(db *sheetdb.DB) error {
				t, err := db.Table(cmd.Context(), args[1])
				if err != nil {
					return err
				}
				n, err := t.Delete(cmd.Context(), normalizeFilter(opts.Where))
				if err != nil {
					return WrapExitError(ExitFailure, "delete", err)
				}
				return opts.formatter(cmd).Success(fmt.Sprintf("deleted %d rows", n), map[string]int{"deleted": n})
			})
		},
	}

	cmd.Flags().StringVar(&opts.Where, "where", "", "filter selecting the rows to delete")

	return cmd
}

// decodeRecords parses a JSON object or an array of objects. Integral numbers become
// int64, other numbers float64.
func decodeRecords(raw []byte) ([]sheetdb.Record, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("no records given")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var records []sheetdb.Record
	if raw[0] == '[' {
		if err := dec.Decode(&records); err != nil {
			return nil, err
		}
	} else {
		var record sheetdb.Record
		if err := dec.Decode(&record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	for _, record := range records {
		for key, v := range record {
			n, ok := v.(json.Number)
			if !ok {
				continue
			}
			if i, err := n.Int64(); err == nil {
				record[key] = i
			} else if f, err := n.Float64(); err == nil {
				record[key] = f
			} else {
				record[key] = n.String()
			}
		}
	}
	return records, nil
}

// clauseKeywords are the words a query-language fragment may start with.
var clauseKeywords = map[string]struct{}{
	"select": {}, "where": {}, "group": {}, "order": {}, "pivot": {},
	"limit": {}, "offset": {}, "label": {}, "format": {}, "options": {},
}

// normalizeFilter turns a bare predicate such as "age > 30" into "where age > 30".
// Fragments that already start with a clause keyword are returned trimmed.
func normalizeFilter(filter string) string {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return ""
	}
	if _, ok := clauseKeywords[firstWord(filter)]; ok {
		return filter
	}
	return "where " + filter
}

// hasSelectClause reports whether filter names its own result columns.
func hasSelectClause(filter string) bool {
	return firstWord(filter) == "select"
}

// firstWord returns the leading run of letters of s, lower-cased.
func firstWord(s string) string {
	s = strings.TrimSpace(s)
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	if end < 0 {
		end = len(s)
	}
	return strings.ToLower(s[:end])
}
