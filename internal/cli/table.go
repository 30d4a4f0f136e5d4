package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/sheetdb"
)

// NewCreateTableCommand creates the create-table command.
func NewCreateTableCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create-table <database> <table> <column>...",
		Short: "Create a table",
		Long: `Create a table with the given columns. The identity column "row" is added
in front of them.

Example:
  sheetdb create-table test_db users id name address age`,
		Args:          cobra.MinimumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withDB(cmd.Context(), args[0], true, func(db *sheetdb.DB) error {
				t, err := db.CreateTable(cmd.Context(), args[1], args[2:]...)
				if err != nil {
					return err
				}
				return opts.formatter(cmd).Success(
					fmt.Sprintf("created table %s (%s)", t.Name(), strings.Join(t.Columns(), ", ")),
					map[string]any{"table": t.Name(), "columns": t.Columns()},
				)
			})
		},
	}
}

// NewTablesCommand creates the tables command.
func NewTablesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "tables <database>",
		Short:         "List the tables of a database",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withDB(cmd.Context(), args[0], false, func(db *sheetdb.DB) error {
				tables := db.Tables()
				return opts.formatter(cmd).Success(strings.Join(tables, "\n"), tables)
			})
		},
	}
}
