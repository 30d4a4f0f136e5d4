package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/sheetdb"
)

// NewCreateCommand creates the create command.
func NewCreateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <database>",
		Short: "Create a database",
		Long: `Create a database backed by a new workbook in the configured directory.

Example:
  sheetdb create test_db
  sheetdb --compression zstd create archive_db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := opts.builder(ctx)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			db, err := b.Create(ctx, args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "create database", err)
			}
			path := db.Path()
			if err := db.Close(); err != nil {
				return err
			}
			return opts.formatter(cmd).Success(
				fmt.Sprintf("created %s", path),
				map[string]string{"database": args[0], "path": path},
			)
		},
	}
}

// NewDropCommand creates the drop command.
func NewDropCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "drop <database>",
		Short:         "Delete a database and its backing file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := opts.builder(ctx)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			db, err := b.Open(ctx, args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "open database", err)
			}
			if err := db.Drop(ctx); err != nil {
				return err
			}
			return opts.formatter(cmd).Success(
				fmt.Sprintf("dropped %s", args[0]),
				map[string]string{"database": args[0]},
			)
		},
	}
}

// NewInfoCommand creates the info command.
func NewInfoCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "info <database>",
		Short:         "Show the metadata of a database",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withDB(cmd.Context(), args[0], false, func(db *sheetdb.DB) error {
				info, err := db.Info(cmd.Context())
				if err != nil {
					return err
				}
				created := ""
				if !info.CreatedAt.IsZero() {
					created = info.CreatedAt.Format(time.RFC3339)
				}
				return opts.formatter(cmd).Success(
					fmt.Sprintf("path: %s\ncreator: %s\ncreated at: %s\nid: %s", db.Path(), info.Creator, created, info.ID),
					map[string]string{
						"path":       db.Path(),
						"creator":    info.Creator,
						"created_at": created,
						"id":         info.ID,
					},
				)
			})
		},
	}
}
