package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/sheetdb"
	"github.com/nao1215/sheetdb/domain/model"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Output          string
	OutputFormat    string
	OutputCompress  string
	IncludeIdentity bool
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump <database>",
		Short: "Export every table to files",
		Long: `Export every table of a database into the output directory, one file per
table.

Example:
  sheetdb dump test_db -o ./out
  sheetdb dump test_db -o ./out --as parquet
  sheetdb dump test_db -o ./out --as tsv --compress gz --identity`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := model.ParseOutputFormat(opts.OutputFormat)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --as", err)
			}
			compression, err := model.ParseCompressionType(opts.OutputCompress)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --compress", err)
			}
			dumpOpts := sheetdb.NewDumpOptions().
				WithFormat(format).
				WithCompression(compression).
				WithIdentity(opts.IncludeIdentity)

			return opts.withDB(cmd.Context(), args[0], false, func(db *sheetdb.DB) error {
				if err := db.Dump(cmd.Context(), opts.Output, dumpOpts); err != nil {
					return err
				}
				return opts.formatter(cmd).Success(
					fmt.Sprintf("dumped %d tables to %s", len(db.Tables()), opts.Output),
					map[string]any{"output": opts.Output, "tables": db.Tables()},
				)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", ".", "output directory")
	cmd.Flags().StringVar(&opts.OutputFormat, "as", "csv", "file format (csv|tsv|ltsv|parquet|xlsx)")
	cmd.Flags().StringVar(&opts.OutputCompress, "compress", "none", "file compression (none|gz|xz|zstd)")
	cmd.Flags().BoolVar(&opts.IncludeIdentity, "identity", false, "include the row identity column")

	return cmd
}
