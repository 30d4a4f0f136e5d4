// Package cli implements the sheetdb command line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/nao1215/sheetdb"
	"github.com/nao1215/sheetdb/domain/model"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile  string
	Dir         string
	Compression string
	Format      string // "json" | "text"
	Verbose     bool

	config *Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the sheetdb CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sheetdb",
		Short: "sheetdb - relational tables on a spreadsheet",
		Long: `sheetdb keeps relational tables in the sheets of a spreadsheet workbook.
Rows are selected, updated and deleted with filters written in the spreadsheet
query language, using column names instead of column letters.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			cfg, err := loadConfig(opts.ConfigFile)
			if err != nil {
				return WrapExitError(ExitCommandError, "load config", err)
			}
			if cmd.Flags().Changed("dir") {
				cfg.Dir = opts.Dir
			}
			if cmd.Flags().Changed("compression") {
				cfg.Compression = opts.Compression
			}
			if opts.Verbose {
				cfg.LogLevel = "debug"
			}
			logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return WrapExitError(ExitCommandError, "configure logging", err)
			}
			opts.config = cfg
			opts.logger = logger
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default: ./sheetdb.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", sheetdb.DefaultDir, "directory holding the databases")
	cmd.PersistentFlags().StringVar(&opts.Compression, "compression", "none", "compression of the backing file (none|gz|xz|zstd)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewDropCommand(opts))
	cmd.AddCommand(NewInfoCommand(opts))
	cmd.AddCommand(NewCreateTableCommand(opts))
	cmd.AddCommand(NewTablesCommand(opts))
	cmd.AddCommand(NewInsertCommand(opts))
	cmd.AddCommand(NewSelectCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))

	return cmd
}

// builder returns a built database builder configured from the loaded config.
func (o *RootOptions) builder(ctx context.Context) (*sheetdb.DBBuilder, error) {
	cfg := o.config
	if cfg == nil {
		cfg = defaultConfig()
	}
	compression, err := model.ParseCompressionType(cfg.Compression)
	if err != nil {
		return nil, err
	}

	b := sheetdb.NewBuilder().
		SetDir(cfg.Dir).
		SetCompression(compression).
		SetSettleDelay(cfg.SettleDelay).
		SetMaxPolls(cfg.MaxPolls).
		SetLogger(o.logger)
	if cfg.AutoSave != "" {
		timing, err := sheetdb.ParseAutoSaveTiming(cfg.AutoSave)
		if err != nil {
			return nil, err
		}
		b = b.EnableAutoSave(timing)
	}
	return b.Build(ctx)
}

// withDB opens the database name, runs fn and closes the database. When write is set
// and no auto-save is configured, the database is saved after fn succeeds.
func (o *RootOptions) withDB(ctx context.Context, name string, write bool, fn func(db *sheetdb.DB) error) (err error) {
	b, err := o.builder(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	db, err := b.Open(ctx, name)
	if err != nil {
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := fn(db); err != nil {
		return err
	}
	if write && o.autoSave() == "" {
		return db.Save(ctx)
	}
	return nil
}

func (o *RootOptions) autoSave() string {
	if o.config == nil {
		return ""
	}
	return o.config.AutoSave
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}
