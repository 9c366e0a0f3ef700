// Package cli implements the stash command line interface: raw store CRUD,
// palette management, and database lifecycle commands over the persistence
// layer.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/prismkit/stash/internal/stash"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	DBPath     string
	Driver     string
	ConfigFile string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the stash CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "stash",
		Short: "Local persistence for prismkit",
		Long:  "Inspect and manage the prismkit local database: price cache, saved palettes, and settings.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "database file (default: user config dir)")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "storage driver (sqlite3|bolt)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "YAML config file")

	// Add subcommands
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewDelCommand(opts))
	cmd.AddCommand(NewKeysCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewCountCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewDestroyCommand(opts))
	cmd.AddCommand(NewPaletteCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// resolveConfig merges the config file (lowest precedence) with flags.
func resolveConfig(opts *RootOptions) (stash.Config, error) {
	var cfg stash.Config
	if opts.ConfigFile != "" {
		loaded, err := stash.LoadConfig(opts.ConfigFile)
		if err != nil {
			return stash.Config{}, WrapExitError(ExitCommandError, "load config", err)
		}
		cfg = loaded
	}
	if opts.DBPath != "" {
		cfg.Path = opts.DBPath
	}
	if opts.Driver != "" {
		cfg.Driver = opts.Driver
	}
	return cfg, nil
}

// openDB builds a DB from the options and awaits initialization. The caller
// must Close it.
func openDB(ctx context.Context, opts *RootOptions) (*stash.DB, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}
	db := stash.New(cfg)
	if !db.Initialize(ctx) {
		return nil, NewExitError(ExitCommandError,
			fmt.Sprintf("storage unavailable (driver %q, path %q)", db.Config().Driver, db.Config().Path))
	}
	return db, nil
}

// parseStore resolves a store argument against the registry.
func parseStore(name string) (stash.Store, error) {
	spec, ok := stash.LookupStore(name)
	if !ok {
		return "", NewExitError(ExitCommandError,
			fmt.Sprintf("unknown store %q: must be one of %v", name, stash.StoreNames()))
	}
	return spec.Name, nil
}
