package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prismkit/stash/internal/stash"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Show per-store record counts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer db.Close()

			type storeStat struct {
				Store string `json:"store"`
				Count int    `json:"count"`
			}
			stats := make([]storeStat, 0, len(stash.Stores()))
			for _, spec := range stash.Stores() {
				stats = append(stats, storeStat{
					Store: string(spec.Name),
					Count: db.Count(cmd.Context(), spec.Name),
				})
			}

			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			if opts.Format == "json" {
				return f.Success(stats)
			}
			lines := make([]string, len(stats))
			for i, s := range stats {
				lines[i] = fmt.Sprintf("%-12s %d", s.Store, s.Count)
			}
			return f.Success(strings.Join(lines, "\n"))
		},
	}
}

// NewDestroyCommand creates the destroy command.
func NewDestroyCommand(opts *RootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:           "destroy",
		Short:         "Delete the entire database",
		Long:          "Delete the entire physical database, including every store. Irreversible.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return NewExitError(ExitCommandError, "refusing to delete without --force")
			}

			cfg, err := resolveConfig(opts)
			if err != nil {
				return err
			}
			// Destruction must not require (or perform) initialization.
			db := stash.New(cfg)
			if !db.DeleteDatabase() {
				return NewExitError(ExitFailure, "database not deleted (unsupported driver, open elsewhere, or removal failed)")
			}
			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return f.Success("deleted")
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "confirm deletion")
	return cmd
}
