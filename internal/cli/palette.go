package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prismkit/stash/internal/palettes"
)

// NewPaletteCommand creates the palette command group.
func NewPaletteCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "palette",
		Short: "Manage saved palettes",
	}
	cmd.AddCommand(newPaletteAddCommand(opts))
	cmd.AddCommand(newPaletteListCommand(opts))
	cmd.AddCommand(newPaletteRmCommand(opts))
	return cmd
}

func newPaletteAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <color>...",
		Short: "Save a new palette",
		Long: `Save a new palette under a generated ID.

Example:
  stash palette add Sunset '#ff7700' '#aa3300' '#331100'`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer db.Close()

			p, err := palettes.NewLibrary(db).Save(cmd.Context(), args[0], args[1:])
			if err != nil {
				return WrapExitError(ExitFailure, "save palette", err)
			}
			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			if opts.Format == "json" {
				return f.Success(p)
			}
			return f.Success(p.ID)
		},
	}
}

func newPaletteListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List saved palettes, oldest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer db.Close()

			list := palettes.NewLibrary(db).List(cmd.Context())
			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			if opts.Format == "json" {
				return f.Success(list)
			}
			lines := make([]string, len(list))
			for i, p := range list {
				lines[i] = fmt.Sprintf("%s  %-20s %s", p.ID, p.Name, strings.Join(p.Colors, " "))
			}
			return f.Success(strings.Join(lines, "\n"))
		},
	}
}

func newPaletteRmCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rm <id>",
		Short:         "Delete a saved palette",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer db.Close()

			if !palettes.NewLibrary(db).Remove(cmd.Context(), args[0]) {
				return NewExitError(ExitFailure, fmt.Sprintf("delete of palette %s did not commit", args[0]))
			}
			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return f.Success("ok")
		},
	}
}
