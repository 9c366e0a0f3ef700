package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewGetCommand creates the get command.
func NewGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <store> <key>",
		Short: "Read the value stored under a key",
		Long: `Read the value stored under a key.

Example:
  stash get settings theme`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := parseStore(args[0])
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer db.Close()

			raw := db.Get(cmd.Context(), store, args[1])
			if raw == nil {
				return NewExitError(ExitFailure, fmt.Sprintf("no value for %s/%s", store, args[1]))
			}
			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return f.SuccessRaw(raw)
		},
	}
}

// NewSetCommand creates the set command.
func NewSetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <store> <key> <value>",
		Short: "Write a value under a key",
		Long: `Write a value under a key. The value is stored as JSON; input that
does not parse as JSON is stored as a string.

Example:
  stash set settings theme dark
  stash set settings grid '{"columns":4}'`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := parseStore(args[0])
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer db.Close()

			if !db.Set(cmd.Context(), store, args[1], parseValue(args[2])) {
				return NewExitError(ExitFailure, fmt.Sprintf("write to %s/%s did not commit", store, args[1]))
			}
			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return f.Success("ok")
		},
	}
}

// NewDelCommand creates the del command.
func NewDelCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "del <store> <key>",
		Short:         "Delete the value stored under a key",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := parseStore(args[0])
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer db.Close()

			if !db.Delete(cmd.Context(), store, args[1]) {
				return NewExitError(ExitFailure, fmt.Sprintf("delete of %s/%s did not commit", store, args[1]))
			}
			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return f.Success("ok")
		},
	}
}

// NewKeysCommand creates the keys command.
func NewKeysCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "keys <store>",
		Short:         "List all keys in a store",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := parseStore(args[0])
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer db.Close()

			keys := db.Keys(cmd.Context(), store)
			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			if opts.Format == "json" {
				return f.Success(keys)
			}
			return f.Success(strings.Join(keys, "\n"))
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list <store>",
		Short:         "List all values in a store",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := parseStore(args[0])
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer db.Close()

			values := db.GetAll(cmd.Context(), store)
			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			if opts.Format == "json" {
				return f.Success(values)
			}
			lines := make([]string, len(values))
			for i, v := range values {
				lines[i] = string(v)
			}
			return f.Success(strings.Join(lines, "\n"))
		},
	}
}

// NewClearCommand creates the clear command.
func NewClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clear <store>",
		Short:         "Remove every record in a store",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := parseStore(args[0])
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer db.Close()

			if !db.Clear(cmd.Context(), store) {
				return NewExitError(ExitFailure, fmt.Sprintf("clear of %s did not commit", store))
			}
			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return f.Success("ok")
		},
	}
}

// NewCountCommand creates the count command.
func NewCountCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "count <store>",
		Short:         "Count the records in a store",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := parseStore(args[0])
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer db.Close()

			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(db.Count(cmd.Context(), store))
		},
	}
}

// parseValue interprets a command line value: JSON when it parses, a plain
// string otherwise, so `set settings theme dark` works without quoting.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
