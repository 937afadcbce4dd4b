package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ent0n29/coincollector/internal/collection"
)

func newListCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <user-id>",
		Short: "List the coins in a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := opts.openRecords(cmd.Context())
			if err != nil {
				return err
			}
			defer records.Close()

			all, err := records.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c, _ := criteriaFromFlags(cmd)
			return writeRecords(cmd.OutOrStdout(), opts.format, collection.Match(c, all))
		},
	}
	addFilterFlags(cmd)
	return cmd
}

func newCountCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count <user-id>",
		Short: "Count coins matching the filters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := opts.openRecords(cmd.Context())
			if err != nil {
				return err
			}
			defer records.Close()

			c, _ := criteriaFromFlags(cmd)
			n, err := records.Count(cmd.Context(), args[0], c)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}
	addFilterFlags(cmd)
	return cmd
}

func newExportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export <user-id> [file]",
		Short: "Write a collection as JSON to stdout or a file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := opts.openRecords(cmd.Context())
			if err != nil {
				return err
			}
			defer records.Close()

			all, err := records.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return writeRecords(cmd.OutOrStdout(), "json", all)
			}
			f, err := os.Create(args[1])
			if err != nil {
				return err
			}
			if err := writeRecords(f, "json", all); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
}

func newImportCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <user-id> <file>",
		Short: "Replace a collection with records from a JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			var incoming []collection.Record
			if err := json.Unmarshal(raw, &incoming); err != nil {
				return fmt.Errorf("decode %s: %w", args[1], err)
			}

			records, err := opts.openRecords(cmd.Context())
			if err != nil {
				return err
			}
			defer records.Close()

			next := incoming
			if merge, _ := cmd.Flags().GetBool("merge"); merge {
				current, err := records.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				next = append(incoming, current...)
			}
			if err := records.Save(cmd.Context(), args[0], next); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d records, collection size %d\n", len(incoming), len(next))
			return err
		},
	}
	cmd.Flags().Bool("merge", false, "Prepend to the existing collection instead of replacing it")
	return cmd
}

func newRemoveCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <user-id>",
		Short: "Remove every coin matching the filters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, filtered := criteriaFromFlags(cmd)
			if all, _ := cmd.Flags().GetBool("all"); !filtered && !all {
				return errors.New("refusing to remove the whole collection without --all")
			}

			records, err := opts.openRecords(cmd.Context())
			if err != nil {
				return err
			}
			defer records.Close()

			n, err := records.Remove(cmd.Context(), args[0], c)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %d records\n", n)
			return err
		},
	}
	addFilterFlags(cmd)
	cmd.Flags().Bool("all", false, "Allow removing every record when no filter is set")
	return cmd
}
