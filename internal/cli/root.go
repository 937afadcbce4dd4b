// Package cli implements the coinctl operator commands over the collection store.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ent0n29/coincollector/internal/app"
	"github.com/ent0n29/coincollector/internal/collection"
	"github.com/ent0n29/coincollector/internal/config"
)

type options struct {
	driver     string
	dbURL      string
	sqlitePath string
	format     string
}

// NewRootCmd builds the coinctl command tree. Store flags override the
// STORE_DRIVER, DATABASE_URL and SQLITE_PATH environment settings.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "coinctl",
		Short:         "Inspect and maintain coin collections",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.driver, "driver", "", "Store driver: auto, memory, postgres or sqlite")
	root.PersistentFlags().StringVar(&opts.dbURL, "db-url", "", "Postgres connection URL")
	root.PersistentFlags().StringVar(&opts.sqlitePath, "sqlite-path", "", "SQLite database file")
	root.PersistentFlags().StringVarP(&opts.format, "format", "f", "json", "Output format: json or text")

	root.AddCommand(
		newListCmd(opts),
		newCountCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newRemoveCmd(opts),
	)
	return root
}

func (o *options) openRecords(ctx context.Context) (*collection.Adapter, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.driver != "" {
		cfg.StoreDriver = strings.ToLower(strings.TrimSpace(o.driver))
	}
	if o.dbURL != "" {
		cfg.DatabaseURL = o.dbURL
	}
	if o.sqlitePath != "" {
		cfg.SQLitePath = o.sqlitePath
	}
	return app.OpenRecords(ctx, cfg)
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("year", "", "Filter by year")
	cmd.Flags().String("city", "", "Filter by mint city")
	cmd.Flags().String("coin", "", "Filter by coin type")
	cmd.Flags().String("condition", "", "Filter by condition; an empty value selects coins without one")
}

// criteriaFromFlags turns only the flags the caller set into criteria. An
// explicitly empty --condition selects coins recorded without a condition.
func criteriaFromFlags(cmd *cobra.Command) (collection.Criteria, bool) {
	set := false
	field := func(name string) *string {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		set = true
		v, _ := cmd.Flags().GetString(name)
		return &v
	}
	c := collection.Criteria{
		Year:     field("year"),
		City:     field("city"),
		CoinType: field("coin"),
	}
	if v := field("condition"); v != nil {
		c.Condition, c.NoCondition = collection.ConditionFilter(*v)
	}
	return c, set
}

func writeRecords(w io.Writer, format string, records []collection.Record) error {
	switch format {
	case "text":
		for _, r := range records {
			line := fmt.Sprintf("%s %s %s", r.Year, r.City, r.CoinType)
			if r.Condition != "" {
				line += " (" + r.Condition + ")"
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
