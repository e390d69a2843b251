package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"housing-registry/internal/config"
	"housing-registry/internal/registry"
	"housing-registry/internal/schema"
)

func newRootCmd(cfg *config.Config, log *zap.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "housingctl",
		Short:         "Housing-registry data and reporting tool",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&cfg.Database.Path, "db", cfg.Database.Path, "path to the registry database file")

	root.AddCommand(newInitCmd(cfg, log))
	root.AddCommand(newListCmd(cfg, log))
	root.AddCommand(newReportCmd(cfg, log))
	return root
}

func newInitCmd(cfg *config.Config, log *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the registry tables and seed reference data",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg.Database.Path, log)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			if err := store.Migrate(ctx); err != nil {
				return err
			}
			if cfg.SeedSampleData {
				if err := store.Seed(ctx); err != nil {
					return err
				}
			}
			log.Info("registry initialized", zap.String("db", cfg.Database.Path))
			return nil
		},
	}
}

func newListCmd(cfg *config.Config, log *zap.Logger) *cobra.Command {
	var sortField string
	var descending bool

	cmd := &cobra.Command{
		Use:   "list <table>",
		Short: "List every record of a registered table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg.Database.Path, log)
			if err != nil {
				return err
			}
			defer store.Close()

			reg := schema.DefaultRegistry()
			repo := registry.NewRepository(store, reg, log)

			ctx := cmd.Context()
			var records []registry.Record
			if sortField != "" {
				records, err = repo.Sort(ctx, args[0], sortField, !descending)
			} else {
				records, err = repo.GetAll(ctx, args[0])
			}
			if err != nil {
				return err
			}

			table, err := reg.Describe(args[0])
			if err != nil {
				return err
			}
			printRecords(cmd, table.ColumnNames(), records)
			return nil
		},
	}
	cmd.Flags().StringVar(&sortField, "sort", "", "field to sort by")
	cmd.Flags().BoolVar(&descending, "desc", false, "sort descending")
	return cmd
}

func printRecords(cmd *cobra.Command, columns []string, records []registry.Record) {
	for _, name := range columns {
		cmd.Printf("%s\t", name)
	}
	cmd.Println()
	for _, rec := range records {
		for _, name := range columns {
			cmd.Printf("%s\t", formatValue(rec[name]))
		}
		cmd.Println()
	}
	cmd.Printf("%d record(s)\n", len(records))
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	case bool:
		if x {
			return "yes"
		}
		return "no"
	default:
		return fmt.Sprintf("%v", x)
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
