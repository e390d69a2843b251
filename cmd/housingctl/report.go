package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"housing-registry/internal/config"
	"housing-registry/internal/export"
	"housing-registry/internal/reports"
)

type reportFlags struct {
	period    string
	address   string
	district  string
	status    string
	minAmount string
	minDebt   string
	minAge    string
	maxAge    string
	sortField string
	desc      bool
	out       string
}

func newReportCmd(cfg *config.Config, log *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a registry report",
	}

	flags := &reportFlags{}
	cmd.PersistentFlags().StringVar(&flags.address, "address", "", "filter by address substring")
	cmd.PersistentFlags().StringVar(&flags.district, "district", "", "filter by district substring")
	cmd.PersistentFlags().StringVar(&flags.sortField, "sort", "", "logical sort field")
	cmd.PersistentFlags().BoolVar(&flags.desc, "desc", false, "sort descending")
	cmd.PersistentFlags().StringVar(&flags.out, "out", "", "write the report to an xlsx file")

	payments := &cobra.Command{
		Use:   "payments",
		Short: "Billing report per payment and owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, cfg, log, flags, reports.PaymentColumns,
				func(ctx context.Context, g *reports.Generator, f reports.Filters, s reports.Sort) (reports.Result, error) {
					f["period"] = flags.period
					f["status"] = flags.status
					f["min_amount"] = flags.minAmount
					return g.Payments(ctx, f, s)
				})
		},
	}
	payments.Flags().StringVar(&flags.period, "period", "", "filter by period substring (e.g. 2024-06)")
	payments.Flags().StringVar(&flags.status, "status", "", "paid or unpaid")
	payments.Flags().StringVar(&flags.minAmount, "min-amount", "", "minimum payment amount")

	arrears := &cobra.Command{
		Use:   "arrears",
		Short: "Unpaid balances per apartment and owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, cfg, log, flags, reports.ArrearsColumns,
				func(ctx context.Context, g *reports.Generator, f reports.Filters, s reports.Sort) (reports.Result, error) {
					f["min_debt"] = flags.minDebt
					return g.Arrears(ctx, f, s)
				})
		},
	}
	arrears.Flags().StringVar(&flags.minDebt, "min-debt", "", "minimum summed debt")

	roster := &cobra.Command{
		Use:   "roster",
		Short: "Eligible-voter roster of owner residents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, cfg, log, flags, reports.RosterColumns,
				func(ctx context.Context, g *reports.Generator, f reports.Filters, s reports.Sort) (reports.Result, error) {
					f["min_age"] = flags.minAge
					f["max_age"] = flags.maxAge
					return g.Roster(ctx, f, s)
				})
		},
	}
	roster.Flags().StringVar(&flags.minAge, "min-age", "", "minimum age (inclusive)")
	roster.Flags().StringVar(&flags.maxAge, "max-age", "", "maximum age (inclusive)")

	cmd.AddCommand(payments, arrears, roster)
	return cmd
}

type reportFunc func(context.Context, *reports.Generator, reports.Filters, reports.Sort) (reports.Result, error)

func runReport(cmd *cobra.Command, cfg *config.Config, log *zap.Logger, flags *reportFlags, columns []string, run reportFunc) error {
	store, err := openStore(cfg.Database.Path, log)
	if err != nil {
		return err
	}
	defer store.Close()

	gen := reports.NewGenerator(store, log)
	filters := reports.Filters{
		"address":  flags.address,
		"district": flags.district,
	}
	order := reports.Sort{Field: flags.sortField, Descending: flags.desc}

	res, err := run(cmd.Context(), gen, filters, order)
	if err != nil {
		return err
	}

	if flags.out != "" {
		data, err := export.WriteWorkbook(res, columns)
		if err != nil {
			return err
		}
		if err := os.WriteFile(flags.out, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", flags.out, err)
		}
		log.Info("report written", zap.String("file", flags.out), zap.Int("rows", len(res.Detail)))
		return nil
	}

	printReport(cmd, res, columns)
	return nil
}

func printReport(cmd *cobra.Command, res reports.Result, columns []string) {
	for _, col := range columns {
		cmd.Printf("%s\t", col)
	}
	cmd.Println()
	for _, row := range res.Detail {
		for _, col := range columns {
			cmd.Printf("%s\t", formatValue(row[col]))
		}
		cmd.Println()
	}

	if len(res.Groups) > 0 {
		cmd.Println("\nGroups:")
		for _, g := range res.Groups {
			cmd.Printf("  %s:", g.Key)
			for _, name := range sortedKeys(g.Values) {
				cmd.Printf(" %s=%.2f", name, g.Values[name])
			}
			cmd.Println()
		}
	}

	if len(res.Totals) > 0 {
		cmd.Println("\nTotals:")
		for _, name := range sortedKeys(res.Totals) {
			cmd.Printf("  %s: %.2f\n", name, res.Totals[name])
		}
	} else {
		cmd.Println("\nNo matching records")
	}
}
