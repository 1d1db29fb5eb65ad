package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pos-payment-system/internal/adapters/analytics/clickhouse"
	"pos-payment-system/internal/adapters/storage/postgres"
	"pos-payment-system/internal/app"
	"pos-payment-system/internal/config"
	"pos-payment-system/internal/core/domain"
	"pos-payment-system/internal/core/ports"
)

func main() {
	var configPath string
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:          "sales-query-tool",
		Short:        "Query recorded POS sales",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			var err error
			cfg, err = config.Load(configPath)
			return err
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the config file")

	hourlyCmd := &cobra.Command{
		Use:   "hourly",
		Short: "Hourly sales and points between two timestamps",
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")
			source, _ := cmd.Flags().GetString("source")

			reader, closeReader, err := openReader(cmd.Context(), cfg, source)
			if err != nil {
				return err
			}
			defer closeReader()

			rows, err := app.NewSalesReportService(reader).SalesReport(cmd.Context(), ports.SalesReportRequest{
				StartDateTime: start,
				EndDateTime:   end,
			})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "HOUR\tSALES\tPOINTS")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%d\n", r.DateTime, r.Sales, r.Points)
			}
			return w.Flush()
		},
	}
	hourlyCmd.Flags().String("start", time.Now().UTC().Truncate(24*time.Hour).Format(time.RFC3339), "Inclusive start, ISO-8601")
	hourlyCmd.Flags().String("end", time.Now().UTC().Format(time.RFC3339), "Inclusive end, ISO-8601")
	hourlyCmd.Flags().String("source", "postgres", "Where to read from: postgres or clickhouse")

	transactionCmd := &cobra.Command{
		Use:   "transaction [id]",
		Short: "Show one stored transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid transaction id: %w", err)
			}
			repo, err := postgres.NewRepository(cmd.Context(), cfg.Postgres.DSN)
			if err != nil {
				return err
			}
			defer repo.Close()

			tx, err := repo.TransactionByID(cmd.Context(), id)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintf(w, "ID\t%s\n", tx.ID)
			fmt.Fprintf(w, "CUSTOMER\t%s\n", tx.CustomerID)
			fmt.Fprintf(w, "METHOD\t%s\n", tx.PaymentMethod)
			fmt.Fprintf(w, "PRICE\t%s\n", tx.Price)
			fmt.Fprintf(w, "MODIFIER\t%s\n", tx.PriceModifier)
			fmt.Fprintf(w, "FINAL PRICE\t%s\n", tx.FinalPrice)
			fmt.Fprintf(w, "POINTS\t%d\n", tx.Points)
			fmt.Fprintf(w, "AT\t%s\n", tx.TransactionDateTime.UTC().Format(time.RFC3339))
			for k, v := range tx.SupplementaryInfo.Fields() {
				fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(k), v)
			}
			return w.Flush()
		},
	}

	methodsCmd := &cobra.Command{
		Use:   "methods",
		Short: "Print the payment method policy table",
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(*cobra.Command, []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "METHOD\tMIN\tMAX\tPOINT RATE\tREQUIRES")
			for _, m := range domain.AllPaymentMethods() {
				p := domain.PolicyFor(m)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m,
					p.MinModifier.StringFixed(2), p.MaxModifier.StringFixed(2), p.PointRate.StringFixed(2),
					strings.Join(p.RequiredFields(), ","))
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(hourlyCmd, transactionCmd, methodsCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}

func openReader(ctx context.Context, cfg *config.Config, source string) (ports.SalesReader, func(), error) {
	switch source {
	case "postgres":
		repo, err := postgres.NewRepository(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	case "clickhouse":
		store, err := clickhouse.Open(ctx, clickhouse.Options{
			Addr:     cfg.ClickHouse.Addr,
			Database: cfg.ClickHouse.Database,
			User:     cfg.ClickHouse.User,
			Password: cfg.ClickHouse.Password,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown source %q, want postgres or clickhouse", source)
	}
}
