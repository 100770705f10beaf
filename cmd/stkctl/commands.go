package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/chris/stk-confirmation/pkg/bootstrap"
	"github.com/chris/stk-confirmation/pkg/config"
	"github.com/chris/stk-confirmation/pkg/confirmation"
	"github.com/chris/stk-confirmation/pkg/mapping"
	pgstore "github.com/chris/stk-confirmation/pkg/storage/postgres"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type engineLoader func(ctx context.Context, needGateway bool) (*bootstrap.Engine, *config.Config, error)

func newRootCmd(load engineLoader) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "stkctl",
		Short:         "Operate the STK push confirmation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(statusCmd(load))
	rootCmd.AddCommand(historyCmd(load))
	rootCmd.AddCommand(sweepCmd(load))
	rootCmd.AddCommand(migrateCmd())

	return rootCmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusCmd(load engineLoader) *cobra.Command {
	var active bool

	cmd := &cobra.Command{
		Use:   "status [sessionId]",
		Short: "Show a transaction's status",
		Long: `Show a transaction's status from the configured store.

With --active a Pending transaction is first checked with the gateway and
any outcome it reports is applied.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := load(cmd.Context(), active)
			if err != nil {
				return err
			}
			defer engine.Close()

			tx, err := engine.Status.GetStatus(cmd.Context(), args[0], active)
			if errors.Is(err, confirmation.ErrNotFound) {
				return fmt.Errorf("no transaction with session id %s", args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, mapping.ToApiTransaction(tx))
		},
	}

	cmd.Flags().BoolVar(&active, "active", false, "query the gateway when the transaction is still Pending")
	return cmd
}

func historyCmd(load engineLoader) *cobra.Command {
	var limit int32

	cmd := &cobra.Command{
		Use:   "history [phone]",
		Short: "List recent transactions for a phone number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := load(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer engine.Close()

			txs, err := engine.Store.ListTransactionsByPhone(cmd.Context(), confirmation.NormalizePhone(args[0]), limit)
			if err != nil {
				return err
			}
			for i := range txs {
				tx := mapping.ToApiStatus(&txs[i])
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", tx.SessionId, txs[i].CreatedAt.Format("2006-01-02 15:04:05"), tx.Status)
			}
			return nil
		},
	}

	cmd.Flags().Int32VarP(&limit, "limit", "n", 20, "maximum number of transactions")
	return cmd
}

func sweepCmd(load engineLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Time out expired Pending transactions once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := load(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer engine.Close()

			report, err := engine.Sweeper.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d timed_out=%d skipped=%d errors=%d\n",
				report.Scanned, report.TimedOut, report.Skipped, report.Errors)
			if report.Errors > 0 {
				return fmt.Errorf("%d transactions could not be timed out", report.Errors)
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the Postgres schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.StoreBackend != config.BackendPostgres {
				return fmt.Errorf("migrate applies to the postgres backend, STORE_BACKEND is %q", cfg.StoreBackend)
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			db, err := pgstore.Open(cmd.Context(), cfg.PostgresDSN, cfg.PostgresConnectAttempts, logger)
			if err != nil {
				return err
			}
			return migrate(cmd.Context(), db, cmd.OutOrStdout())
		},
	}
}

// migrate applies the schema and closes the connection pool.
func migrate(ctx context.Context, db *gorm.DB, out io.Writer) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	defer sqlDB.Close()

	if err := pgstore.NewStore(db).Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "schema up to date")
	return nil
}
