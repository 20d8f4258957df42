package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/atcpro/atcpro/internal/app"
	"github.com/atcpro/atcpro/internal/config"
	"github.com/atcpro/atcpro/internal/database"
	"github.com/atcpro/atcpro/internal/editorial"
	"github.com/atcpro/atcpro/internal/messaging"
	"github.com/atcpro/atcpro/internal/services"
)

var limit int

var rootCmd = &cobra.Command{
	Use:   "scraper",
	Short: "Fill the editorial store with missing editorials",
	Long: `Scraper walks every problem whose contest started at or after the
configured cutoff, oldest contest first, and stores its editorial. Problems
already in the store are skipped, so an interrupted run resumes where it
stopped.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		return run(cmd.Context(), cfg, limit)
	},
}

func init() {
	rootCmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of problems to process (0 = all)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, limit int) error {
	logger := app.NewLogger(cfg)

	db, err := database.New(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	metrics := services.NewMetrics()
	source, err := app.NewSource(cfg, db, metrics, logger)
	if err != nil {
		return err
	}

	store, err := editorial.Open(cfg.Editorial.StorePath)
	if err != nil {
		return fmt.Errorf("open editorial store: %w", err)
	}

	bus := messaging.NewEventBus(cfg, logger)
	defer bus.Close()

	populator := editorial.NewPopulator(source, store, cfg.Editorial.CutoffEpoch, logger).
		WithPublisher(bus).
		WithObserver(metrics)

	report, err := populator.Run(ctx, limit)
	logger.WithFields(logrus.Fields{
		"run_id":      report.RunID,
		"candidates":  report.Candidates,
		"stored":      report.Stored,
		"unavailable": report.Unavailable,
		"failed":      report.Failed,
		"skipped":     report.Skipped,
		"ineligible":  report.Ineligible,
		"editorials":  store.Len(),
	}).Info("Scrape report")
	return err
}
