package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/spf13/cobra"

	"github.com/bclonan/ecfr-analyzer/config"
	"github.com/bclonan/ecfr-analyzer/internal/pipeline"
)

func watchCMD() *cobra.Command {
	var cfgPath string
	var titlesArg string
	var schedule string

	var watch = &cobra.Command{
		Use:   "watch",
		Short: "Run ingest on a cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			if schedule == "" {
				schedule = cfg.Watch.Schedule
			}
			expr, err := cronexpr.Parse(schedule)
			if err != nil {
				return fmt.Errorf("invalid schedule %q: %w", schedule, err)
			}
			titles, err := parseTitles(titlesArg)
			if err != nil {
				return err
			}

			logger := log.New(os.Stdout, "[WATCH] ", log.LstdFlags)
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			for {
				next := expr.Next(time.Now())
				logger.Printf("next run at %s", next.Format(time.RFC3339))
				select {
				case <-stop:
					logger.Printf("shutting down")
					return nil
				case <-time.After(time.Until(next)):
				}
				sum, err := runIngest(cmd.Context(), cfg, titles, pipeline.DefaultChain(), 0, false)
				if err != nil {
					logger.Printf("run failed: %v", err)
					continue
				}
				logger.Printf("run %s: %d succeeded, %d unchanged, %d failed",
					sum.RunID, sum.Succeeded, sum.Unchanged, sum.Failed)
			}
		},
	}
	watch.Flags().StringVar(&titlesArg, "titles", "all", "comma-separated title numbers, or all")
	watch.Flags().StringVar(&schedule, "schedule", "", "cron expression (default from config)")
	watch.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return watch
}
