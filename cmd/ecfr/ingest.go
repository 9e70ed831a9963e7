package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bclonan/ecfr-analyzer/config"
	"github.com/bclonan/ecfr-analyzer/internal/checksum"
	"github.com/bclonan/ecfr-analyzer/internal/fetch"
	"github.com/bclonan/ecfr-analyzer/internal/pipeline"
	"github.com/bclonan/ecfr-analyzer/internal/search"
	"github.com/bclonan/ecfr-analyzer/internal/store"
)

func ingestCMD() *cobra.Command {
	var cfgPath string
	var titlesArg string
	var chainArg string
	var workers int
	var force bool

	var ingest = &cobra.Command{
		Use:   "ingest",
		Short: "Fetch, normalize and store regulation titles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			titles, err := parseTitles(titlesArg)
			if err != nil {
				return err
			}
			chain := pipeline.DefaultChain()
			if chainArg != "" {
				chain = strings.Split(chainArg, ",")
			}
			sum, err := runIngest(cmd.Context(), cfg, titles, chain, workers, force)
			if err != nil {
				return err
			}
			if sum.Failed > 0 {
				return fmt.Errorf("%d of %d titles failed", sum.Failed, len(sum.Outcomes))
			}
			return nil
		},
	}
	ingest.Flags().StringVar(&titlesArg, "titles", "all", "comma-separated title numbers, or all")
	ingest.Flags().StringVar(&chainArg, "chain", "", "comma-separated step names (default full chain)")
	ingest.Flags().IntVar(&workers, "workers", 0, "concurrent downloads (default from config)")
	ingest.Flags().BoolVar(&force, "force", false, "reprocess titles even when unchanged")
	ingest.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return ingest
}

func parseTitles(arg string) ([]int, error) {
	if arg == "" || arg == "all" {
		titles := make([]int, 0, fetch.MaxTitle)
		for t := 1; t <= fetch.MaxTitle; t++ {
			titles = append(titles, t)
		}
		return titles, nil
	}
	var titles []int
	for _, piece := range strings.Split(arg, ",") {
		t, err := strconv.Atoi(strings.TrimSpace(piece))
		if err != nil || t < 1 || t > fetch.MaxTitle {
			return nil, fmt.Errorf("invalid title %q (want 1-%d)", piece, fetch.MaxTitle)
		}
		titles = append(titles, t)
	}
	return titles, nil
}

func runIngest(ctx context.Context, cfg *config.Config, titles []int, chain []string, workers int, force bool) (*pipeline.Summary, error) {
	cks, err := checksum.Open(cfg.Checksums.Path)
	if err != nil {
		return nil, fmt.Errorf("open checksum store: %w", err)
	}
	defer cks.Close()

	st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
	if err != nil {
		return nil, err
	}
	defer st.DB.Close()

	idx, err := search.Open(cfg.Search.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}
	defer idx.Close()

	pc := pipeline.NewContext(titles)
	pc.Checksums = cks
	pc.Fetcher = fetch.New(cfg.Fetcher.BaseURL, cfg.Fetcher.Timeout)
	pc.Store = st
	pc.Search = idx
	pc.Workers = cfg.Fetcher.Workers
	if workers > 0 {
		pc.Workers = workers
	}
	pc.Force = force
	pc.Logger = log.New(os.Stdout, "[INGEST] ", log.LstdFlags)

	return pipeline.NewRunner().Run(ctx, pc, chain)
}
