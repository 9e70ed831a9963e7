package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bclonan/ecfr-analyzer/config"
	"github.com/bclonan/ecfr-analyzer/internal/search"
	"github.com/bclonan/ecfr-analyzer/internal/server"
	"github.com/bclonan/ecfr-analyzer/internal/store"
)

func serveCMD() *cobra.Command {
	var addr string
	var cfgPath string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the read-only query API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)

			st, err := store.NewWithDSN(context.Background(), cfg.Storage.Postgres.DSN())
			if err != nil {
				return err
			}
			defer st.DB.Close()

			idx, err := search.Open(cfg.Search.IndexPath)
			if err != nil {
				return fmt.Errorf("open search index: %w", err)
			}
			defer idx.Close()

			if addr == "" {
				addr = cfg.Server.Address
			}
			return server.Run(addr, server.Deps{Store: st, Search: idx})
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	serve.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return serve
}
