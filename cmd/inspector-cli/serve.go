package main

import (
	"context"
	"fmt"
	"time"

	sqliteadapter "engine-inspector/internal/adapters/store/sqlite"
	"engine-inspector/internal/platform/logging"
	"engine-inspector/internal/services/webapp"

	"github.com/spf13/cobra"
)

func newMigrateCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database and apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.loadConfig(cmd)
			if err != nil {
				return err
			}
			return f.withStore(cmd, func(ctx context.Context, s *sqliteadapter.Store) error {
				v, err := s.GetSchemaMetaValue(ctx, "schema_version")
				if err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "database ready: %s (schema version %s)", cfg.DBPath, v)
				return nil
			})
		},
	}
}

func newServeCmd(f *rootFlags) *cobra.Command {
	var (
		listen string
		openUI bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the built-in web UI and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.ListenAddr = listen
			}
			log, err := logging.New(cfg.LogEnv)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			uiURL := "http://" + normalizeListenForBrowser(cfg.ListenAddr)
			fmt.Fprintf(cmd.OutOrStdout(), "webapp: %s\n", uiURL)
			if !openUI {
				return webapp.Run(cmd.Context(), cfg, log)
			}

			ctx := cmd.Context()
			errCh := make(chan error, 1)
			go func() { errCh <- webapp.Run(ctx, cfg, log) }()

			// 服务就绪后再打开浏览器；打开失败不影响服务。
			if err := waitForHTTP(ctx, uiURL+"/api/health", 12*time.Second, 250*time.Millisecond); err != nil {
				log.Warnw("webapp not ready, browser not opened", "error", err)
			} else if err := openBrowser(uiURL); err != nil {
				log.Warnw("open browser failed", "url", uiURL, "error", err)
			}
			return <-errCh
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (host:port)")
	cmd.Flags().BoolVar(&openUI, "open", false, "open the web UI in the default browser once it is ready")
	return cmd
}
