package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rbdcsite/shelfeed/fetcher"
	"github.com/rbdcsite/shelfeed/server"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the feed HTTP endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if flagListen != "" {
			cfg.Listen = flagListen
		}

		for _, s := range cfg.Sources {
			if _, ok := cfg.Source(s.Name); !ok {
				slog.Warn("source unavailable", "source", s.Name, "enabled", s.IsEnabled(), "feed_url_env", s.FeedURLEnv)
			}
		}

		f, c, err := fetcher.Build(cfg)
		if err != nil {
			return err
		}
		if c != nil {
			defer c.Close()
		}

		logger, err := server.NewAccessLogger(debugEnabled())
		if err != nil {
			return fmt.Errorf("failed to build access logger: %w", err)
		}
		defer logger.Sync()

		srv, err := server.New(cfg, f, logger)
		if err != nil {
			return err
		}

		return srv.ListenAndServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "address to listen on, overrides the config")
}
