package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rbdcsite/shelfeed/config"
	"github.com/rbdcsite/shelfeed/fetcher/types"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "shelfeed",
	Short: "Serve the latest film diary and book entries as JSON",
	Long: `shelfeed scrapes a film diary feed and a book tracking feed and serves
their latest entries as JSON for the fan site.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugEnabled() {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a TOML or YAML config (default "+config.DefaultPath()+")")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(cacheCmd)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func debugEnabled() bool {
	return os.Getenv("DEBUG") != ""
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config with %w", err)
	}
	return cfg, nil
}

// resolveSource maps a CLI argument to a configured source
func resolveSource(cfg config.Config, name string) (config.SourceConfig, error) {
	source, ok := types.ParseSource(name)
	if !ok {
		return config.SourceConfig{}, fmt.Errorf("unknown source %q (valid: %s, %s)", name, types.Diary, types.Books)
	}
	sc, ok := cfg.Source(source)
	if !ok {
		return config.SourceConfig{}, fmt.Errorf("source %q is disabled or has no feed url", source)
	}
	return sc, nil
}
