package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rbdcsite/shelfeed/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the upstream feed cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached feed bodies",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCache()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCache()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats()
		if err != nil {
			return fmt.Errorf("failed to read cache stats: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Entries: %d\n", stats.Entries)
		if !stats.OldestEntry.IsZero() {
			fmt.Fprintf(cmd.OutOrStdout(), "Oldest:  %s\n", stats.OldestEntry.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
}

func openCache() (*cache.Cache, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.DatabasePath == "" {
		return nil, errors.New("feed cache is disabled (database_path is empty)")
	}
	return cache.NewCache(cfg.DatabasePath)
}
