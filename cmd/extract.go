package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rbdcsite/shelfeed/fetcher"
	"github.com/rbdcsite/shelfeed/fetcher/types"
	"github.com/rbdcsite/shelfeed/parser"
	"github.com/rbdcsite/shelfeed/server"
)

var (
	flagExtractFile  string
	flagExtractLimit int
)

var extractCmd = &cobra.Command{
	Use:   "extract <source>",
	Short: "Print the items extracted from a feed as JSON",
	Long: `Fetch the configured feed of a source (or read --file) and print the
items the endpoint would return, without filters.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, ok := types.ParseSource(args[0])
		if !ok {
			return fmt.Errorf("unknown source %q (valid: %s, %s)", args[0], types.Diary, types.Books)
		}

		limit := flagExtractLimit
		var body string
		if flagExtractFile != "" {
			dat, err := os.ReadFile(flagExtractFile)
			if err != nil {
				return fmt.Errorf("failed to read feed file: %w", err)
			}
			body = string(dat)
		} else {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			sc, err := resolveSource(cfg, args[0])
			if err != nil {
				return err
			}
			limit = sc.EffectiveLimit(flagExtractLimit)

			f, c, err := fetcher.Build(cfg)
			if err != nil {
				return err
			}
			if c != nil {
				defer c.Close()
			}
			body, err = f.Fetch(cmd.Context(), sc.FeedURL)
			if err != nil {
				return fmt.Errorf("'%s' fetch failed with %w", sc.FeedURL, err)
			}
		}
		if limit <= 0 {
			limit = 1
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(server.Response{
			Source: source,
			Items:  parser.Extract(body, source, limit),
		})
	},
}

func init() {
	extractCmd.Flags().StringVar(&flagExtractFile, "file", "", "read the feed from a local file instead of fetching it")
	extractCmd.Flags().IntVar(&flagExtractLimit, "limit", 0, "maximum number of items (default: the source limit, 1 with --file)")
}
