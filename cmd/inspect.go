package cmd

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rbdcsite/shelfeed/fetcher"
	"github.com/rbdcsite/shelfeed/parser"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <source>",
	Short: "Compare the regex extractor against a full feed parser",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sc, err := resolveSource(cfg, args[0])
		if err != nil {
			return err
		}

		f, c, err := fetcher.Build(cfg)
		if err != nil {
			return err
		}
		if c != nil {
			defer c.Close()
		}

		body, err := f.Fetch(cmd.Context(), sc.FeedURL)
		if err != nil {
			return fmt.Errorf("'%s' fetch failed with %w", sc.FeedURL, err)
		}

		summary, err := fetcher.NewRSSInspector().Inspect(body)
		if err != nil {
			return err
		}
		items := parser.Extract(body, sc.Name, math.MaxInt)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "feed\t%s (%s)\n", summary.Title, summary.FeedType)
		fmt.Fprintf(w, "url\t%s\n", sc.FeedURL)
		fmt.Fprintf(w, "items (parser)\t%d\n", summary.Items)
		fmt.Fprintf(w, "items (extractor)\t%d\n", len(items))
		if len(items) > 0 {
			fmt.Fprintf(w, "first title (parser)\t%s\n", summary.FirstItemTitle)
			fmt.Fprintf(w, "first title (extractor)\t%s\n", items[0].Title)
			cover := "-"
			if items[0].Cover != nil {
				cover = *items[0].Cover
			}
			fmt.Fprintf(w, "first cover\t%s\n", cover)
		}
		return w.Flush()
	},
}
