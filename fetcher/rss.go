package fetcher

import (
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

// Summary describes a feed as seen by a standards-compliant parser
type Summary struct {
	FeedType       string
	Title          string
	Description    string
	Items          int
	FirstItemTitle string
}

// RSSInspector parses feeds using gofeed. It is a diagnostic counterpart to
// the regex extractor, not a replacement for it.
type RSSInspector struct {
	parser *gofeed.Parser
}

// NewRSSInspector creates a new RSS inspector
func NewRSSInspector() *RSSInspector {
	return &RSSInspector{
		parser: gofeed.NewParser(),
	}
}

// Inspect parses an already fetched feed document
func (i *RSSInspector) Inspect(body string) (Summary, error) {
	var summary Summary

	feed, err := i.parser.ParseString(body)
	if err != nil {
		return summary, fmt.Errorf("failed to parse RSS feed: %w", err)
	}

	summary.FeedType = feed.FeedType
	summary.Title = strings.TrimSpace(feed.Title)
	summary.Description = strings.TrimSpace(feed.Description)
	summary.Items = len(feed.Items)
	if len(feed.Items) > 0 {
		summary.FirstItemTitle = strings.TrimSpace(feed.Items[0].Title)
	}

	return summary, nil
}
