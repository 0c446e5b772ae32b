package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rbdcsite/shelfeed/fetcher/types"
)

var (
	itemRe   = regexp.MustCompile(`(?s)<item(?:\s[^>]*)?>(.*?)</item>`)
	ratingRe = regexp.MustCompile(`letterboxd:memberRating>([^<]+)</letterboxd:memberRating`)
)

// Extract returns up to limit normalized items found in the raw feed
// document, in document order. Missing fields degrade to empty values.
func Extract(xml string, source types.Source, limit int) []types.FeedItem {
	items := make([]types.FeedItem, 0)
	if limit <= 0 {
		return items
	}

	for _, m := range itemRe.FindAllStringSubmatch(xml, limit) {
		items = append(items, extractItem(m[1], source))
	}
	return items
}

func extractItem(block string, source types.Source) types.FeedItem {
	item := types.FeedItem{
		Title: CleanTitle(tagText("title")(block)),
		Link:  tagText("link")(block),
		Date:  tagText("pubDate")(block),
		Cover: firstCover(block),
	}
	if source == types.Diary {
		item.Rating = memberRating(block)
	}
	return item
}

// memberRating reads the vendor rating tag only. Numbers elsewhere in the
// block, e.g. "4 stars" in a review, are never used.
func memberRating(block string) *float64 {
	m := ratingRe.FindStringSubmatch(block)
	if m == nil {
		return nil
	}
	r, err := strconv.ParseFloat(strings.TrimSpace(m[1]), 64)
	if err != nil || r < 0 || r > 5 {
		return nil
	}
	return &r
}
