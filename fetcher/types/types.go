package types

import (
	"context"
	"strings"
)

// Source identifies one of the upstream feeds
type Source string

const (
	Diary = Source("diary")
	Books = Source("books")
)

var sourceAliases = map[string]Source{
	"diary":      Diary,
	"letterboxd": Diary,
	"books":      Books,
	"goodreads":  Books,
}

// ParseSource resolves a source name or one of its vendor aliases
func ParseSource(name string) (Source, bool) {
	s, ok := sourceAliases[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// FeedItem represents a single normalized entry of a feed
type FeedItem struct {
	Title  string   `json:"title"`
	Link   string   `json:"link"`
	Date   string   `json:"date"`
	Rating *float64 `json:"rating"`
	Cover  *string  `json:"cover"`
}

// FeedFetcher is an interface for fetching raw feed documents
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
