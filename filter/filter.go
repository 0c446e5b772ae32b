package filter

import (
	"log/slog"
	"regexp"

	"github.com/rbdcsite/shelfeed/config"
	"github.com/rbdcsite/shelfeed/fetcher/types"
)

// FilterPipeline applies a series of named filters to feed items
type FilterPipeline struct {
	filters map[string]*CompiledFilter
}

// CompiledFilter contains compiled regex patterns for efficient matching
type CompiledFilter struct {
	config          config.Filter
	excludePatterns []*regexp.Regexp
}

// NewFilterPipeline creates a new filter pipeline from config
func NewFilterPipeline(filtersConfig map[string]config.Filter) (*FilterPipeline, error) {
	compiled := make(map[string]*CompiledFilter)

	for name, filterCfg := range filtersConfig {
		cf := &CompiledFilter{
			config:          filterCfg,
			excludePatterns: make([]*regexp.Regexp, 0, len(filterCfg.ExcludePatterns)),
		}

		// Compile regex patterns
		for _, pattern := range filterCfg.ExcludePatterns {
			re, err := regexp.Compile(pattern)
			if err != nil {
				slog.Warn("invalid regex pattern in filter", "filter", name, "pattern", pattern, "error", err)
				continue
			}
			cf.excludePatterns = append(cf.excludePatterns, re)
		}

		compiled[name] = cf
	}

	return &FilterPipeline{filters: compiled}, nil
}

// ShouldInclude returns true if the item passes all filters in the pipeline
// filterNames is a list of filter names to apply in order
func (fp *FilterPipeline) ShouldInclude(item types.FeedItem, filterNames []string) (bool, string) {
	for _, filterName := range filterNames {
		filter, exists := fp.filters[filterName]
		if !exists {
			slog.Warn("filter not found, skipping", "filter_name", filterName)
			continue
		}

		if shouldInclude, reason := applyFilter(item, filter, filterName); !shouldInclude {
			return false, reason
		}
	}

	return true, ""
}

// Apply keeps the items passing every named filter, preserving order
func (fp *FilterPipeline) Apply(items []types.FeedItem, filterNames []string) []types.FeedItem {
	if len(filterNames) == 0 {
		return items
	}
	kept := make([]types.FeedItem, 0, len(items))
	for _, item := range items {
		if ok, reason := fp.ShouldInclude(item, filterNames); !ok {
			slog.Debug("item filtered out", "title", item.Title, "reason", reason, "url", item.Link)
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// applyFilter applies a single filter to an item
func applyFilter(item types.FeedItem, filter *CompiledFilter, filterName string) (bool, string) {
	for _, pattern := range filter.excludePatterns {
		if pattern.MatchString(item.Title) {
			return false, filterName + ":exclude_pattern[" + pattern.String() + "]"
		}
	}

	if filter.config.RequireCover && item.Cover == nil {
		return false, filterName + ":require_cover"
	}

	if filter.config.MinRating > 0 && item.Rating != nil && *item.Rating < filter.config.MinRating {
		return false, filterName + ":min_rating"
	}

	return true, ""
}
