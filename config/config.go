package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/rbdcsite/shelfeed/fetcher/types"
)

const (
	appName = "shelfeed"

	DefaultUserAgent = "Mozilla/5.0 (compatible; RBDCSite/1.0)"
	DiaryFeedURL     = "https://letterboxd.com/hybridxer0/rss/"
	BooksFeedURLEnv  = "GOODREADS_RSS_URL"
)

type Config struct {
	Listen       string            `toml:"listen" yaml:"listen"`
	Route        string            `toml:"route" yaml:"route"`
	UserAgent    string            `toml:"user_agent" yaml:"user_agent"`
	FetchTimeout string            `toml:"fetch_timeout" yaml:"fetch_timeout"` // e.g. "20s", "0" disables
	CacheTTL     string            `toml:"cache_ttl" yaml:"cache_ttl"`         // e.g. "1h", "0" disables
	DatabasePath string            `toml:"database_path" yaml:"database_path"` // empty disables the upstream cache
	Sources      []SourceConfig    `toml:"sources" yaml:"sources"`
	Filters      map[string]Filter `toml:"filters" yaml:"filters"` // Named filters that can be referenced by sources
}

type SourceConfig struct {
	Name        types.Source `toml:"name" yaml:"name"`
	FeedURL     string       `toml:"feed_url" yaml:"feed_url"`
	FeedURLEnv  string       `toml:"feed_url_env" yaml:"feed_url_env"` // Environment variable consulted when feed_url is empty
	Limit       int          `toml:"limit" yaml:"limit"`               // Items returned by default
	MaxLimit    int          `toml:"max_limit" yaml:"max_limit"`       // Upper bound for the ?limit= override
	Enabled     *bool        `toml:"enabled" yaml:"enabled"`           // Defaults to true if not set
	FilterNames []string     `toml:"filters" yaml:"filters"`           // Names of filters to apply (pipeline)
}

// Filter defines rules for dropping extracted items
type Filter struct {
	ExcludePatterns []string `toml:"exclude_patterns" yaml:"exclude_patterns"` // Regex patterns matched against titles
	RequireCover    bool     `toml:"require_cover" yaml:"require_cover"`
	MinRating       float64  `toml:"min_rating" yaml:"min_rating"` // Unrated items always pass
}

// IsEnabled returns true if the source is enabled (defaults to true if not explicitly set)
func (s SourceConfig) IsEnabled() bool {
	if s.Enabled == nil {
		return true
	}
	return *s.Enabled
}

// EffectiveLimit resolves a requested item count against the source bounds.
// Non-positive requests fall back to the configured default.
func (s SourceConfig) EffectiveLimit(requested int) int {
	limit := s.Limit
	if limit <= 0 {
		limit = 1
	}
	if requested <= 0 {
		return limit
	}
	maxLimit := s.MaxLimit
	if maxLimit < limit {
		maxLimit = limit
	}
	if requested > maxLimit {
		return maxLimit
	}
	return requested
}

// Source returns the enabled source with a feed URL for name
func (c Config) Source(name types.Source) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name && s.IsEnabled() && s.FeedURL != "" {
			return s, true
		}
	}
	return SourceConfig{}, false
}

func (c Config) FetchTimeoutDuration() time.Duration {
	return parseDuration(c.FetchTimeout, 20*time.Second)
}

func (c Config) CacheTTLDuration() time.Duration {
	return parseDuration(c.CacheTTL, time.Hour)
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if s == "0" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}

// ResolveEnv fills empty feed URLs from the environment variables named by
// the sources. Called once at load time so the rest of the program only
// sees the Config value.
func (c *Config) ResolveEnv(getenv func(string) string) {
	for i := range c.Sources {
		s := &c.Sources[i]
		if s.FeedURL == "" && s.FeedURLEnv != "" {
			s.FeedURL = strings.TrimSpace(getenv(s.FeedURLEnv))
		}
	}
}

// normalize maps source aliases to canonical names and fills per-source
// defaults left out of the file
func (c *Config) normalize() error {
	if c.Sources == nil {
		c.Sources = Default().Sources
	}
	seen := make(map[types.Source]bool)
	for i := range c.Sources {
		s := &c.Sources[i]
		name, ok := types.ParseSource(string(s.Name))
		if !ok {
			return fmt.Errorf("source %d: unknown name %q (valid: %s, %s)", i, s.Name, types.Diary, types.Books)
		}
		s.Name = name
		if seen[name] {
			return fmt.Errorf("source %q: defined more than once", name)
		}
		seen[name] = true

		if s.FeedURL == "" && s.FeedURLEnv == "" {
			switch name {
			case types.Diary:
				s.FeedURL = DiaryFeedURL
			case types.Books:
				s.FeedURLEnv = BooksFeedURLEnv
			}
		}
		if s.Limit <= 0 {
			s.Limit = 1
		}
		if s.MaxLimit < s.Limit {
			s.MaxLimit = max(s.Limit, 10)
		}
		for _, f := range s.FilterNames {
			if _, ok := c.Filters[f]; !ok {
				return fmt.Errorf("source %q: unknown filter %q", name, f)
			}
		}
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Read decodes the config at path on top of the defaults. The format is
// chosen by extension: .yaml/.yml for YAML, anything else TOML.
func Read(path string) (Config, error) {
	conf := Default()
	dat, err := os.ReadFile(path)
	if err != nil {
		return conf, err
	}
	// sources are merged per name, not per position
	conf.Sources = nil
	if isYAML(path) {
		err = yaml.Unmarshal(dat, &conf)
	} else {
		_, err = toml.Decode(string(dat), &conf)
	}
	if err != nil {
		return conf, fmt.Errorf("failed to decode config at %s with %w", path, err)
	}
	if err := conf.normalize(); err != nil {
		return conf, fmt.Errorf("invalid config at %s: %w", path, err)
	}
	return conf, nil
}

// Load reads the config at path, writing the defaults first when the
// default path does not exist yet, and resolves environment-sourced feed
// URLs.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	conf, err := Read(path)
	if errors.Is(err, os.ErrNotExist) && path == DefaultPath() {
		if err := Write(path, conf); err != nil {
			slog.Warn("failed to write default config", "path", path, "error", err)
		}
	} else if err != nil {
		return conf, err
	}
	conf.ResolveEnv(os.Getenv)
	return conf, nil
}

func Write(cfgPath string, cfg Config) error {
	var (
		blob []byte
		err  error
	)
	if isYAML(cfgPath) {
		blob, err = yaml.Marshal(cfg)
	} else {
		blob, err = toml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to encode config with %w", err)
	}
	basePath := filepath.Dir(cfgPath)
	err = os.MkdirAll(basePath, os.ModePerm)
	if err != nil {
		return fmt.Errorf("failed to create base config directory at '%s' with %w", basePath, err)
	}
	err = os.WriteFile(cfgPath, blob, 0644)
	if err != nil {
		return fmt.Errorf("failed to write into config file at '%s' with %w", cfgPath, err)
	}
	slog.Info("config written", "at", cfgPath)
	return nil
}

func Default() Config {
	return Config{
		Listen:       ":8888",
		Route:        "/rss",
		UserAgent:    DefaultUserAgent,
		FetchTimeout: "20s",
		CacheTTL:     "1h",
		DatabasePath: DefaultDatabasePath(),
		Sources: []SourceConfig{
			{Name: types.Diary, FeedURL: DiaryFeedURL, Limit: 1, MaxLimit: 10},
			{Name: types.Books, FeedURLEnv: BooksFeedURLEnv, Limit: 1, MaxLimit: 10},
		},
		Filters: map[string]Filter{},
	}
}

func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

func DefaultDatabasePath() string {
	return filepath.Join(xdg.CacheHome, appName, "cache.db")
}
