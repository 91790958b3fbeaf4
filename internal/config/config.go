// Package config loads and validates linkrank configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/linkrank/internal/corpus"
	"github.com/JakeFAU/linkrank/internal/crawler"
	"github.com/JakeFAU/linkrank/internal/logging"
	"github.com/JakeFAU/linkrank/internal/render"
)

// EnvPrefix is prepended to environment variable names, as in
// LINKRANK_CRAWLER_SEED.
const EnvPrefix = "LINKRANK"

// Page source kinds.
const (
	SourceCorpus = "corpus"
	SourceFile   = "file"
	SourceHTML   = "html"
	SourceRedis  = "redis"
)

// Storage kinds.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	Source   SourceConfig   `mapstructure:"source"`
	Render   RenderConfig   `mapstructure:"render"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Progress ProgressConfig `mapstructure:"progress"`
	Logging  logging.Config `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// CrawlerConfig governs a single crawl.
type CrawlerConfig struct {
	Seed      string        `mapstructure:"seed"`
	MaxPages  int           `mapstructure:"max_pages"`
	Parallel  bool          `mapstructure:"parallel"`
	Workers   int           `mapstructure:"workers"`
	ScoreMode string        `mapstructure:"score_mode"`
	Timeout   time.Duration `mapstructure:"timeout"`

	// MaxCorpusPages bounds the generated corpus a request may ask for.
	MaxCorpusPages int `mapstructure:"max_corpus_pages"`
}

// SourceConfig picks and parameterises the page source.
type SourceConfig struct {
	Kind        string `mapstructure:"kind"`
	CorpusPages int    `mapstructure:"corpus_pages"`
	File        string `mapstructure:"file"`
	Dir         string `mapstructure:"dir"`
	RedisAddr   string `mapstructure:"redis_addr"`
	RedisPrefix string `mapstructure:"redis_prefix"`

	// RateLimit caps lookups per second across a crawl. Zero disables it.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

// RenderConfig sets the output format and where rendered files go.
type RenderConfig struct {
	Format    string `mapstructure:"format"`
	OutputDir string `mapstructure:"output_dir"`
}

// StorageConfig selects the result store.
type StorageConfig struct {
	Kind  string `mapstructure:"kind"`
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// ProgressConfig tunes the progress hub.
type ProgressConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BufferSize     int           `mapstructure:"buffer_size"`
	MaxBatchEvents int           `mapstructure:"max_batch_events"`
	MaxBatchWait   time.Duration `mapstructure:"max_batch_wait"`
}

// Load builds a Config from defaults, a config file and the environment.
// With an empty path a linkrank.{yaml,toml,json} is looked up in the working
// directory, $HOME/.linkrank and /etc/linkrank; none is required.
func Load(path string) (Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith is Load on a caller-supplied Viper, so CLI flags bound to v take
// part in resolution.
func LoadWith(v *viper.Viper, path string) (Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("linkrank")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.linkrank")
		v.AddConfigPath("/etc/linkrank/")
		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("crawler.seed", "page1.html")
	v.SetDefault("crawler.max_pages", 0)
	v.SetDefault("crawler.parallel", false)
	v.SetDefault("crawler.workers", 4)
	v.SetDefault("crawler.score_mode", crawler.ScorePerOccurrence.String())
	v.SetDefault("crawler.timeout", 30*time.Second)
	v.SetDefault("crawler.max_corpus_pages", 200)
	v.SetDefault("source.kind", SourceCorpus)
	v.SetDefault("source.corpus_pages", 10)
	v.SetDefault("source.file", "")
	v.SetDefault("source.dir", "")
	v.SetDefault("source.redis_addr", "")
	v.SetDefault("source.redis_prefix", "links:")
	v.SetDefault("source.rate_limit", 0)
	v.SetDefault("source.rate_burst", 1)
	v.SetDefault("render.format", "text")
	v.SetDefault("render.output_dir", "out")
	v.SetDefault("storage.kind", StorageMemory)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.table", "crawl_results")
	v.SetDefault("progress.enabled", true)
	v.SetDefault("progress.buffer_size", 1024)
	v.SetDefault("progress.max_batch_events", 256)
	v.SetDefault("progress.max_batch_wait", 250*time.Millisecond)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return invalid("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return invalid("auth.api_key must be set when auth is enabled")
	}
	if strings.TrimSpace(c.Crawler.Seed) == "" {
		return invalid("crawler.seed is required")
	}
	if c.Crawler.Workers <= 0 {
		return invalid("crawler.workers must be > 0")
	}
	if c.Crawler.MaxPages < 0 {
		return invalid("crawler.max_pages must be >= 0")
	}
	if c.Crawler.MaxCorpusPages < 0 || c.Crawler.MaxCorpusPages > corpus.MaxPages {
		return invalid("crawler.max_corpus_pages must be between 0 and %d", corpus.MaxPages)
	}
	if c.Crawler.Timeout < 0 {
		return invalid("crawler.timeout must be >= 0")
	}
	if _, err := crawler.ParseScoreMode(c.Crawler.ScoreMode); err != nil {
		return invalid("crawler.score_mode: %v", err)
	}
	if err := c.Source.validate(); err != nil {
		return err
	}
	if _, err := render.New(c.Render.Format); err != nil {
		return invalid("render.format: %v", err)
	}
	switch c.Storage.Kind {
	case StorageMemory:
	case StoragePostgres:
		if c.Storage.DSN == "" {
			return invalid("storage.dsn is required for postgres storage")
		}
	default:
		return invalid("storage.kind %q is not one of memory, postgres", c.Storage.Kind)
	}
	if c.Progress.Enabled && c.Progress.BufferSize < 0 {
		return invalid("progress.buffer_size must be >= 0")
	}
	return nil
}

func (s SourceConfig) validate() error {
	if s.RateLimit < 0 {
		return invalid("source.rate_limit must be >= 0")
	}
	switch s.Kind {
	case SourceCorpus:
		if s.CorpusPages <= 0 || s.CorpusPages > corpus.MaxPages {
			return invalid("source.corpus_pages must be between 1 and %d", corpus.MaxPages)
		}
	case SourceFile:
		if s.File == "" {
			return invalid("source.file is required for the file source")
		}
	case SourceHTML:
		if s.Dir == "" {
			return invalid("source.dir is required for the html source")
		}
	case SourceRedis:
		if s.RedisAddr == "" {
			return invalid("source.redis_addr is required for the redis source")
		}
	default:
		return invalid("source.kind %q is not one of corpus, file, html, redis", s.Kind)
	}
	return nil
}

// ScoreMode returns the parsed crawler.score_mode. Validate has already
// rejected unknown values.
func (c Config) ScoreMode() crawler.ScoreMode {
	m, _ := crawler.ParseScoreMode(c.Crawler.ScoreMode)
	return m
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
