package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PostgresConfig is used by the postgres store backend.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// StoreConfig selects and tunes the item store.
type StoreConfig struct {
	Backend    string `mapstructure:"backend"` // file, redis or postgres
	Path       string `mapstructure:"path"`    // file backend
	Key        string `mapstructure:"key"`     // redis key or postgres row name
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Namespace  string `mapstructure:"namespace"`
	IOTimeout  string `mapstructure:"io_timeout"` // duration string, e.g., "10s"
}

// ServerConfig controls the HTTP server and feed metadata.
type ServerConfig struct {
	Addr            string `mapstructure:"addr"`
	FeedTitle       string `mapstructure:"feed_title"`
	FeedDescription string `mapstructure:"feed_description"`
	FeedLink        string `mapstructure:"feed_link"`
	PublicURL       string `mapstructure:"public_url"`
	AdminToken      string `mapstructure:"admin_token"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout"`
}

type GitHubConfig struct {
	TrendingURL string   `mapstructure:"trending_url"`
	ExploreURL  string   `mapstructure:"explore_url"`
	Languages   []string `mapstructure:"languages"`
	Token       string   `mapstructure:"token"` // enables topic search
	Topics      []string `mapstructure:"topics"`
	APIURL      string   `mapstructure:"api_url"`
}

type HuggingFaceConfig struct {
	PapersURL   string `mapstructure:"papers_url"`
	SpacesAPI   string `mapstructure:"spaces_api"`
	PapersLimit int    `mapstructure:"papers_limit"`
	SpacesLimit int    `mapstructure:"spaces_limit"`
}

// SourcesConfig groups the upstream fetchers.
type SourcesConfig struct {
	GitHub      GitHubConfig      `mapstructure:"github"`
	HuggingFace HuggingFaceConfig `mapstructure:"huggingface"`
	Timeout     string            `mapstructure:"timeout"`
	UserAgent   string            `mapstructure:"user_agent"`

	// RefreshTimeout bounds one shared fetch/rank/enrich run.
	RefreshTimeout string `mapstructure:"refresh_timeout"`
}

// ScoringConfig holds the repository score weights.
type ScoringConfig struct {
	Stars    float64 `mapstructure:"stars"`
	Velocity float64 `mapstructure:"velocity"`
	Recency  float64 `mapstructure:"recency"`
}

type OpenAIConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base_url"`
	Workers    int    `mapstructure:"workers"`
	BatchDelay string `mapstructure:"batch_delay"`
	CacheTTL   string `mapstructure:"cache_ttl"` // summary cache in redis; empty disables
}

// ScheduleConfig holds cron specs for background refreshes.
type ScheduleConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Daily   string `mapstructure:"daily"`
	Weekly  string `mapstructure:"weekly"`
	Monthly string `mapstructure:"monthly"`
	Evict   string `mapstructure:"evict"`
}

// DigestConfig controls Markdown digests. Title, Preface and Postscript
// may contain {.CurrentDate}.
type DigestConfig struct {
	OutputDir  string `mapstructure:"output_dir"`
	Limit      int    `mapstructure:"limit"`
	Title      string `mapstructure:"title"`
	Preface    string `mapstructure:"preface"`
	Postscript string `mapstructure:"postscript"`

	// Scheduled writes a digest after every scheduled refresh.
	Scheduled bool `mapstructure:"scheduled"`
}

// Config is the top-level configuration structure.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Store    StoreConfig    `mapstructure:"store"`
	Server   ServerConfig   `mapstructure:"server"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Digest   DigestConfig   `mapstructure:"digest"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "file"
	}
	if c.Store.Path == "" {
		c.Store.Path = "./data/rss_items.json"
	}
	if c.Store.MaxAgeDays == 0 {
		c.Store.MaxAgeDays = 30
	}
	if c.Store.Namespace == "" {
		c.Store.Namespace = "yuv-ai"
	}
	if c.Store.IOTimeout == "" {
		c.Store.IOTimeout = "10s"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.FeedTitle == "" {
		c.Server.FeedTitle = "YUV.AI Trends"
	}
	if c.Server.FeedDescription == "" {
		c.Server.FeedDescription = "Trending AI/ML repositories, papers and spaces"
	}
	if c.Server.FeedLink == "" {
		c.Server.FeedLink = "http://localhost:8000"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if len(c.Sources.GitHub.Languages) == 0 {
		c.Sources.GitHub.Languages = []string{"python", "jupyter-notebook", "typescript"}
	}
	if len(c.Sources.GitHub.Topics) == 0 {
		c.Sources.GitHub.Topics = []string{"machine-learning", "deep-learning", "llm", "generative-ai", "transformers"}
	}
	if c.Sources.HuggingFace.PapersLimit == 0 {
		c.Sources.HuggingFace.PapersLimit = 20
	}
	if c.Sources.HuggingFace.SpacesLimit == 0 {
		c.Sources.HuggingFace.SpacesLimit = 20
	}
	if c.Sources.Timeout == "" {
		c.Sources.Timeout = "10s"
	}
	if c.Sources.RefreshTimeout == "" {
		c.Sources.RefreshTimeout = "5m"
	}
	if c.Scoring.Stars == 0 && c.Scoring.Velocity == 0 && c.Scoring.Recency == 0 {
		c.Scoring = ScoringConfig{Stars: 0.4, Velocity: 0.3, Recency: 0.3}
	}
	if c.OpenAI.Workers == 0 {
		c.OpenAI.Workers = 3
	}
	if c.Schedule.Daily == "" {
		c.Schedule.Daily = "0 * * * *"
	}
	if c.Schedule.Weekly == "" {
		c.Schedule.Weekly = "0 */6 * * *"
	}
	if c.Schedule.Monthly == "" {
		c.Schedule.Monthly = "0 0 * * *"
	}
	if c.Schedule.Evict == "" {
		c.Schedule.Evict = "30 3 * * *"
	}
	if c.Digest.OutputDir == "" {
		c.Digest.OutputDir = "./out"
	}
	if c.Digest.Limit == 0 {
		c.Digest.Limit = 50
	}
}

// Validate reports configuration values that cannot work.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Store.Backend) {
	case "file", "redis":
	case "postgres":
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("store.backend postgres requires postgres.dsn"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}
	for name, w := range map[string]float64{
		"scoring.stars": c.Scoring.Stars, "scoring.velocity": c.Scoring.Velocity, "scoring.recency": c.Scoring.Recency,
	} {
		if w < 0 || w > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0,1], got %v", name, w))
		}
	}
	for name, d := range map[string]string{
		"store.io_timeout": c.Store.IOTimeout, "sources.timeout": c.Sources.Timeout,
		"sources.refresh_timeout": c.Sources.RefreshTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout, "openai.batch_delay": c.OpenAI.BatchDelay,
		"openai.cache_ttl": c.OpenAI.CacheTTL,
	} {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Duration parses a duration string validated by Validate, returning def
// when it is empty.
func Duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
