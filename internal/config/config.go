// Package config loads and validates jobsparser configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jobsparser/jobsparser/internal/scraper"
)

// Config captures all run configuration loaded via Viper. Flags, environment
// variables (JOBSPARSER_ prefix), and an optional config file all land here.
type Config struct {
	Search  SearchConfig  `mapstructure:"search"`
	Session SessionConfig `mapstructure:"session"`
	Output  OutputConfig  `mapstructure:"output"`
	DB      DBConfig      `mapstructure:"db"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SearchConfig holds the provider-facing search parameters.
type SearchConfig struct {
	Term             string   `mapstructure:"term"`
	Location         string   `mapstructure:"location"`
	Distance         int      `mapstructure:"distance"`
	JobType          string   `mapstructure:"job_type"`
	Country          string   `mapstructure:"country"`
	FetchDescription bool     `mapstructure:"fetch_description"`
	Proxies          []string `mapstructure:"proxies"`
	HoursOld         int      `mapstructure:"hours_old"`
	ExperienceLevels []string `mapstructure:"experience_levels"`
}

// SessionConfig governs pagination, pacing, and retries.
type SessionConfig struct {
	Sites         []string `mapstructure:"sites"`
	ResultsWanted int      `mapstructure:"results_wanted"`
	BatchSize     int      `mapstructure:"batch_size"`
	SleepSeconds  int      `mapstructure:"sleep_seconds"`
	MaxRetries    int      `mapstructure:"max_retries"`
}

// OutputConfig controls the CSV export location.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// DBConfig enables the optional Postgres record sink when a DSN is set.
type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

// MetricsConfig controls the embedded metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from the given Viper instance (flags already bound)
// plus environment and optional file.
func Load(v *viper.Viper, path string) (Config, error) {
	v.SetEnvPrefix("JOBSPARSER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("search.distance", 25)
	v.SetDefault("search.job_type", "fulltime")
	v.SetDefault("search.country", "UK")
	v.SetDefault("search.fetch_description", true)
	v.SetDefault("session.sites", []string{"linkedin"})
	v.SetDefault("session.results_wanted", 100)
	v.SetDefault("session.batch_size", 30)
	v.SetDefault("session.sleep_seconds", 100)
	v.SetDefault("session.max_retries", 3)
	v.SetDefault("output.dir", "data")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Search.Term == "" {
		return fmt.Errorf("%w: search.term is required", scraper.ErrConfiguration)
	}
	if c.Search.Location == "" {
		return fmt.Errorf("%w: search.location is required", scraper.ErrConfiguration)
	}
	if c.Search.Distance < 0 {
		return fmt.Errorf("%w: search.distance must be >= 0", scraper.ErrConfiguration)
	}
	if _, err := scraper.ParseJobType(c.Search.JobType); err != nil {
		return err
	}
	for _, level := range c.Search.ExperienceLevels {
		if _, err := scraper.ParseExperienceLevel(level); err != nil {
			return err
		}
	}
	if _, err := c.Sites(); err != nil {
		return err
	}
	session, err := c.SessionConfig()
	if err != nil {
		return err
	}
	if err := session.Validate(); err != nil {
		return err
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("%w: metrics.addr must be set when metrics are enabled", scraper.ErrConfiguration)
	}
	return nil
}

// Sites resolves the configured site names.
func (c Config) Sites() ([]scraper.Site, error) {
	sites := make([]scraper.Site, 0, len(c.Session.Sites))
	for _, name := range c.Session.Sites {
		site, err := scraper.ParseSite(name)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, nil
}

// SessionConfig converts the loaded values into the core session structure.
func (c Config) SessionConfig() (scraper.SessionConfig, error) {
	sites, err := c.Sites()
	if err != nil {
		return scraper.SessionConfig{}, err
	}
	return scraper.SessionConfig{
		Sites:         sites,
		ResultsWanted: c.Session.ResultsWanted,
		BatchSize:     c.Session.BatchSize,
		SleepTime:     time.Duration(c.Session.SleepSeconds) * time.Second,
		MaxRetries:    c.Session.MaxRetries,
	}, nil
}

// ScrapeParams converts the loaded values into the core search structure.
func (c Config) ScrapeParams() (scraper.ScrapeParams, error) {
	jobType, err := scraper.ParseJobType(c.Search.JobType)
	if err != nil {
		return scraper.ScrapeParams{}, err
	}
	levels := make([]scraper.ExperienceLevel, 0, len(c.Search.ExperienceLevels))
	for _, raw := range c.Search.ExperienceLevels {
		level, err := scraper.ParseExperienceLevel(raw)
		if err != nil {
			return scraper.ScrapeParams{}, err
		}
		levels = append(levels, level)
	}
	return scraper.ScrapeParams{
		SearchTerm:       c.Search.Term,
		Location:         c.Search.Location,
		Distance:         c.Search.Distance,
		JobType:          jobType,
		Country:          c.Search.Country,
		FetchDescription: c.Search.FetchDescription,
		Proxies:          append([]string(nil), c.Search.Proxies...),
		HoursOld:         c.Search.HoursOld,
		ExperienceLevels: levels,
	}, nil
}
