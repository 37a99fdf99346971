package config

import (
	"fmt"
	"time"
)

type Config struct {
	Liquipedia          LiquipediaConfig    `yaml:"liquipedia"`
	ESL                 ESLConfig           `yaml:"esl"`
	HTTP                HttpConfig          `yaml:"http"`
	RateLimit           RateLimitConfig     `yaml:"rate_limit"`
	Rod                 RodConfig           `yaml:"rod"`
	RobotsCacheTTLHours int                 `yaml:"robots_cache_ttl_hours"`
	Storage             StorageConfig       `yaml:"storage"`
	Scheduler           SchedulerConfig     `yaml:"scheduler"`
	Observability       ObservabilityConfig `yaml:"observability"`
}

type LiquipediaConfig struct {
	// Site is the wiki host plus wiki, e.g. "liquipedia.net/starcraft2".
	Site         string `yaml:"site"`
	APIPath      string `yaml:"api_path"`
	PageTemplate string `yaml:"page_template"`
	MaxLagS      int    `yaml:"maxlag_s"`
	MaxRetries   int    `yaml:"max_retries"`
}

type ESLConfig struct {
	BaseURL string `yaml:"base_url"`
	// Leagues maps region -> edition -> league id. League ids cannot be
	// fetched from play.eslgaming.com without going through Cloudflare, so
	// the table is maintained here; the discover command is the
	// browser-assisted alternative.
	Leagues map[string]map[int]string `yaml:"leagues"`
}

type RodConfig struct {
	Enabled          bool   `yaml:"enabled"`
	ChromePath       string `yaml:"chrome_path"`
	PageTimeoutS     int    `yaml:"page_timeout_s"`
	WaitLoadTimeoutS int    `yaml:"wait_load_timeout_s"`
	LazyLoadDelayS   int    `yaml:"lazy_load_delay_s"`
}

type HttpConfig struct {
	UserAgent        string `yaml:"user_agent"`
	ConnectTimeoutMS int    `yaml:"connect_timeout_ms"`
	TotalTimeoutMS   int    `yaml:"total_timeout_ms"`
	MaxRetries       int    `yaml:"max_retries"`
	BackoffMinMS     int    `yaml:"backoff_min_ms"`
	BackoffMaxMS     int    `yaml:"backoff_max_ms"`
	JitterPct        int    `yaml:"jitter_pct"`
}

type RateLimitConfig struct {
	MaxConcurrentPerHost int `yaml:"max_concurrent_per_host"`
	RPM                  int `yaml:"rpm"`
}

type StorageConfig struct {
	Driver           string `yaml:"driver"`
	Path             string `yaml:"path"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
}

type SchedulerConfig struct {
	Mode      string `yaml:"mode"`
	IntervalS int    `yaml:"interval_s"`
}

type ObservabilityConfig struct {
	LogPath  string `yaml:"log_path"`
	LogLevel string `yaml:"log_level"`
}

// Validation
func (c *Config) Validate() error {
	if c.Liquipedia.Site == "" {
		return fmt.Errorf("liquipedia.site is required")
	}
	if c.Liquipedia.PageTemplate == "" {
		return fmt.Errorf("liquipedia.page_template is required")
	}
	if c.Liquipedia.MaxLagS < 0 {
		return fmt.Errorf("liquipedia.maxlag_s must be >= 0")
	}
	if c.Liquipedia.MaxRetries < 0 {
		return fmt.Errorf("liquipedia.max_retries must be >= 0")
	}
	if c.ESL.BaseURL == "" {
		return fmt.Errorf("esl.base_url is required")
	}
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent is required")
	}
	if c.HTTP.ConnectTimeoutMS <= 0 {
		return fmt.Errorf("http.connect_timeout_ms must be > 0")
	}
	if c.HTTP.TotalTimeoutMS <= 0 {
		return fmt.Errorf("http.total_timeout_ms must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.HTTP.BackoffMinMS <= 0 {
		return fmt.Errorf("http.backoff_min_ms must be > 0")
	}
	if c.HTTP.BackoffMaxMS < c.HTTP.BackoffMinMS {
		return fmt.Errorf("http.backoff_max_ms must be >= http.backoff_min_ms")
	}
	if c.HTTP.JitterPct < 0 || c.HTTP.JitterPct > 100 {
		return fmt.Errorf("http.jitter_pct must be between 0 and 100")
	}
	if c.RateLimit.MaxConcurrentPerHost <= 0 {
		return fmt.Errorf("rate_limit.max_concurrent_per_host must be > 0")
	}
	if c.RateLimit.RPM <= 0 {
		return fmt.Errorf("rate_limit.rpm must be > 0")
	}
	if c.Storage.Driver != "csv" && c.Storage.Driver != "sqlite" {
		return fmt.Errorf("storage.driver must be 'csv' or 'sqlite'")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.Storage.CommandTimeoutMS <= 0 {
		return fmt.Errorf("storage.command_timeout_ms must be > 0")
	}
	if c.Scheduler.Mode != "oneshot" && c.Scheduler.Mode != "interval" {
		return fmt.Errorf("scheduler.mode must be 'oneshot' or 'interval'")
	}
	if c.Scheduler.Mode == "interval" && c.Scheduler.IntervalS <= 0 {
		return fmt.Errorf("scheduler.interval_s must be > 0 when mode is 'interval'")
	}
	if c.Observability.LogPath == "" {
		return fmt.Errorf("observability.log_path is required")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("observability.log_level is required")
	}
	if c.RobotsCacheTTLHours <= 0 {
		return fmt.Errorf("robots_cache_ttl_hours must be > 0")
	}
	if c.Rod.Enabled {
		if c.Rod.PageTimeoutS <= 0 {
			return fmt.Errorf("rod.page_timeout_s must be > 0")
		}
		if c.Rod.WaitLoadTimeoutS <= 0 {
			return fmt.Errorf("rod.wait_load_timeout_s must be > 0")
		}
		if c.Rod.LazyLoadDelayS < 0 {
			return fmt.Errorf("rod.lazy_load_delay_s must be >= 0")
		}
	}
	return nil
}

// LeagueID resolves the ESL league id for a region/edition pair.
func (c *ESLConfig) LeagueID(region string, edition int) (string, error) {
	editions, ok := c.Leagues[region]
	if !ok {
		return "", fmt.Errorf("no leagues configured for region %s", region)
	}
	id, ok := editions[edition]
	if !ok {
		return "", fmt.Errorf("no league id for %s cup %d (update esl.leagues in the config)", region, edition)
	}
	return id, nil
}

// Getters
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.HTTP.ConnectTimeoutMS) * time.Millisecond
}

func (c *Config) GetTotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutMS) * time.Millisecond
}

func (c *Config) GetBackoffMin() time.Duration {
	return time.Duration(c.HTTP.BackoffMinMS) * time.Millisecond
}

func (c *Config) GetBackoffMax() time.Duration {
	return time.Duration(c.HTTP.BackoffMaxMS) * time.Millisecond
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.CommandTimeoutMS) * time.Millisecond
}

func (c *Config) GetSchedulerInterval() time.Duration {
	return time.Duration(c.Scheduler.IntervalS) * time.Second
}

func (c *Config) GetRobotsCacheTTL() time.Duration {
	return time.Duration(c.RobotsCacheTTLHours) * time.Hour
}

func (c *Config) GetMaxLag() time.Duration {
	return time.Duration(c.Liquipedia.MaxLagS) * time.Second
}

func (c *Config) GetRodPageTimeout() time.Duration {
	return time.Duration(c.Rod.PageTimeoutS) * time.Second
}

func (c *Config) GetRodWaitLoadTimeout() time.Duration {
	return time.Duration(c.Rod.WaitLoadTimeoutS) * time.Second
}

func (c *Config) GetRodLazyLoadDelay() time.Duration {
	return time.Duration(c.Rod.LazyLoadDelayS) * time.Second
}
