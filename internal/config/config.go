package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		DataDir   string `yaml:"data_dir"`
		LogLevel  string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"`
	} `yaml:"app"`

	Fetch struct {
		TimeoutSeconds     int     `yaml:"timeout_seconds"`
		RequestsPerSecond  float64 `yaml:"requests_per_second"`
		Burst              int     `yaml:"burst"`
		MaxAttempts        int     `yaml:"max_attempts"`
		BackoffBaseSeconds float64 `yaml:"backoff_base_seconds"`
		ProxyURL           string  `yaml:"proxy_url"`
	} `yaml:"fetch"`

	Scrape struct {
		WindowHours          int `yaml:"window_hours"`
		Concurrency          int `yaml:"concurrency"`
		MaxPages             int `yaml:"max_pages"`
		TenantTimeoutMinutes int `yaml:"tenant_timeout_minutes"` // 0 = no per-tenant deadline
	} `yaml:"scrape"`

	Discover struct {
		SearxURL      string   `yaml:"searx_url"`
		Engines       []string `yaml:"engines"`
		MaxQueries    int      `yaml:"max_queries"`
		PagesPerQuery int      `yaml:"pages_per_query"`
	} `yaml:"discover"`
}

func Default() Config {
	var cfg Config
	cfg.App.DataDir = "data"
	cfg.App.LogLevel = "info"
	cfg.App.LogFormat = "console"

	cfg.Fetch.TimeoutSeconds = 45
	cfg.Fetch.RequestsPerSecond = 0.5
	cfg.Fetch.Burst = 1
	cfg.Fetch.MaxAttempts = 3
	cfg.Fetch.BackoffBaseSeconds = 2

	cfg.Scrape.WindowHours = 24
	cfg.Scrape.Concurrency = 4
	cfg.Scrape.MaxPages = 200

	cfg.Discover.Engines = []string{"google", "bing", "duckduckgo"}
	cfg.Discover.MaxQueries = 20
	cfg.Discover.PagesPerQuery = 3
	return cfg
}

// Load reads the file at path over the defaults, so partial configs keep
// default values for everything they omit.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv lets the environment override file settings. SEARXNG_URL keeps
// its historical name; everything else is JOBMAP_-prefixed.
func (cfg *Config) ApplyEnv() {
	if v := os.Getenv("JOBMAP_DATA_DIR"); v != "" {
		cfg.App.DataDir = v
	}
	if v := os.Getenv("JOBMAP_LOG_LEVEL"); v != "" {
		cfg.App.LogLevel = v
	}
	if v := os.Getenv("JOBMAP_LOG_FORMAT"); v != "" {
		cfg.App.LogFormat = v
	}
	if v := os.Getenv("JOBMAP_PROXY_URL"); v != "" {
		cfg.Fetch.ProxyURL = v
	}
	if v := os.Getenv("SEARXNG_URL"); v != "" {
		cfg.Discover.SearxURL = v
	}
	if v := os.Getenv("JOBMAP_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scrape.Concurrency = n
		}
	}
}
