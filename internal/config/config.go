package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	WallabagURL          string        `mapstructure:"wallabag_instance_url"`
	WallabagClientID     string        `mapstructure:"wallabag_client_id"`
	WallabagClientSecret string        `mapstructure:"wallabag_client_secret"`
	WallabagUsername     string        `mapstructure:"wallabag_username"`
	WallabagPassword     string        `mapstructure:"wallabag_password"`
	HTTPTimeoutSeconds   int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout          time.Duration `mapstructure:"-"`

	FeedsFile     string `mapstructure:"feeds_file"`
	NotifiersFile string `mapstructure:"notifiers_file"`

	// Labeler policy values. Thresholds are policy, not structure, so they
	// live in config with the historical defaults.
	MinHealthyBytes  int           `mapstructure:"min_healthy_bytes"`
	OldAfterDays     int64         `mapstructure:"old_after_days"`
	VeryOldAfterDays int64         `mapstructure:"very_old_after_days"`
	OldAfter         time.Duration `mapstructure:"-"`
	VeryOldAfter     time.Duration `mapstructure:"-"`

	ImportWindowDays int64         `mapstructure:"import_window_days"`
	ImportWindow     time.Duration `mapstructure:"-"`

	PaywalledSites    string   `mapstructure:"paywalled_sites"`
	PaywalledHosts    []string `mapstructure:"-"`
	MaxReadingMinutes int      `mapstructure:"max_reading_minutes"`
	ArchiveBaseURL    string   `mapstructure:"archive_base_url"`

	StorageType            string        `mapstructure:"storage_type"`
	StoragePath            string        `mapstructure:"storage_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`

	Schedule string   `mapstructure:"schedule"`
	Jobs     string   `mapstructure:"jobs"`
	JobList  []string `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "wallabag-tools")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")

	v.SetDefault("wallabag_instance_url", "https://app.wallabag.it")
	v.SetDefault("wallabag_client_id", "")
	v.SetDefault("wallabag_client_secret", "")
	v.SetDefault("wallabag_username", "")
	v.SetDefault("wallabag_password", "")
	v.SetDefault("http_timeout_seconds", 30)

	v.SetDefault("feeds_file", "./configs/feeds.yaml")
	v.SetDefault("notifiers_file", "./configs/notifiers.yaml")

	v.SetDefault("min_healthy_bytes", 10240)
	v.SetDefault("old_after_days", 90)
	v.SetDefault("very_old_after_days", 365)

	v.SetDefault("import_window_days", 30)

	v.SetDefault("paywalled_sites", "wsj.com,ft.com,bloomberg.com,nytimes.com,washingtonpost.com,economist.com")
	v.SetDefault("max_reading_minutes", 2)
	v.SetDefault("archive_base_url", "https://archive.is")

	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("storage_path", "./data/imported.db")
	v.SetDefault("storage_ttl_seconds", int64((90*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((24*time.Hour)/time.Second))

	v.SetDefault("schedule", "0 6 * * *")
	v.SetDefault("jobs", "labeler,importer,archiver")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.MinHealthyBytes <= 0 {
		return nil, fmt.Errorf("invalid min_healthy_bytes (must be positive)")
	}
	if cfg.OldAfterDays <= 0 {
		return nil, fmt.Errorf("invalid old_after_days (must be positive days)")
	}
	if cfg.VeryOldAfterDays <= cfg.OldAfterDays {
		return nil, fmt.Errorf("invalid very_old_after_days (must exceed old_after_days)")
	}
	cfg.OldAfter = time.Duration(cfg.OldAfterDays) * 24 * time.Hour
	cfg.VeryOldAfter = time.Duration(cfg.VeryOldAfterDays) * 24 * time.Hour

	if cfg.ImportWindowDays <= 0 {
		return nil, fmt.Errorf("invalid import_window_days (must be positive days)")
	}
	cfg.ImportWindow = time.Duration(cfg.ImportWindowDays) * 24 * time.Hour

	if cfg.MaxReadingMinutes <= 0 {
		return nil, fmt.Errorf("invalid max_reading_minutes (must be positive minutes)")
	}
	cfg.PaywalledHosts = splitCSV(cfg.PaywalledSites)
	if len(cfg.PaywalledHosts) == 0 {
		return nil, fmt.Errorf("paywalled_sites must name at least one host")
	}

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	cfg.JobList = splitCSV(cfg.Jobs)
	if len(cfg.JobList) == 0 {
		return nil, fmt.Errorf("jobs must name at least one job")
	}

	return &cfg, nil
}

// Redacted returns the loggable view of the config. Credentials stay out.
func (c *Config) Redacted() map[string]any {
	return map[string]any{
		"app_name":              c.AppName,
		"app_env":               c.Env,
		"log_level":             c.LogLevel,
		"wallabag_instance_url": c.WallabagURL,
		"wallabag_username":     c.WallabagUsername,
		"feeds_file":            c.FeedsFile,
		"notifiers_file":        c.NotifiersFile,
		"archive_base_url":      c.ArchiveBaseURL,
		"storage_type":          c.StorageType,
		"storage_path":          c.StoragePath,
		"schedule":              c.Schedule,
		"jobs":                  c.JobList,
	}
}

// splitCSV splits a comma-separated value into trimmed non-empty parts.
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
