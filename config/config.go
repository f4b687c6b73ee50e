// Package config loads and validates the YAML configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"trendwatch/model"
)

// SourceConfig describes one platform adapter to register.
type SourceConfig struct {
	ID      string            `yaml:"id"`
	Name    string            `yaml:"name"`
	Kind    string            `yaml:"kind"` // hotlist | youtube | htmlboard
	URL     string            `yaml:"url"`
	Options map[string]string `yaml:"options"`
}

// GroupConfig is one keyword group. Plain terms broaden the group, require
// terms narrow it, exclude terms veto it.
type GroupConfig struct {
	Label   string   `yaml:"label"`
	Plain   []string `yaml:"plain"`
	Require []string `yaml:"require"`
	Exclude []string `yaml:"exclude"`
}

// Rule converts the group into the matcher's rule representation.
func (g GroupConfig) Rule() model.KeywordRule {
	return model.KeywordRule{
		GroupLabel: g.Label,
		Plain:      g.Plain,
		Required:   g.Require,
		Excluded:   g.Exclude,
	}
}

// WebhookConfig is one outbound webhook notification channel.
type WebhookConfig struct {
	Kind string `yaml:"kind"` // feishu | dingtalk | wework | ntfy
	URL  string `yaml:"url"`
}

// TelegramConfig wires the Telegram bot channel.
type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// NotifyConfig groups all notification channels.
type NotifyConfig struct {
	Telegram TelegramConfig  `yaml:"telegram"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// WindowConfig bounds the aggregation window.
type WindowConfig struct {
	// MaxBatches caps the frequency denominator when polling runs all day.
	MaxBatches int `yaml:"max_batches"`
	// RetentionDays controls eviction of stale entries from the seen set.
	RetentionDays int `yaml:"retention_days"`
}

// Config holds all application configuration.
type Config struct {
	Mode            model.Mode     `yaml:"mode"`
	CronExpr        string         `yaml:"cron"`
	Timezone        string         `yaml:"timezone"`
	DBPath          string         `yaml:"db_path"`
	LogLevel        string         `yaml:"log_level"`
	FetchTimeoutSec int            `yaml:"fetch_timeout_secs"`
	RankThreshold   int            `yaml:"rank_threshold"`
	ReportDir       string         `yaml:"report_dir"`
	Preview         bool           `yaml:"preview"`
	Window          WindowConfig   `yaml:"window"`
	Sources         []SourceConfig `yaml:"sources"`
	Groups          []GroupConfig  `yaml:"groups"`
	Notify          NotifyConfig   `yaml:"notify"`
}

// Defaults returns a Config with all default values set.
func Defaults() Config {
	return Config{
		Mode:            model.ModeDaily,
		CronExpr:        "*/30 * * * *",
		Timezone:        "Asia/Shanghai",
		DBPath:          "./trendwatch.db",
		LogLevel:        "info",
		FetchTimeoutSec: 10,
		RankThreshold:   10,
		ReportDir:       "./output",
		Window: WindowConfig{
			MaxBatches:    96,
			RetentionDays: 3,
		},
	}
}

// Rules returns the keyword rules in configuration order.
func (c *Config) Rules() []model.KeywordRule {
	rules := make([]model.KeywordRule, 0, len(c.Groups))
	for _, g := range c.Groups {
		rules = append(rules, g.Rule())
	}
	return rules
}

// Load reads a YAML config file and returns a validated Config. The
// TRENDWATCH_CONFIG, TRENDWATCH_DB, and TRENDWATCH_TELEGRAM_TOKEN
// environment variables override the file path, database path, and bot token.
func Load(path string) (Config, error) {
	if envPath := os.Getenv("TRENDWATCH_CONFIG"); envPath != "" {
		path = envPath
	}

	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}

	if envDB := os.Getenv("TRENDWATCH_DB"); envDB != "" {
		cfg.DBPath = envDB
	}
	if envToken := os.Getenv("TRENDWATCH_TELEGRAM_TOKEN"); envToken != "" {
		cfg.Notify.Telegram.Token = envToken
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

var sourceKinds = map[string]bool{
	"hotlist":   true,
	"youtube":   true,
	"htmlboard": true,
}

// Validate checks that required fields are present and values are valid.
func (c *Config) Validate() error {
	if !c.Mode.Valid() {
		return fmt.Errorf("invalid mode %q: must be daily, current, or incremental", c.Mode)
	}
	if c.CronExpr == "" {
		return fmt.Errorf("cron expression is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.Window.MaxBatches < 1 {
		return fmt.Errorf("window.max_batches must be at least 1")
	}
	if c.Window.RetentionDays < 1 {
		return fmt.Errorf("window.retention_days must be at least 1")
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	seen := make(map[string]bool, len(c.Sources))
	for i, src := range c.Sources {
		if src.ID == "" {
			return fmt.Errorf("source %d: id is required", i)
		}
		if seen[src.ID] {
			return fmt.Errorf("duplicate source id %q", src.ID)
		}
		seen[src.ID] = true
		if !sourceKinds[src.Kind] {
			return fmt.Errorf("source %q: unknown kind %q", src.ID, src.Kind)
		}
	}
	for i, g := range c.Groups {
		if g.Label == "" {
			return fmt.Errorf("group %d: label is required", i)
		}
		if len(g.Plain) == 0 && len(g.Require) == 0 {
			return fmt.Errorf("group %q: needs at least one plain or require term", g.Label)
		}
	}
	return nil
}

// Location resolves the configured timezone. Validate must have passed.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
