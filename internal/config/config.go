// Package config provides typed configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Core     CoreConfig     `mapstructure:"core"`
	Database DatabaseConfig `mapstructure:"database"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Alerting AlertingConfig `mapstructure:"alerting"`
	Daemon   DaemonConfig   `mapstructure:"daemon"`
}

// CoreConfig holds core application settings.
type CoreConfig struct {
	DataDir  string `mapstructure:"data_dir"`
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	JournalMode string `mapstructure:"journal_mode"`
	Synchronous string `mapstructure:"synchronous"`
	CacheSize   int    `mapstructure:"cache_size"`
	BusyTimeout int    `mapstructure:"busy_timeout_ms"`
}

// WebhookConfig holds outbound event delivery settings.
type WebhookConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

// AlertingConfig holds external alert notification settings.
type AlertingConfig struct {
	SlackWebhookURL string     `mapstructure:"slack_webhook_url"`
	SMTP            SMTPConfig `mapstructure:"smtp"`
}

// SMTPConfig holds mail delivery settings.
type SMTPConfig struct {
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// DaemonConfig holds daemon listener settings.
type DaemonConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Load loads configuration from defaults, config file, and environment.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("PLANTLINE")
	v.AutomaticEnv()
	bindEnvVars(v)

	// Config file is optional.
	if err := loadConfigFile(v); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("core.data_dir", getDefaultDataDir())
	v.SetDefault("core.log_level", "info")
	v.SetDefault("core.log_json", false)

	v.SetDefault("database.journal_mode", "WAL")
	v.SetDefault("database.synchronous", "NORMAL")
	v.SetDefault("database.cache_size", -64000)
	v.SetDefault("database.busy_timeout_ms", 5000)

	v.SetDefault("alerting.smtp.port", 587)

	v.SetDefault("daemon.addr", ":8080")
	v.SetDefault("daemon.shutdown_timeout", 10*time.Second)
}

// bindEnvVars binds environment variables to config keys.
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("core.data_dir", "PLANTLINE_DATA_DIR")
	_ = v.BindEnv("core.log_level", "PLANTLINE_LOG_LEVEL")
	_ = v.BindEnv("core.log_json", "PLANTLINE_LOG_JSON")

	_ = v.BindEnv("database.journal_mode", "PLANTLINE_DB_JOURNAL_MODE")
	_ = v.BindEnv("database.synchronous", "PLANTLINE_DB_SYNCHRONOUS")
	_ = v.BindEnv("database.cache_size", "PLANTLINE_DB_CACHE_SIZE")
	_ = v.BindEnv("database.busy_timeout_ms", "PLANTLINE_DB_BUSY_TIMEOUT_MS")

	_ = v.BindEnv("webhook.url", "PLANTLINE_WEBHOOK_URL")
	_ = v.BindEnv("webhook.token", "PLANTLINE_WEBHOOK_TOKEN")

	_ = v.BindEnv("alerting.slack_webhook_url", "PLANTLINE_SLACK_WEBHOOK_URL")
	_ = v.BindEnv("alerting.smtp.host", "PLANTLINE_SMTP_HOST")
	_ = v.BindEnv("alerting.smtp.port", "PLANTLINE_SMTP_PORT")
	_ = v.BindEnv("alerting.smtp.username", "PLANTLINE_SMTP_USERNAME")
	_ = v.BindEnv("alerting.smtp.password", "PLANTLINE_SMTP_PASSWORD")
	_ = v.BindEnv("alerting.smtp.from", "PLANTLINE_SMTP_FROM")

	_ = v.BindEnv("daemon.addr", "PLANTLINE_ADDR")
	_ = v.BindEnv("daemon.shutdown_timeout", "PLANTLINE_SHUTDOWN_TIMEOUT")
}

// loadConfigFile loads config.yaml if it exists.
func loadConfigFile(v *viper.Viper) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	v.AddConfigPath(filepath.Join(home, ".plantline"))
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	return v.MergeInConfig()
}

// getDefaultDataDir returns the default data directory.
func getDefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".plantline/data"
	}
	return filepath.Join(home, ".plantline", "data")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Database.JournalMode {
	case "WAL", "DELETE", "TRUNCATE", "MEMORY":
	default:
		return fmt.Errorf("database.journal_mode %q is not a valid SQLite journal mode", c.Database.JournalMode)
	}
	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout_ms must not be negative")
	}
	if c.Daemon.Addr == "" {
		return fmt.Errorf("daemon.addr must not be empty")
	}
	if c.Daemon.ShutdownTimeout <= 0 {
		return fmt.Errorf("daemon.shutdown_timeout must be positive")
	}
	return nil
}

// IsWebhookEnabled returns true if outbound webhook delivery is configured.
func (c *Config) IsWebhookEnabled() bool {
	return c.Webhook.URL != ""
}
