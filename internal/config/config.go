package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"pipeline-alerts/internal/alert"
	"pipeline-alerts/internal/alerting"
	"pipeline-alerts/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Email    EmailConfig    `mapstructure:"email"`
	Database DatabaseConfig `mapstructure:"database"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// AlertsConfig is the manager policy surface.
type AlertsConfig struct {
	Enabled      bool                      `mapstructure:"enabled"`
	MinSeverity  string                    `mapstructure:"min_severity"`
	RateLimiting RateLimitConfig           `mapstructure:"rate_limiting"`
	Categories   map[string]CategoryConfig `mapstructure:"categories"`
}

// RateLimitConfig bounds alert volume per category.
type RateLimitConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	MaxPerHour int  `mapstructure:"max_per_hour"`
	MaxPerDay  int  `mapstructure:"max_per_day"`
}

// CategoryConfig holds the per-category enable flag.
type CategoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// EmailConfig extends the channel settings with its circuit breaker knobs.
type EmailConfig struct {
	alerting.EmailConfig `mapstructure:",squash"`

	Breaker BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig tunes the delivery circuit breaker.
type BreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	RecoveryTimeout  time.Duration `mapstructure:"recovery_timeout"`
	CallTimeout      time.Duration `mapstructure:"call_timeout"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity for the audit store.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// MonitorConfig governs the long-running monitor loop.
type MonitorConfig struct {
	Interval             time.Duration `mapstructure:"interval"`
	AlignToTick          bool          `mapstructure:"align_to_tick"`
	StartupDelay         time.Duration `mapstructure:"startup_delay"`
	Heartbeat            bool          `mapstructure:"heartbeat"`
	Retention            time.Duration `mapstructure:"retention"`
	LongRuntimeThreshold time.Duration `mapstructure:"long_runtime_threshold"`
	AdvisoryLockKey      int64         `mapstructure:"advisory_lock_key"`
}

// Load builds configuration from file, environment, and defaults.
// Environment variables take precedence over file values, which is what
// lets SMTP credentials stay out of the config file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ALERTPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional credential variables, in addition to the prefixed form.
	_ = v.BindEnv("email.sender_email", "ALERTPIPE_EMAIL_SENDER_EMAIL", "ALERT_SENDER_EMAIL")
	_ = v.BindEnv("email.sender_password", "ALERTPIPE_EMAIL_SENDER_PASSWORD", "ALERT_SENDER_PASSWORD")
	_ = v.BindEnv("email.recipient_email", "ALERTPIPE_EMAIL_RECIPIENT_EMAIL", "ALERT_RECIPIENT_EMAIL")

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "alertpipe")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("alerts.enabled", true)
	v.SetDefault("alerts.min_severity", "medium")
	v.SetDefault("alerts.rate_limiting.enabled", true)
	v.SetDefault("alerts.rate_limiting.max_per_hour", 10)
	v.SetDefault("alerts.rate_limiting.max_per_day", 50)
	for _, category := range alert.Categories() {
		v.SetDefault(fmt.Sprintf("alerts.categories.%s.enabled", category), true)
	}

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.use_tls", true)
	v.SetDefault("email.timeout", "30s")
	v.SetDefault("email.breaker.failure_threshold", 3)
	v.SetDefault("email.breaker.recovery_timeout", "300s")
	v.SetDefault("email.breaker.call_timeout", "30s")

	v.SetDefault("monitor.interval", "5m")
	v.SetDefault("monitor.align_to_tick", true)
	v.SetDefault("monitor.startup_delay", "0s")
	v.SetDefault("monitor.heartbeat", false)
	v.SetDefault("monitor.retention", "720h")
	v.SetDefault("monitor.advisory_lock_key", int64(0x616C7274))

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if _, err := alert.ParseSeverity(c.Alerts.MinSeverity); err != nil {
		return fmt.Errorf("alerts.min_severity: %w", err)
	}
	for name := range c.Alerts.Categories {
		if !alert.Category(name).Valid() {
			return fmt.Errorf("alerts.categories: unknown category %q", name)
		}
	}
	if c.Alerts.RateLimiting.MaxPerHour < 0 || c.Alerts.RateLimiting.MaxPerDay < 0 {
		return fmt.Errorf("alerts.rate_limiting limits cannot be negative")
	}
	if c.Email.Enabled && c.Email.Server == "" {
		return fmt.Errorf("email.smtp_server must be configured when email is enabled")
	}
	if c.Email.Enabled && (c.Email.Port <= 0 || c.Email.Port > 65535) {
		return fmt.Errorf("email.smtp_port must be a valid port")
	}
	if c.Email.Breaker.FailureThreshold <= 0 {
		return fmt.Errorf("email.breaker.failure_threshold must be greater than zero")
	}
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be greater than zero")
	}
	if c.Monitor.Retention < 0 {
		return fmt.Errorf("monitor.retention cannot be negative")
	}
	return nil
}

// MinSeverity returns the parsed minimum severity. Call after Validate.
func (c *Config) MinSeverity() alert.Severity {
	sev, err := alert.ParseSeverity(c.Alerts.MinSeverity)
	if err != nil {
		return alert.SeverityMedium
	}
	return sev
}

// CategoryFlags converts the configured category sections into the
// manager's enable map.
func (c *Config) CategoryFlags() map[alert.Category]bool {
	flags := make(map[alert.Category]bool, len(c.Alerts.Categories))
	for name, section := range c.Alerts.Categories {
		flags[alert.Category(name)] = section.Enabled
	}
	return flags
}
