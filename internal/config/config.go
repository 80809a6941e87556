package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds runtime configuration. Values come from an optional TOML file
// named by CONFIG_FILE, then environment variables, which take precedence.
type Config struct {
	Port        string   `toml:"port"`
	DatabaseURL string   `toml:"database_url"`
	JWTSecret   string   `toml:"jwt_secret"`
	JWTIssuer   string   `toml:"jwt_issuer"`
	JWTTTL      Duration `toml:"jwt_ttl"`
	CORSOrigins []string `toml:"cors_origins"`
	AppURL      string   `toml:"app_url"`

	CronSecret    string `toml:"cron_secret"`
	WebhookSecret string `toml:"webhook_secret"`

	AbacatePayAPIKey  string `toml:"abacatepay_api_key"`
	AbacatePayBaseURL string `toml:"abacatepay_base_url"`

	VAPIDPublicKey  string `toml:"vapid_public_key"`
	VAPIDPrivateKey string `toml:"vapid_private_key"`
	VAPIDSubject    string `toml:"vapid_subject"`

	RedisURL      string   `toml:"redis_url"`
	SweepInterval Duration `toml:"sweep_interval"`

	PlatformFeePercent int   `toml:"platform_fee_percent"`
	PenaltyMin         int64 `toml:"penalty_min"`
	PenaltyMax         int64 `toml:"penalty_max"`
	DepositMin         int64 `toml:"deposit_min"`
	DepositMax         int64 `toml:"deposit_max"`

	Log Log `toml:"log"`
}

// Log configures the zap logger and its rotating file sink.
type Log struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Duration lets TOML files use strings such as "15m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Defaults returns the configuration used when nothing overrides a field.
func Defaults() Config {
	return Config{
		Port:               "8080",
		JWTIssuer:          "deadline-daddy",
		JWTTTL:             Duration{7 * 24 * time.Hour},
		CORSOrigins:        []string{"*"},
		AppURL:             "http://localhost:3000",
		SweepInterval:      Duration{time.Minute},
		PlatformFeePercent: 20,
		PenaltyMin:         100,
		PenaltyMax:         10000,
		DepositMin:         100,
		DepositMax:         10000,
		Log: Log{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// Load reads configuration and performs validation.
func Load() (Config, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.JWTIssuer, "JWT_ISSUER")
	setString(&c.AppURL, "APP_URL")
	setString(&c.CronSecret, "CRON_SECRET")
	setString(&c.WebhookSecret, "WEBHOOK_SECRET")
	setString(&c.AbacatePayAPIKey, "ABACATEPAY_API_KEY")
	setString(&c.AbacatePayBaseURL, "ABACATEPAY_BASE_URL")
	setString(&c.VAPIDPublicKey, "VAPID_PUBLIC_KEY")
	setString(&c.VAPIDPrivateKey, "VAPID_PRIVATE_KEY")
	setString(&c.VAPIDSubject, "VAPID_SUBJECT")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.File, "LOG_FILE")

	if origins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); origins != "" {
		c.CORSOrigins = parseCSV(origins)
	}

	if minutes := strings.TrimSpace(os.Getenv("JWT_TTL_MINUTES")); minutes != "" {
		n, err := strconv.Atoi(minutes)
		if err != nil || n <= 0 {
			return fmt.Errorf("JWT_TTL_MINUTES must be a positive integer, got %q", minutes)
		}
		c.JWTTTL = Duration{time.Duration(n) * time.Minute}
	}
	if raw := strings.TrimSpace(os.Getenv("SWEEP_INTERVAL")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("SWEEP_INTERVAL: %w", err)
		}
		c.SweepInterval = Duration{d}
	}

	ints := []struct {
		key string
		dst *int64
	}{
		{"PENALTY_MIN", &c.PenaltyMin},
		{"PENALTY_MAX", &c.PenaltyMax},
		{"DEPOSIT_MIN", &c.DepositMin},
		{"DEPOSIT_MAX", &c.DepositMax},
	}
	for _, f := range ints {
		if raw := strings.TrimSpace(os.Getenv(f.key)); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("%s must be an integer, got %q", f.key, raw)
			}
			*f.dst = n
		}
	}
	if raw := strings.TrimSpace(os.Getenv("PLATFORM_FEE_PERCENT")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("PLATFORM_FEE_PERCENT must be an integer, got %q", raw)
		}
		c.PlatformFeePercent = n
	}
	return nil
}

// Validate checks required fields and ranges.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.CronSecret == "" {
		errs = append(errs, errors.New("CRON_SECRET is required"))
	}
	if c.PlatformFeePercent < 0 || c.PlatformFeePercent > 100 {
		errs = append(errs, fmt.Errorf("platform fee percent %d out of range 0..100", c.PlatformFeePercent))
	}
	if c.PenaltyMin <= 0 || c.PenaltyMin > c.PenaltyMax {
		errs = append(errs, fmt.Errorf("invalid penalty range %d..%d", c.PenaltyMin, c.PenaltyMax))
	}
	if c.DepositMin <= 0 || c.DepositMin > c.DepositMax {
		errs = append(errs, fmt.Errorf("invalid deposit range %d..%d", c.DepositMin, c.DepositMax))
	}
	if c.SweepInterval.Duration <= 0 {
		errs = append(errs, errors.New("sweep interval must be positive"))
	}
	return errors.Join(errs...)
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// PushEnabled reports whether VAPID keys are configured.
func (c Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
