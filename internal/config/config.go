// Package config loads daemon configuration with viper.
//
// Values come from configs/config.yml (or the file given with --config),
// overridden by HALP_* environment variables, e.g. HALP_DB_PATH or
// HALP_HA_BASE_URL.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix         = "HALP"
	defaultConfigName = "config"
	defaultConfigDir  = "configs"
)

// Config is the full daemon configuration.
type Config struct {
	Port     string         `mapstructure:"port"`
	DB       DBConfig       `mapstructure:"db"`
	Log      LogConfig      `mapstructure:"log"`
	Auth     AuthConfig     `mapstructure:"auth"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Location LocationConfig `mapstructure:"location"`
	HA       HAConfig       `mapstructure:"ha"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// AuthConfig configures API sign-in tokens.
type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	// AllowSignUp opens sign-up to anyone. When false only the first
	// operator can be created, while the users table is empty.
	AllowSignUp bool `mapstructure:"allow_sign_up"`
}

// HTTPConfig bounds each request to Home Assistant.
type HTTPConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
}

// FetchConfig controls retry of transport failures within one poll cycle.
type FetchConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
}

type EngineConfig struct {
	UnauthorizedThreshold int `mapstructure:"unauthorized_threshold"`
}

type LocationConfig struct {
	MockAllowed bool `mapstructure:"mock_allowed"`
}

// HAConfig seeds settings that have never been stored. Values already in the
// settings store win.
type HAConfig struct {
	BaseURL             string `mapstructure:"base_url"`
	Token               string `mapstructure:"token"`
	EntityID            string `mapstructure:"entity_id"`
	PollIntervalSeconds int64  `mapstructure:"poll_interval_seconds"`
}

// PlaceholderSigningKey is the example key shipped in docs; it is refused.
const PlaceholderSigningKey = "change-me"

var (
	// ErrEmptySigningKey is returned when auth.signing_key resolves to an empty string.
	ErrEmptySigningKey = errors.New("auth.signing_key must not be empty (set HALP_AUTH_SIGNING_KEY)")
	// ErrPlaceholderSigningKey is returned when auth.signing_key is still the example value.
	ErrPlaceholderSigningKey = errors.New("auth.signing_key is the example value; choose a secret")
)

// SetDefaults registers a default for every known key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("auth.allow_sign_up", false)
	v.SetDefault("http.connect_timeout", 15*time.Second)
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.initial_backoff", time.Second)
	v.SetDefault("engine.unauthorized_threshold", 3)
	v.SetDefault("location.mock_allowed", true)
	v.SetDefault("ha.base_url", "")
	v.SetDefault("ha.token", "")
	v.SetDefault("ha.entity_id", "")
	v.SetDefault("ha.poll_interval_seconds", 0)
}

// Load reads the config file (if any) and environment into a Config.
// A missing config file is not an error; defaults and env still apply.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize fixes out-of-range values and validates required ones.
func (c *Config) normalize() error {
	if c.Fetch.MaxAttempts <= 0 {
		c.Fetch.MaxAttempts = 3
	}
	if c.Fetch.InitialBackoff <= 0 {
		c.Fetch.InitialBackoff = time.Second
	}
	if c.Engine.UnauthorizedThreshold <= 0 {
		c.Engine.UnauthorizedThreshold = 3
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = time.Hour
	}
	switch strings.TrimSpace(c.Auth.SigningKey) {
	case "":
		return ErrEmptySigningKey
	case PlaceholderSigningKey:
		return ErrPlaceholderSigningKey
	}
	return nil
}
