package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix scopes environment overrides: SITENAV_SOURCE, SITENAV_SERVER_ADDR, ...
const EnvPrefix = "SITENAV"

// Config is the resolved CLI configuration.
type Config struct {
	// Source is a navigation file (.yaml/.yml/.toml/.json) or a markdown directory.
	Source string `mapstructure:"source"`
	Watch  bool   `mapstructure:"watch"`
	Debug  bool   `mapstructure:"debug"`

	// LogFormat is "text" or "json"; logs are only written in debug mode.
	LogFormat string `mapstructure:"log_format"`

	Router   RouterConfig   `mapstructure:"router"`
	Server   ServerConfig   `mapstructure:"server"`
	History  HistoryConfig  `mapstructure:"history"`
	Validate ValidateConfig `mapstructure:"validate"`
}

// RouterConfig mirrors the router's functional options.
type RouterConfig struct {
	ScrollDebounce time.Duration     `mapstructure:"scroll_debounce"`
	RetryPeriod    time.Duration     `mapstructure:"retry_period"`
	IgnoredPaths   []string          `mapstructure:"ignored_paths"`
	Aliases        map[string]string `mapstructure:"aliases"`
}

// ServerConfig configures "serve".
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Metrics         bool          `mapstructure:"metrics"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// OriginPatterns are the extra page hosts allowed to open websocket sessions.
	OriginPatterns []string `mapstructure:"origin_patterns"`
}

// HistoryConfig selects where browser sessions are persisted.
// RedisAddr takes precedence over Dir; with neither, histories live in memory.
type HistoryConfig struct {
	Dir           string        `mapstructure:"dir"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	Prefix        string        `mapstructure:"prefix"`
	TTL           time.Duration `mapstructure:"ttl"`

	// EncryptionKey is a base64 AES-256 key; histories are stored encrypted when set.
	EncryptionKey string `mapstructure:"encryption_key"`
	// MaskParameters are patterns of query parameter keys masked before storage.
	MaskParameters []string `mapstructure:"mask_parameters"`
}

// ValidateConfig configures "validate".
type ValidateConfig struct {
	// HeaderSchema maps header keys to type strings ("string", "int!", "[string]").
	HeaderSchema map[string]string `mapstructure:"header_schema"`
	MaxDepth     int               `mapstructure:"max_depth"`
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source", ".")
	v.SetDefault("watch", false)
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "text")
	v.SetDefault("router.scroll_debounce", 100*time.Millisecond)
	v.SetDefault("router.retry_period", 100*time.Millisecond)
	v.SetDefault("router.ignored_paths", []string{})
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics", true)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.origin_patterns", []string{})
	v.SetDefault("history.dir", "")
	v.SetDefault("history.redis_addr", "")
	v.SetDefault("history.redis_password", "")
	v.SetDefault("history.redis_db", 0)
	v.SetDefault("history.prefix", "sitenav:history:")
	v.SetDefault("history.ttl", 24*time.Hour)
	v.SetDefault("history.encryption_key", "")
	v.SetDefault("history.mask_parameters", []string{"token", "secret", "password"})
	v.SetDefault("validate.max_depth", 0)
}

// NewViper builds a viper instance reading cfgFile (or .sitenav.yaml in the working
// directory) with SITENAV_ environment overrides.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".sitenav")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing default file is fine; an explicit one must exist.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// LoadConfig decodes v into a Config.
func LoadConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Source == "" {
		return Config{}, fmt.Errorf("invalid config: source is required")
	}
	return cfg, nil
}
