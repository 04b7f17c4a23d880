package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const defaultSecret = "watchparty-dev-secret"

type Config struct {
	Mode       string `mapstructure:"mode" validate:"oneof=debug release test"`
	Port       int    `mapstructure:"port" validate:"min=1,max=65535"`
	StaticPath string `mapstructure:"static_path"`
	Secret     string `mapstructure:"secret" validate:"required"`
	LogLevel   string `mapstructure:"log_level"`

	// WebSocket transport.
	ReadLimit  int64         `mapstructure:"read_limit" validate:"min=512"`
	PingPeriod time.Duration `mapstructure:"ping_period" validate:"gt=0"`
	PongWait   time.Duration `mapstructure:"pong_wait" validate:"gtfield=PingPeriod"`
	WriteWait  time.Duration `mapstructure:"write_wait" validate:"gt=0"`
	SendBuffer int           `mapstructure:"send_buffer" validate:"min=1"`

	// What to do with a connection whose send queue is full.
	Backpressure string `mapstructure:"backpressure" validate:"oneof=kick drop"`

	// ICE servers offered to voice clients, one comma separated URL list each.
	ICEServers []string `mapstructure:"ice_servers"`

	// Persistence. An empty redis_addr disables the room cache.
	DBPath    string        `mapstructure:"db_path" validate:"required"`
	RedisAddr string        `mapstructure:"redis_addr"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl" validate:"gt=0"`

	ChatRateLimit    int           `mapstructure:"chat_rate_limit" validate:"min=1"`
	ChatRateInterval time.Duration `mapstructure:"chat_rate_interval" validate:"gt=0"`
	CleanupTimeout   time.Duration `mapstructure:"cleanup_timeout" validate:"gt=0"`
	HistoryLimit     int           `mapstructure:"history_limit" validate:"min=0"`
}

// Load reads config/config.<CONFIG_ENV>.yaml when present, applies
// WATCHPARTY_* environment overrides and validates the result.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.SetEnvPrefix("WATCHPARTY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("secret", defaultSecret)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("backpressure", "kick")
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("db_path", "watchparty.db")
	v.SetDefault("redis_addr", "")
	v.SetDefault("cache_ttl", "10m")
	v.SetDefault("chat_rate_limit", 5)
	v.SetDefault("chat_rate_interval", "3s")
	v.SetDefault("cleanup_timeout", "10s")
	v.SetDefault("history_limit", 50)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Mode == "release" && cfg.Secret == defaultSecret {
		log.Warn().Str("module", "config").Msg("using the built-in session secret in release mode")
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("db", cfg.DBPath).Bool("cache", cfg.RedisAddr != "").Msg("config ready")
	return &cfg, nil
}

// Level maps log_level to a zerolog level, defaulting to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
