// Package config provides configuration management using viper.
// It supports loading from YAML files, a .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Bot      BotConfig      `mapstructure:"bot"`
	Creator  CreatorConfig  `mapstructure:"creator"`
	Game     GameConfig     `mapstructure:"game"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token       string        `mapstructure:"token"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
	Timezone    string        `mapstructure:"timezone"`
}

// CreatorConfig identifies the single creator account.
type CreatorConfig struct {
	TelegramID int64  `mapstructure:"telegram_id"`
	Handle     string `mapstructure:"handle"`
}

// GameConfig holds economy and pacing settings.
type GameConfig struct {
	StartBalance int64         `mapstructure:"start_balance"`
	PacingDelay  time.Duration `mapstructure:"pacing_delay"`
	BonusAmount  int64         `mapstructure:"bonus_amount"`
	TopLimit     int           `mapstructure:"top_limit"`
}

// DatabaseConfig holds storage configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory. A .env file in the
// working directory is applied to the process environment first.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g. BOT_TOKEN, CREATOR_TELEGRAM_ID, DATABASE_HOST
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional, env vars can provide everything
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
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
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.poll_timeout", "10s")
	v.SetDefault("bot.timezone", "Local")

	v.SetDefault("creator.telegram_id", 0)
	v.SetDefault("creator.handle", "")

	v.SetDefault("game.start_balance", 10000)
	v.SetDefault("game.pacing_delay", "1s")
	v.SetDefault("game.bonus_amount", 1000000)
	v.SetDefault("game.top_limit", 5)

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "arcade")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "arcade")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks that required settings are present and consistent.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return errors.New("bot token is required (bot.token / BOT_TOKEN)")
	}
	if c.Creator.TelegramID == 0 {
		return errors.New("creator telegram id is required (creator.telegram_id / CREATOR_TELEGRAM_ID)")
	}
	if c.Game.StartBalance < 0 {
		return fmt.Errorf("game.start_balance must not be negative, got %d", c.Game.StartBalance)
	}
	if c.Game.TopLimit <= 0 {
		return fmt.Errorf("game.top_limit must be positive, got %d", c.Game.TopLimit)
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone used for rendering dates.
func (c *Config) Location() (*time.Location, error) {
	if c.Bot.Timezone == "" || c.Bot.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Bot.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid bot.timezone %q: %w", c.Bot.Timezone, err)
	}
	return loc, nil
}

// IsCreator checks if a Telegram user ID is the configured creator.
func (c *Config) IsCreator(userID int64) bool {
	return userID == c.Creator.TelegramID
}
