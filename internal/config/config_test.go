package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("CREATOR_TELEGRAM_ID", "8258660794")
	t.Setenv("CREATOR_HANDLE", "@cxpyuser")
	t.Setenv("GAME_START_BALANCE", "2500")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Bot.Token)
	assert.Equal(t, int64(8258660794), cfg.Creator.TelegramID)
	assert.Equal(t, "@cxpyuser", cfg.Creator.Handle)
	assert.Equal(t, int64(2500), cfg.Game.StartBalance)
	assert.True(t, cfg.IsCreator(8258660794))
	assert.False(t, cfg.IsCreator(1))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("CREATOR_TELEGRAM_ID", "42")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, int64(10000), cfg.Game.StartBalance)
	assert.Equal(t, time.Second, cfg.Game.PacingDelay)
	assert.Equal(t, int64(1000000), cfg.Game.BonusAmount)
	assert.Equal(t, 5, cfg.Game.TopLimit)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 10*time.Second, cfg.Bot.PollTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
bot:
  token: "from-file"
creator:
  telegram_id: 7
  handle: "@boss"
game:
  pacing_delay: 250ms
database:
  driver: memory
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Bot.Token)
	assert.Equal(t, int64(7), cfg.Creator.TelegramID)
	assert.Equal(t, 250*time.Millisecond, cfg.Game.PacingDelay)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Bot:      BotConfig{Token: "t", Timezone: "UTC"},
			Creator:  CreatorConfig{TelegramID: 1},
			Game:     GameConfig{StartBalance: 10000, TopLimit: 5},
			Database: DatabaseConfig{Driver: DriverMemory},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing token", func(c *Config) { c.Bot.Token = "" }},
		{"missing creator", func(c *Config) { c.Creator.TelegramID = 0 }},
		{"negative start balance", func(c *Config) { c.Game.StartBalance = -1 }},
		{"zero top limit", func(c *Config) { c.Game.TopLimit = 0 }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mongo" }},
		{"bad timezone", func(c *Config) { c.Bot.Timezone = "Mars/Olympus" }},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "db", Port: 5433, Name: "arcade"}
	assert.Equal(t, "postgres://u:p@db:5433/arcade?sslmode=disable", d.DSN())
}
