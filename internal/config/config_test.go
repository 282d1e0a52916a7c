package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/ykvlv/reminder-bot/internal/secrets"
)

func TestLoad_Defaults(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv("BOT_TOKEN", "env-token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.BotToken)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "./data/reminders.db", cfg.DBPath)
	assert.Equal(t, 3, cfg.UTCOffsetHours)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, 5*time.Second, cfg.FaultBackoff)
	assert.Equal(t, "HTML", cfg.ParseMode)
	assert.Equal(t, 30*time.Second, cfg.PollTimeout)
	assert.InDelta(t, 25.0, cfg.SendRatePerSec, 0.001)
	require.NoError(t, cfg.Validate(true))
}

func TestLoad_TokenFromKeyring(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv("BOT_TOKEN", "")
	require.NoError(t, secrets.SetBotToken("ring-token"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ring-token", cfg.BotToken)
}

func TestLoad_EnvTokenWinsOverKeyring(t *testing.T) {
	gokeyring.MockInit()
	require.NoError(t, secrets.SetBotToken("ring-token"))
	t.Setenv("BOT_TOKEN", "env-token")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.BotToken)
}

func TestValidate(t *testing.T) {
	base := Config{
		BotToken:       "t",
		DBDriver:       "sqlite",
		ParseMode:      "HTML",
		UTCOffsetHours: 3,
		TickInterval:   time.Second,
	}

	cases := []struct {
		name      string
		mutate    func(*Config)
		needToken bool
		wantErr   bool
	}{
		{"valid", func(*Config) {}, true, false},
		{"missing token", func(c *Config) { c.BotToken = "" }, true, true},
		{"missing token offline", func(c *Config) { c.BotToken = "" }, false, false},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, false, true},
		{"postgres without url", func(c *Config) { c.DBDriver = "postgres" }, false, true},
		{"postgres with url", func(c *Config) { c.DBDriver = "postgres"; c.DatabaseURL = "postgres://x" }, false, false},
		{"plain parse mode", func(c *Config) { c.ParseMode = "" }, false, false},
		{"bad parse mode", func(c *Config) { c.ParseMode = "Markdown" }, false, true},
		{"offset too far", func(c *Config) { c.UTCOffsetHours = 15 }, false, true},
		{"zero tick", func(c *Config) { c.TickInterval = 0 }, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate(tc.needToken)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLocationAndDSN(t *testing.T) {
	cfg := Config{UTCOffsetHours: -5, DBDriver: "sqlite", DBPath: "a.db", DatabaseURL: "postgres://x"}

	_, offset := time.Date(2025, 1, 1, 0, 0, 0, 0, cfg.Location()).Zone()
	assert.Equal(t, -5*3600, offset)
	assert.Equal(t, "UTC-5", cfg.Location().String())
	assert.Equal(t, "a.db", cfg.DSN())

	cfg.DBDriver = "postgres"
	assert.Equal(t, "postgres://x", cfg.DSN())
}
