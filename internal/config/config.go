package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/ykvlv/reminder-bot/internal/secrets"
	"github.com/ykvlv/reminder-bot/internal/store"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken       string        `envconfig:"BOT_TOKEN"`                  // falls back to the OS keyring
	DBDriver       string        `envconfig:"DB_DRIVER" default:"sqlite"` // sqlite|postgres
	DBPath         string        `envconfig:"DB_PATH" default:"./data/reminders.db"`
	DatabaseURL    string        `envconfig:"DATABASE_URL"`
	UTCOffsetHours int           `envconfig:"UTC_OFFSET_HOURS" default:"3"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	LogFile        string        `envconfig:"LOG_FILE"`                 // rotated copy of the log, optional
	HTTPAddr       string        `envconfig:"HTTP_ADDR" default:":8080"`
	TickInterval   time.Duration `envconfig:"TICK_INTERVAL" default:"1s"`
	FaultBackoff   time.Duration `envconfig:"FAULT_BACKOFF" default:"5s"`
	SendRatePerSec float64       `envconfig:"SEND_RATE_PER_SEC" default:"25"`
	ParseMode      string        `envconfig:"PARSE_MODE" default:"HTML"` // HTML|MarkdownV2|empty
	PollTimeout    time.Duration `envconfig:"POLL_TIMEOUT" default:"30s"`
}

// Load reads environment variables into Config. An empty BOT_TOKEN is
// filled from the OS keyring when one is stored there.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if cfg.BotToken == "" {
		token, err := secrets.BotToken()
		switch {
		case err == nil:
			cfg.BotToken = token
		case errors.Is(err, secrets.ErrNotFound), errors.Is(err, secrets.ErrKeyringUnavailable):
			// left empty; Validate decides whether that matters
		default:
			return cfg, err
		}
	}
	return cfg, nil
}

// Validate checks values envconfig cannot. The token is only required when
// the bot is going to talk to Telegram.
func (c Config) Validate(needToken bool) error {
	if needToken && c.BotToken == "" {
		return errors.New("BOT_TOKEN is not set and no token is stored in the keyring")
	}
	switch c.DBDriver {
	case store.DriverSQLite:
	case store.DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q (want sqlite or postgres)", c.DBDriver)
	}
	switch c.ParseMode {
	case "", "HTML", "MarkdownV2":
	default:
		return fmt.Errorf("unknown PARSE_MODE %q (want HTML, MarkdownV2 or empty)", c.ParseMode)
	}
	if c.UTCOffsetHours < -12 || c.UTCOffsetHours > 14 {
		return fmt.Errorf("UTC_OFFSET_HOURS %d out of range [-12, 14]", c.UTCOffsetHours)
	}
	if c.TickInterval <= 0 {
		return errors.New("TICK_INTERVAL must be positive")
	}
	return nil
}

// DSN returns the data source for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == store.DriverPostgres {
		return c.DatabaseURL
	}
	return c.DBPath
}

// Location is the single fixed zone every reminder is evaluated in.
func (c Config) Location() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", c.UTCOffsetHours), c.UTCOffsetHours*60*60)
}
