// Package main runs the reminder bot and its maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ykvlv/reminder-bot/internal/app"
	"github.com/ykvlv/reminder-bot/internal/config"
	"github.com/ykvlv/reminder-bot/internal/logger"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reminder-bot",
	Short: "Telegram bot that posts recurring reminders to chats",
	Long: `reminder-bot delivers time-of-day reminders to Telegram chats, daily or on
selected weekdays. Without a subcommand it runs the bot (same as "serve").

Configuration comes from the environment (BOT_TOKEN, DB_DRIVER, DB_PATH,
DATABASE_URL, UTC_OFFSET_HOURS, ...). The token may instead be stored in the
OS keyring with "reminder-bot token set".`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot: poll Telegram, fire reminders, serve /healthz and /metrics",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(tokenCmd)
}

// setup loads and validates configuration and builds the logger.
func setup(needToken bool) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(needToken); err != nil {
		return cfg, nil, fmt.Errorf("config error: %w", err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return cfg, nil, fmt.Errorf("logger init error: %w", err)
	}
	return cfg, log, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(true)
	if err != nil {
		return err
	}
	// Ensure logger flush; ignore sync error (common on some platforms).
	defer func() { _ = log.Sync() }()

	application, err := app.New(cfg, log)
	if err != nil {
		log.Error("app init failed", zap.Error(err))
		return err
	}
	if err := application.Run(cmd.Context()); err != nil {
		log.Error("app run failed", zap.Error(err))
		return err
	}
	return nil
}
