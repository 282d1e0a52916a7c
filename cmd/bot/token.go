package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ykvlv/reminder-bot/internal/secrets"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the bot token stored in the OS keyring",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set [token]",
	Short: "Store the bot token in the OS keyring",
	Long: `Store the bot token in the OS keyring. BOT_TOKEN, when set, still wins.

Examples:
  reminder-bot token set 123456:ABC-DEF

  # Read from stdin to keep it out of shell history
  pass show telegram/bot | reminder-bot token set`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTokenSet,
}

var tokenDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the bot token from the OS keyring",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		err := secrets.DeleteBotToken()
		if errors.Is(err, secrets.ErrNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "no token stored")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "token deleted")
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenSetCmd)
	tokenCmd.AddCommand(tokenDeleteCmd)
}

func runTokenSet(cmd *cobra.Command, args []string) error {
	var token string
	if len(args) == 1 {
		token = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read token from stdin: %w", err)
		}
		token = line
	}
	if err := secrets.SetBotToken(strings.TrimSpace(token)); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "token stored")
	return nil
}
