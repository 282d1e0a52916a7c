package secrets

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service  = "reminder-bot"
	tokenKey = "bot_token"
)

var (
	// ErrNotFound is returned when no token is stored in the keyring.
	ErrNotFound = errors.New("bot token not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring cannot be reached.
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// BotToken reads the bot token from the OS keyring.
func BotToken() (string, error) {
	token, err := keyring.Get(service, tokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return token, nil
}

// SetBotToken stores the bot token in the OS keyring.
func SetBotToken(token string) error {
	if token == "" {
		return errors.New("bot token cannot be empty")
	}
	if err := keyring.Set(service, tokenKey, token); err != nil {
		return fmt.Errorf("store bot token in keyring: %w", err)
	}
	return nil
}

// DeleteBotToken removes the bot token from the OS keyring.
func DeleteBotToken() error {
	if err := keyring.Delete(service, tokenKey); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete bot token from keyring: %w", err)
	}
	return nil
}
