package telegram

import (
	"errors"
	"net"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ykvlv/reminder-bot/internal/notify"
)

// Bot API descriptions that mean the chat can no longer receive messages.
var unavailablePhrases = []string{
	"bot was blocked",
	"bot was kicked",
	"chat not found",
	"user is deactivated",
	"bot is not a member",
	"group chat was upgraded",
}

// classify wraps a Bot API error into a *notify.DeliveryError.
func classify(err error) error {
	if err == nil {
		return nil
	}
	kind := notify.KindUnknown
	var apiErr *tgbotapi.Error
	switch {
	case errors.As(err, &apiErr):
		kind = kindForAPIError(apiErr.Code, apiErr.Message)
	case isNetworkError(err):
		kind = notify.KindTransient
	}
	return &notify.DeliveryError{Kind: kind, Err: err}
}

func kindForAPIError(code int, description string) notify.Kind {
	desc := strings.ToLower(description)
	for _, p := range unavailablePhrases {
		if strings.Contains(desc, p) {
			return notify.KindRecipientUnavailable
		}
	}
	switch {
	case code == http.StatusForbidden:
		return notify.KindRecipientUnavailable
	case code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
		return notify.KindTransient
	default:
		return notify.KindUnknown
	}
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}
