package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ykvlv/reminder-bot/internal/notify"
)

// Requester is the subset of *tgbotapi.BotAPI the client uses.
type Requester interface {
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

// Client sends messages through the Bot API. Outgoing requests share one
// rate limiter so reminders firing together stay under Telegram's limits.
type Client struct {
	api     Requester
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewClient authenticates against the Bot API with token.
func NewClient(token string, sendPerSec float64, log *zap.Logger) (*Client, *tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, nil, err
	}
	bot.Debug = false
	return newClient(bot, sendPerSec, log), bot, nil
}

func newClient(api Requester, sendPerSec float64, log *zap.Logger) *Client {
	limit := rate.Inf
	if sendPerSec > 0 {
		limit = rate.Limit(sendPerSec)
	}
	return &Client{api: api, limiter: rate.NewLimiter(limit, 1), log: log}
}

// Deliver sends a reminder. Rejected markup is retried once as plain text.
// It satisfies notify.Deliverer.
func (c *Client) Deliver(ctx context.Context, chatID int64, text string, format notify.Format, threadID int) error {
	err := c.send(ctx, chatID, threadID, text, string(format))
	if err != nil && format != notify.FormatPlain && isMarkupError(err) {
		c.log.Warn("markup rejected, resending as plain text", zap.Int64("chatID", chatID), zap.Error(err))
		err = c.send(ctx, chatID, threadID, text, "")
	}
	return err
}

// Reply sends a plain text answer to a conversation step.
func (c *Client) Reply(ctx context.Context, chatID int64, threadID int, text string) error {
	return c.send(ctx, chatID, threadID, text, "")
}

func (c *Client) send(ctx context.Context, chatID int64, threadID int, text, parseMode string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &notify.DeliveryError{Kind: notify.KindTransient, Err: err}
	}

	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", chatID)
	params["text"] = text
	params.AddNonEmpty("parse_mode", parseMode)
	params.AddNonZero("message_thread_id", threadID)

	_, err := c.api.MakeRequest("sendMessage", params)
	return classify(err)
}

func isMarkupError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "can't parse entities")
}
