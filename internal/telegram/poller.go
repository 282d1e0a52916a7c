package telegram

import (
	"context"
	"encoding/json"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const pollRetryDelay = 3 * time.Second

// Update is an inbound text message.
type Update struct {
	ChatID   int64
	ThreadID int // forum topic, 0 outside topics
	Text     string
}

// incomingMessage adds the topic id the library's Message does not decode.
type incomingMessage struct {
	tgbotapi.Message
	ThreadID int  `json:"message_thread_id"`
	IsTopic  bool `json:"is_topic_message"`
}

type incomingUpdate struct {
	UpdateID int              `json:"update_id"`
	Message  *incomingMessage `json:"message"`
}

// Updates long-polls getUpdates until ctx is canceled. The channel is
// closed when polling stops.
func (c *Client) Updates(ctx context.Context, timeout time.Duration) <-chan Update {
	ch := make(chan Update, 64)
	go func() {
		defer close(ch)
		offset := 0
		for ctx.Err() == nil {
			batch, next, err := c.poll(offset, timeout)
			if err != nil {
				c.log.Warn("getUpdates failed, retrying", zap.Error(err), zap.Duration("delay", pollRetryDelay))
				select {
				case <-ctx.Done():
					return
				case <-time.After(pollRetryDelay):
				}
				continue
			}
			offset = next
			for _, u := range batch {
				select {
				case ch <- u:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch
}

func (c *Client) poll(offset int, timeout time.Duration) ([]Update, int, error) {
	params := tgbotapi.Params{}
	params.AddNonZero("offset", offset)
	params.AddNonZero("timeout", int(timeout.Seconds()))
	if err := params.AddInterface("allowed_updates", []string{"message"}); err != nil {
		return nil, offset, err
	}

	resp, err := c.api.MakeRequest("getUpdates", params)
	if err != nil {
		return nil, offset, err
	}
	return decodeUpdates(resp.Result, offset)
}

// decodeUpdates extracts text messages and returns the next offset.
func decodeUpdates(raw json.RawMessage, offset int) ([]Update, int, error) {
	var batch []incomingUpdate
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil, offset, err
	}
	var out []Update
	for _, u := range batch {
		if u.UpdateID >= offset {
			offset = u.UpdateID + 1
		}
		if u.Message == nil || u.Message.Chat == nil || u.Message.Text == "" {
			continue
		}
		thread := 0
		if u.Message.IsTopic {
			thread = u.Message.ThreadID
		}
		out = append(out, Update{
			ChatID:   u.Message.Chat.ID,
			ThreadID: thread,
			Text:     u.Message.Text,
		})
	}
	return out, offset, nil
}
