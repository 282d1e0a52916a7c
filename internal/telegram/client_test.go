package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ykvlv/reminder-bot/internal/notify"
)

type fakeAPI struct {
	calls []tgbotapi.Params
	errs  []error
	resp  *tgbotapi.APIResponse
}

func (f *fakeAPI) MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	p := tgbotapi.Params{"endpoint": endpoint}
	for k, v := range params {
		p[k] = v
	}
	f.calls = append(f.calls, p)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func TestDeliver_SendsThreadAndParseMode(t *testing.T) {
	api := &fakeAPI{}
	c := newClient(api, 0, zaptest.NewLogger(t))

	require.NoError(t, c.Deliver(context.Background(), 42, "<b>hi</b>", notify.FormatHTML, 9))
	require.Len(t, api.calls, 1)
	assert.Equal(t, tgbotapi.Params{
		"endpoint":          "sendMessage",
		"chat_id":           "42",
		"text":              "<b>hi</b>",
		"parse_mode":        "HTML",
		"message_thread_id": "9",
	}, api.calls[0])
}

func TestReply_OmitsEmptyFields(t *testing.T) {
	api := &fakeAPI{}
	c := newClient(api, 0, zaptest.NewLogger(t))

	require.NoError(t, c.Reply(context.Background(), 7, 0, "ok"))
	_, hasThread := api.calls[0]["message_thread_id"]
	_, hasMode := api.calls[0]["parse_mode"]
	assert.False(t, hasThread)
	assert.False(t, hasMode)
}

func TestDeliver_FallsBackToPlainOnMarkupError(t *testing.T) {
	api := &fakeAPI{errs: []error{
		&tgbotapi.Error{Code: 400, Message: "Bad Request: can't parse entities: unclosed tag"},
		nil,
	}}
	c := newClient(api, 0, zaptest.NewLogger(t))

	require.NoError(t, c.Deliver(context.Background(), 1, "<b>oops", notify.FormatHTML, 0))
	require.Len(t, api.calls, 2)
	_, hasMode := api.calls[1]["parse_mode"]
	assert.False(t, hasMode)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want notify.Kind
	}{
		{"blocked", &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}, notify.KindRecipientUnavailable},
		{"kicked", &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was kicked from the group chat"}, notify.KindRecipientUnavailable},
		{"deactivated", &tgbotapi.Error{Code: 403, Message: "Forbidden: user is deactivated"}, notify.KindRecipientUnavailable},
		{"chat not found", &tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"}, notify.KindRecipientUnavailable},
		{"rate limited", &tgbotapi.Error{Code: 429, Message: "Too Many Requests: retry after 5"}, notify.KindTransient},
		{"server error", &tgbotapi.Error{Code: 502, Message: "Bad Gateway"}, notify.KindTransient},
		{"network", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, notify.KindTransient},
		{"bad request", &tgbotapi.Error{Code: 400, Message: "Bad Request: message text is empty"}, notify.KindUnknown},
		{"other", errors.New("weird"), notify.KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classify(tc.err)
			require.Error(t, err)
			assert.Equal(t, tc.want, notify.KindOf(err))
			assert.ErrorIs(t, err, tc.err)
		})
	}
	assert.NoError(t, classify(nil))
}

func TestDecodeUpdates(t *testing.T) {
	raw := json.RawMessage(`[
		{"update_id": 10, "message": {"message_id": 1, "date": 0, "chat": {"id": -100, "type": "supergroup"},
			"text": "/add", "message_thread_id": 55, "is_topic_message": true}},
		{"update_id": 11, "message": {"message_id": 2, "date": 0, "chat": {"id": -100, "type": "supergroup"},
			"text": "reply in thread", "message_thread_id": 3}},
		{"update_id": 12, "message": {"message_id": 3, "date": 0, "chat": {"id": 5, "type": "private"}}},
		{"update_id": 13, "edited_message": {"message_id": 4, "date": 0, "chat": {"id": 5, "type": "private"}, "text": "x"}}
	]`)

	got, next, err := decodeUpdates(raw, 0)
	require.NoError(t, err)
	assert.Equal(t, 14, next)
	assert.Equal(t, []Update{
		{ChatID: -100, ThreadID: 55, Text: "/add"},
		{ChatID: -100, ThreadID: 0, Text: "reply in thread"},
	}, got)
}

func TestPoll_AdvancesOffset(t *testing.T) {
	api := &fakeAPI{resp: &tgbotapi.APIResponse{
		Ok:     true,
		Result: json.RawMessage(`[{"update_id": 7, "message": {"message_id": 1, "date": 0, "chat": {"id": 1, "type": "private"}, "text": "hi"}}]`),
	}}
	c := newClient(api, 0, zaptest.NewLogger(t))

	updates, next, err := c.poll(3, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, next)
	assert.Len(t, updates, 1)
	assert.Equal(t, "3", api.calls[0]["offset"])
	assert.Equal(t, `["message"]`, api.calls[0]["allowed_updates"])
}
