// Telegram Bot API client.
//
// DESIGN: A thin wrapper over the HTTP Bot API — long polling via
// getUpdates, plus the handful of send/edit methods the bot uses. Payloads
// are built with sjson and responses parsed with gjson; the API surface the
// bot consumes is tiny and a full SDK would dwarf it.
package bot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const telegramAPIBase = "https://api.telegram.org"

// Button is one inline-keyboard button.
type Button struct {
	Text         string
	CallbackData string
}

// Sender is the outbound half of the Telegram API, split out so handlers can
// be tested against a fake.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendMessageKB(ctx context.Context, chatID int64, text string, keyboard [][]Button) error
	EditMessage(ctx context.Context, chatID, messageID int64, text string, keyboard [][]Button) error
	AnswerCallback(ctx context.Context, callbackID string) error
	SendChatAction(ctx context.Context, chatID int64, action string) error
}

// API talks to the Telegram Bot API over HTTP.
type API struct {
	token  string
	base   string
	client *http.Client
}

// NewAPI creates a client. pollTimeout bounds the long-poll wait; the HTTP
// timeout is set above it so a full poll never errors.
func NewAPI(token string, pollTimeout time.Duration) *API {
	return &API{
		token:  token,
		base:   telegramAPIBase,
		client: &http.Client{Timeout: pollTimeout + 15*time.Second},
	}
}

// call invokes one Bot API method and returns the result field.
func (a *API) call(ctx context.Context, method string, payload []byte) (gjson.Result, error) {
	url := fmt.Sprintf("%s/bot%s/%s", a.base, a.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, err
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.Get("ok").Bool() {
		return gjson.Result{}, fmt.Errorf("telegram %s failed (status %d): %s",
			method, resp.StatusCode, parsed.Get("description").String())
	}
	return parsed.Get("result"), nil
}

// GetUpdates long-polls for updates after offset.
func (a *API) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]gjson.Result, error) {
	payload, _ := sjson.SetBytes(nil, "offset", offset)
	payload, _ = sjson.SetBytes(payload, "timeout", int64(timeout.Seconds()))
	payload, _ = sjson.SetBytes(payload, "allowed_updates", []string{"message", "callback_query"})

	result, err := a.call(ctx, "getUpdates", payload)
	if err != nil {
		return nil, err
	}
	return result.Array(), nil
}

func keyboardJSON(payload []byte, keyboard [][]Button) []byte {
	if len(keyboard) == 0 {
		return payload
	}
	for i, row := range keyboard {
		for j, b := range row {
			path := fmt.Sprintf("reply_markup.inline_keyboard.%d.%d", i, j)
			payload, _ = sjson.SetBytes(payload, path+".text", b.Text)
			payload, _ = sjson.SetBytes(payload, path+".callback_data", b.CallbackData)
		}
	}
	return payload
}

// SendMessage sends a plain text message.
func (a *API) SendMessage(ctx context.Context, chatID int64, text string) error {
	return a.SendMessageKB(ctx, chatID, text, nil)
}

// SendMessageKB sends a text message with an optional inline keyboard.
func (a *API) SendMessageKB(ctx context.Context, chatID int64, text string, keyboard [][]Button) error {
	payload, _ := sjson.SetBytes(nil, "chat_id", chatID)
	payload, _ = sjson.SetBytes(payload, "text", text)
	payload = keyboardJSON(payload, keyboard)

	_, err := a.call(ctx, "sendMessage", payload)
	return err
}

// EditMessage replaces the text (and keyboard) of a previously sent message.
func (a *API) EditMessage(ctx context.Context, chatID, messageID int64, text string, keyboard [][]Button) error {
	payload, _ := sjson.SetBytes(nil, "chat_id", chatID)
	payload, _ = sjson.SetBytes(payload, "message_id", messageID)
	payload, _ = sjson.SetBytes(payload, "text", text)
	payload = keyboardJSON(payload, keyboard)

	_, err := a.call(ctx, "editMessageText", payload)
	return err
}

// AnswerCallback acknowledges a callback query so the client stops its
// spinner.
func (a *API) AnswerCallback(ctx context.Context, callbackID string) error {
	payload, _ := sjson.SetBytes(nil, "callback_query_id", callbackID)
	_, err := a.call(ctx, "answerCallbackQuery", payload)
	return err
}

// SendChatAction shows a transient status like "typing".
func (a *API) SendChatAction(ctx context.Context, chatID int64, action string) error {
	payload, _ := sjson.SetBytes(nil, "chat_id", chatID)
	payload, _ = sjson.SetBytes(payload, "action", action)
	_, err := a.call(ctx, "sendChatAction", payload)
	return err
}
