package bot

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) *API {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &API{
		token:  "test-token",
		base:   server.URL,
		client: server.Client(),
	}
}

func TestAPI_SendMessage(t *testing.T) {
	var gotPath string
	var gotBody gjson.Result
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = gjson.ParseBytes(body)
		w.Write([]byte(`{"ok": true, "result": {"message_id": 1}}`))
	})

	err := api.SendMessage(context.Background(), 42, "hello")
	require.NoError(t, err)

	assert.Equal(t, "/bottest-token/sendMessage", gotPath)
	assert.Equal(t, int64(42), gotBody.Get("chat_id").Int())
	assert.Equal(t, "hello", gotBody.Get("text").String())
	assert.False(t, gotBody.Get("reply_markup").Exists())
}

func TestAPI_SendMessageKB_BuildsInlineKeyboard(t *testing.T) {
	var gotBody gjson.Result
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = gjson.ParseBytes(body)
		w.Write([]byte(`{"ok": true, "result": {}}`))
	})

	keyboard := [][]Button{
		{{Text: "Claude", CallbackData: "provider_Claude"}},
		{{Text: "Back", CallbackData: "back_to_main"}, {Text: "Random", CallbackData: "random"}},
	}
	err := api.SendMessageKB(context.Background(), 42, "pick one", keyboard)
	require.NoError(t, err)

	rows := gotBody.Get("reply_markup.inline_keyboard")
	require.True(t, rows.IsArray())
	assert.Equal(t, "Claude", rows.Get("0.0.text").String())
	assert.Equal(t, "provider_Claude", rows.Get("0.0.callback_data").String())
	assert.Equal(t, "Random", rows.Get("1.1.text").String())
}

func TestAPI_EditMessage(t *testing.T) {
	var gotPath string
	var gotBody gjson.Result
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = gjson.ParseBytes(body)
		w.Write([]byte(`{"ok": true, "result": {}}`))
	})

	err := api.EditMessage(context.Background(), 42, 7, "updated", nil)
	require.NoError(t, err)

	assert.Equal(t, "/bottest-token/editMessageText", gotPath)
	assert.Equal(t, int64(7), gotBody.Get("message_id").Int())
	assert.Equal(t, "updated", gotBody.Get("text").String())
}

func TestAPI_GetUpdates(t *testing.T) {
	var gotBody gjson.Result
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = gjson.ParseBytes(body)
		w.Write([]byte(`{"ok": true, "result": [
			{"update_id": 100, "message": {"text": "a"}},
			{"update_id": 101, "message": {"text": "b"}}
		]}`))
	})

	updates, err := api.GetUpdates(context.Background(), 100, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, int64(100), gotBody.Get("offset").Int())
	assert.Equal(t, int64(30), gotBody.Get("timeout").Int())
	assert.Equal(t, int64(101), updates[1].Get("update_id").Int())
}

func TestAPI_ErrorResponse(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"ok": false, "error_code": 403, "description": "Forbidden: bot was blocked by the user"}`))
	})

	err := api.SendMessage(context.Background(), 42, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot was blocked")
	assert.Contains(t, err.Error(), "403")
}
