package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenyap/quotabot/internal/config"
)

type fakeGenerator struct {
	reply string
}

func (f fakeGenerator) Generate(context.Context, string) (string, error) {
	return f.reply, nil
}

func TestRegistry_RegisterAndDispatch(t *testing.T) {
	r := NewRegistry()
	r.Register("Claude", "claude-3-5-haiku-20241022", fakeGenerator{reply: "hi"})

	reply, err := r.Dispatch(context.Background(), "Claude", "claude-3-5-haiku-20241022", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi", reply)
}

func TestRegistry_UnknownModel(t *testing.T) {
	r := NewRegistry()
	_, err := r.Dispatch(context.Background(), "Claude", "nope", "hello")
	assert.ErrorContains(t, err, "no model registered")
}

func TestFromConfig_RegistersEveryModel(t *testing.T) {
	t.Setenv("TELE_API_KEY", "123:abc")
	cfg, err := config.Load("")
	require.NoError(t, err)

	r, err := FromConfig(cfg)
	require.NoError(t, err)

	for name, p := range cfg.Providers {
		for _, m := range p.Models {
			_, ok := r.Get(name, m.ID)
			assert.True(t, ok, "%s/%s not registered", name, m.ID)
		}
	}
}

func TestFromConfig_UnsupportedAPI(t *testing.T) {
	cfg := config.Default()
	cfg.Providers = map[string]config.ProviderConfig{
		"Odd": {API: "soap", Models: []config.ModelConfig{{Name: "M", ID: "m"}}},
	}

	_, err := FromConfig(cfg)
	assert.ErrorContains(t, err, "unsupported api")
}

func TestAnthropic_Generate(t *testing.T) {
	var gotVersion, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.Header.Get("anthropic-version")
		gotKey = r.Header.Get("x-api-key")

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-3-5-haiku-20241022", req.Model)
		assert.Equal(t, 2048, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"the reply"}]}`))
	}))
	defer server.Close()

	c := NewAnthropic("test-key", server.URL, "claude-3-5-haiku-20241022", 2048, 5*time.Second)
	reply, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, "the reply", reply)
	assert.Equal(t, "2023-06-01", gotVersion)
	assert.Equal(t, "test-key", gotKey)
}

func TestAnthropic_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"type":"overloaded_error"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewAnthropic("k", server.URL, "m", 100, 5*time.Second)
	_, err := c.Generate(context.Background(), "hello")
	assert.ErrorContains(t, err, "status 429")
}

func TestAnthropic_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	c := NewAnthropic("k", server.URL, "m", 100, 5*time.Second)
	_, err := c.Generate(context.Background(), "hello")
	assert.ErrorContains(t, err, "no content")
}

func TestOpenAI_Generate(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req openaiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hey there"}}]}`))
	}))
	defer server.Close()

	c := NewOpenAI("test-key", server.URL, "gpt-4o-mini", 2048, 5*time.Second)
	reply, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, "hey there", reply)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestOpenAI_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	c := NewOpenAI("k", server.URL, "m", 100, 5*time.Second)
	_, err := c.Generate(context.Background(), "hello")
	assert.ErrorContains(t, err, "no choices")
}

func TestOpenAI_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := NewOpenAI("k", server.URL, "m", 100, 5*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Generate(ctx, "hello")
	assert.Error(t, err)
}
