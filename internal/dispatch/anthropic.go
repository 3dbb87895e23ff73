package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kenyap/quotabot/internal/utils"
)

const defaultAnthropicEndpoint = "https://api.anthropic.com/v1/messages"

// Anthropic generates replies through the Anthropic Messages API.
type Anthropic struct {
	apiKey    string
	endpoint  string
	model     string
	maxTokens int
	client    *http.Client
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// NewAnthropic creates a client bound to one model.
func NewAnthropic(apiKey, endpoint, model string, maxTokens int, timeout time.Duration) *Anthropic {
	if endpoint == "" {
		endpoint = defaultAnthropicEndpoint
	}
	return &Anthropic{
		apiKey:    apiKey,
		endpoint:  endpoint,
		model:     model,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: timeout},
	}
}

func (a *Anthropic) Generate(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: text}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	requestID := uuid.NewString()
	log.Debug().Str("request_id", requestID).Str("model", a.model).
		Str("api_key", utils.MaskKey(a.apiKey)).Msg("dispatching to anthropic")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("anthropic api error (status %d): %s", resp.StatusCode, respBody)
	}

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("anthropic api returned no content")
	}
	return parsed.Content[0].Text, nil
}
