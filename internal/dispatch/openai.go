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

const defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"

// OpenAI generates replies through the OpenAI chat-completions API. Deepseek
// speaks the same protocol; its provider config points the endpoint at
// api.deepseek.com.
type OpenAI struct {
	apiKey    string
	endpoint  string
	model     string
	maxTokens int
	client    *http.Client
}

type openaiRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []openaiMessage `json:"messages"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenAI creates a client bound to one model.
func NewOpenAI(apiKey, endpoint, model string, maxTokens int, timeout time.Duration) *OpenAI {
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}
	return &OpenAI{
		apiKey:    apiKey,
		endpoint:  endpoint,
		model:     model,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: timeout},
	}
}

func (o *OpenAI) Generate(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(openaiRequest{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		Messages:  []openaiMessage{{Role: "user", Content: text}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	requestID := uuid.NewString()
	log.Debug().Str("request_id", requestID).Str("model", o.model).
		Str("api_key", utils.MaskKey(o.apiKey)).Msg("dispatching to openai endpoint")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat completions api error (status %d): %s", resp.StatusCode, respBody)
	}

	var parsed openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completions api returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
