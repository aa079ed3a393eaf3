package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kiranshivaraju/costlab/internal/config"
	"github.com/kiranshivaraju/costlab/pkg/models"
	"github.com/tidwall/gjson"
)

// ErrNoChoice is returned when a 200 response carries no message content.
var ErrNoChoice = errors.New("openai returned no choices")

const (
	systemPrompt     = "You are a GCP cost optimization expert."
	temperature      = 0.3
	maxResponseBytes = 4 << 20
)

// Provider implements models.LLMProvider using the OpenAI chat completions API.
type Provider struct {
	cfg    config.OpenAIConfig
	client *http.Client
}

func NewProvider(cfg config.OpenAIConfig, timeout time.Duration) *Provider {
	return &Provider{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) Model() string { return p.cfg.Model }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.cfg.Model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	u := strings.TrimRight(p.cfg.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("reading openai response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", providerError(resp.StatusCode, raw)
	}

	content := gjson.GetBytes(raw, "choices.0.message.content")
	if !content.Exists() {
		return "", ErrNoChoice
	}
	return content.String(), nil
}

// providerError decodes an OpenAI error body:
// {"error": {"message": "...", "type": "invalid_request_error", "code": "invalid_api_key"}}
func providerError(status int, raw []byte) *models.ProviderError {
	msg := gjson.GetBytes(raw, "error.message").String()
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	code := gjson.GetBytes(raw, "error.code").String()
	if code == "" {
		code = gjson.GetBytes(raw, "error.type").String()
	}
	return &models.ProviderError{
		Provider:   "openai",
		StatusCode: status,
		Code:       code,
		Message:    msg,
	}
}

var _ models.LLMProvider = (*Provider)(nil)
