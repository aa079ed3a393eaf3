package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kiranshivaraju/costlab/internal/config"
	"github.com/kiranshivaraju/costlab/pkg/models"
	"github.com/tidwall/gjson"
)

// ErrNoCandidate is returned when a 200 response carries no completion text,
// usually because the prompt or the answer was blocked.
var ErrNoCandidate = errors.New("gemini returned no candidate text")

const maxResponseBytes = 4 << 20

// Provider implements models.LLMProvider using the Gemini generateContent API.
type Provider struct {
	cfg    config.GeminiConfig
	client *http.Client
}

func NewProvider(cfg config.GeminiConfig, timeout time.Duration) *Provider {
	return &Provider{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

func (p *Provider) Name() string { return "gemini" }

func (p *Provider) Model() string { return p.cfg.Model }

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(p.cfg.BaseURL, "/"), url.PathEscape(p.cfg.Model))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("reading gemini response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", providerError(resp.StatusCode, raw)
	}

	var texts []string
	for _, t := range gjson.GetBytes(raw, "candidates.0.content.parts.#.text").Array() {
		texts = append(texts, t.String())
	}
	if len(texts) == 0 {
		reason := gjson.GetBytes(raw, "candidates.0.finishReason").String()
		if reason == "" {
			reason = gjson.GetBytes(raw, "promptFeedback.blockReason").String()
		}
		return "", fmt.Errorf("%w (reason %q)", ErrNoCandidate, reason)
	}
	return strings.Join(texts, ""), nil
}

// providerError decodes a Google API error body:
// {"error": {"code": 429, "message": "...", "status": "RESOURCE_EXHAUSTED"}}
func providerError(status int, raw []byte) *models.ProviderError {
	msg := gjson.GetBytes(raw, "error.message").String()
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	return &models.ProviderError{
		Provider:   "gemini",
		StatusCode: status,
		Code:       gjson.GetBytes(raw, "error.status").String(),
		Message:    msg,
	}
}

var _ models.LLMProvider = (*Provider)(nil)
