package llm

import (
	"fmt"

	"github.com/kiranshivaraju/costlab/internal/config"
	"github.com/kiranshivaraju/costlab/internal/llm/gemini"
	"github.com/kiranshivaraju/costlab/internal/llm/openai"
	"github.com/kiranshivaraju/costlab/pkg/models"
)

// NewProvider constructs the provider selected by cfg.Provider.
// Called once at startup.
func NewProvider(cfg config.AIConfig) (models.LLMProvider, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return gemini.NewProvider(cfg.Gemini, cfg.Timeout), nil
	case config.ProviderOpenAI:
		return openai.NewProvider(cfg.OpenAI, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of gemini, openai", cfg.Provider)
	}
}
