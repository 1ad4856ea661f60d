package llm

import (
	"context"

	"github.com/nikogura/cv-coach/pkg/config"
	"github.com/pkg/errors"
)

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (text string, err error)
}

// NewGenerator returns the client for the configured provider.
func NewGenerator(ctx context.Context, cfg config.Config) (gen Generator, err error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		gen, err = NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GetGenerationModel())
	case config.ProviderClaude, "":
		gen = NewClaudeClient(cfg.AnthropicAPIKey, cfg.GetGenerationModel())
	default:
		err = errors.Errorf("unknown provider %q", cfg.Provider)
	}
	return gen, err
}
