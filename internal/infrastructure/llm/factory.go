package llm

import (
	"fmt"

	"ArticleClassifier/internal/config"
	"ArticleClassifier/internal/ports"
)

// New returns the text generator for the configured provider.
func New(cfg config.ClassifierConfig) (ports.TextGenerator, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(cfg), nil
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg), nil
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported classifier provider: %q", cfg.Provider)
	}
}
