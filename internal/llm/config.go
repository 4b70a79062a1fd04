// internal/llm/config.go
package llm

import (
	"time"

	"tripwise/internal/common/config"
)

type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	EmbeddingModel string
	Temperature    float64
	MaxTokens      int
	Timeout        time.Duration
	MaxRetries     int
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		BaseURL:        cfg.OpenAI.BaseURL,
		APIKey:         cfg.OpenAI.APIKey,
		Model:          cfg.OpenAI.Model,
		EmbeddingModel: cfg.OpenAI.EmbeddingModel,
		Temperature:    cfg.OpenAI.Temperature,
		MaxTokens:      cfg.OpenAI.MaxTokens,
		Timeout:        config.GetDuration(cfg.OpenAI.Timeout),
		MaxRetries:     cfg.OpenAI.MaxRetries,
	}
}
