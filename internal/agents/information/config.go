// internal/agents/information/config.go
package information

import (
	"time"

	"tripwise/internal/common/config"
)

type Config struct {
	Timeout    time.Duration
	MaxRetries int
	TopK       int
}

func LoadConfig(cfg *config.Config) *Config {
	agent := config.GetAgentConfig(cfg, AgentName)

	topK := cfg.Knowledge.TopK
	if topK <= 0 {
		topK = 4
	}

	return &Config{
		Timeout:    config.GetDuration(agent.Timeout),
		MaxRetries: agent.MaxRetries,
		TopK:       topK,
	}
}
