// internal/agents/booking/config.go
package booking

import (
	"time"

	"tripwise/internal/common/config"
)

type Config struct {
	Timeout    time.Duration
	MaxRetries int
	MaxResults int
}

func LoadConfig(cfg *config.Config) *Config {
	agent := config.GetAgentConfig(cfg, AgentName)
	return &Config{
		Timeout:    config.GetDuration(agent.Timeout),
		MaxRetries: agent.MaxRetries,
		MaxResults: 5,
	}
}
