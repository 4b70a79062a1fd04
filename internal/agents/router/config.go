// internal/agents/router/config.go
package router

import (
	"time"

	"tripwise/internal/common/config"
)

type Config struct {
	Timeout    time.Duration
	MaxRetries int
}

func LoadConfig(cfg *config.Config) *Config {
	agent := config.GetAgentConfig(cfg, AgentName)
	return &Config{
		Timeout:    config.GetDuration(agent.Timeout),
		MaxRetries: agent.MaxRetries,
	}
}
