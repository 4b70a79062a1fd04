// internal/agents/complaint/config.go
package complaint

import (
	"time"

	"tripwise/internal/common/config"
)

type Config struct {
	Timeout    time.Duration
	MaxRetries int

	EmailEnabled bool
	FromEmail    string
	ToEmail      string

	SMSEnabled        bool
	TopicARN          string
	SeverityThreshold string
}

func LoadConfig(cfg *config.Config) *Config {
	agent := config.GetAgentConfig(cfg, AgentName)

	threshold := cfg.Support.SMS.SeverityThreshold
	if threshold == "" {
		threshold = "high"
	}

	return &Config{
		Timeout:           config.GetDuration(agent.Timeout),
		MaxRetries:        agent.MaxRetries,
		EmailEnabled:      cfg.Support.Email.Enabled,
		FromEmail:         cfg.Support.Email.FromEmail,
		ToEmail:           cfg.Support.Email.ToEmail,
		SMSEnabled:        cfg.Support.SMS.Enabled,
		TopicARN:          cfg.Support.SMS.TopicARN,
		SeverityThreshold: threshold,
	}
}
