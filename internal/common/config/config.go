// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig              `mapstructure:"app"`
	Server    ServerConfig           `mapstructure:"server"`
	Database  DatabaseConfig         `mapstructure:"database"`
	Session   SessionConfig          `mapstructure:"session"`
	Knowledge KnowledgeConfig        `mapstructure:"knowledge"`
	OpenAI    OpenAIConfig           `mapstructure:"openai"`
	MCP       MCPConfig              `mapstructure:"mcp"`
	Agents    map[string]AgentConfig `mapstructure:"agents"`
	Support   SupportConfig          `mapstructure:"support"`
	Logging   LoggingConfig          `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
	SQLite        SQLiteConfig        `mapstructure:"sqlite"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// SessionConfig holds session store settings.
type SessionConfig struct {
	TTL              int `mapstructure:"ttl"`               // seconds of inactivity before expiry
	CacheTTL         int `mapstructure:"cache_ttl"`         // seconds a cached state entry lives
	TranscriptWindow int `mapstructure:"transcript_window"` // messages of context per turn
}

// KnowledgeConfig holds settings for the travel knowledge index.
type KnowledgeConfig struct {
	Index         string `mapstructure:"index"`
	EmbeddingDims int    `mapstructure:"embedding_dims"`
	TopK          int    `mapstructure:"top_k"`
	ChunkSize     int    `mapstructure:"chunk_size"` // characters per document chunk
}

// OpenAIConfig holds settings for the OpenAI-compatible LLM API.
type OpenAIConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	APIKey         string  `mapstructure:"api_key"`
	Model          string  `mapstructure:"model"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	Temperature    float64 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	Timeout        int     `mapstructure:"timeout"` // milliseconds
	MaxRetries     int     `mapstructure:"max_retries"`
}

// MCPConfig holds settings for the flight MCP server and its client.
type MCPConfig struct {
	ServerAddress string `mapstructure:"server_address"` // listen address for cmd/flight-mcp
	URL           string `mapstructure:"url"`            // endpoint the booking agent calls
	Timeout       int    `mapstructure:"timeout"`        // milliseconds
	MaxRetries    int    `mapstructure:"max_retries"`
}

// AgentConfig holds the core settings applicable to every agent.
type AgentConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	Timeout    int  `mapstructure:"timeout"` // milliseconds
	MaxRetries int  `mapstructure:"max_retries"`
}

// SupportConfig holds settings for complaint notifications.
type SupportConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		ToEmail   string `mapstructure:"to_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled           bool   `mapstructure:"enabled"`
		TopicARN          string `mapstructure:"topic_arn"`
		SeverityThreshold string `mapstructure:"severity_threshold"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
