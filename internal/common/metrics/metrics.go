// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatTurnsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_completed_total",
			Help: "Total number of chat turns completed",
		},
		[]string{"agent", "intent"},
	)

	ChatTurnsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_failed_total",
			Help: "Total number of chat turns that ended in an error reply",
		},
		[]string{"agent", "error_code"},
	)

	ChatTurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "chat_turn_duration_seconds",
			Help: "Duration of chat turn processing in seconds",
		},
		[]string{"agent"},
	)

	AgentInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_invocations_total",
			Help: "Total number of agent handler invocations",
		},
		[]string{"agent", "status"},
	)

	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcp_tool_calls_total",
			Help: "Total number of MCP tool calls",
		},
		[]string{"tool", "status"},
	)

	ToolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "mcp_tool_call_duration_seconds",
			Help: "Duration of MCP tool calls in seconds",
		},
		[]string{"tool"},
	)

	KnowledgeRetrievals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knowledge_retrievals_total",
			Help: "Total number of knowledge index retrievals",
		},
		[]string{"mode", "status"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_notifications_total",
			Help: "Total number of support notifications attempted",
		},
		[]string{"channel", "status"},
	)

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of LLM API requests",
		},
		[]string{"operation", "status"},
	)

	SessionCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_cache_requests_total",
			Help: "Session state cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)
