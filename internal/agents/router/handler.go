// internal/agents/router/handler.go
package router

import (
	"context"
	"fmt"
	"strings"

	"tripwise/internal/llm"
	"tripwise/internal/models"
)

const (
	AgentName = "router"

	historyWindow = 6
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// LLMClient is the slice of the LLM client the router needs.
type LLMClient interface {
	CompleteJSON(ctx context.Context, messages []llm.Message, out interface{}) error
}

const systemPrompt = `You classify travel assistant messages into exactly one intent.
Intents:
- booking: the user wants to search for or book a flight
- complaint: the user reports a problem, loss or bad experience
- information: the user asks about policies, rules or general travel facts
- general: anything else
Respond with JSON only: {"intent": "<intent>", "confidence": <0..1>}`

// Handler classifies a user message into a routing intent. Classification
// failures never surface to the caller: the keyword fallback always produces
// a decision.
type Handler struct {
	config *Config
	llm    LLMClient
	logger Logger
}

func NewHandler(config *Config, client LLMClient, log Logger) *Handler {
	return &Handler{
		config: config,
		llm:    client,
		logger: log.With(map[string]interface{}{
			"agent": AgentName,
		}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	routing, err := h.classify(ctx, input)
	if err != nil {
		h.logger.Warn("classification failed, using keyword fallback", map[string]interface{}{
			"error": err.Error(),
		})
		routing = keywordRoute(input.Message)
	}

	h.logger.Info("message routed", map[string]interface{}{
		"intent":     string(routing.Intent),
		"confidence": routing.Confidence,
		"fallback":   routing.Fallback,
	})
	return &Output{Routing: routing}, nil
}

func (h *Handler) classify(ctx context.Context, input *Input) (models.Routing, error) {
	messages := []llm.Message{{Role: "system", Content: systemPrompt}}

	history := input.History
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: input.Message})

	var decision struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	}
	if err := h.llm.CompleteJSON(ctx, messages, &decision); err != nil {
		return models.Routing{}, err
	}

	intent := models.Intent(strings.ToLower(strings.TrimSpace(decision.Intent)))
	if !intent.IsValid() {
		return models.Routing{}, fmt.Errorf("unknown intent %q", decision.Intent)
	}

	return models.Routing{
		Intent:     intent,
		Confidence: clamp(decision.Confidence),
	}, nil
}

var intentKeywords = map[models.Intent][]string{
	models.IntentBooking: {
		"book", "flight", "fly", "ticket", "seat", "depart", "one-way", "round trip",
	},
	models.IntentComplaint: {
		"complaint", "complain", "lost", "damaged", "delayed", "refund me",
		"terrible", "awful", "unacceptable", "angry",
	},
	models.IntentInformation: {
		"policy", "baggage", "allowance", "visa", "refund policy",
		"how much", "how many", "what is", "can i",
	},
}

// keywordRoute scores the message against per-intent keyword lists. Ties and
// zero scores fall back to the general intent.
func keywordRoute(message string) models.Routing {
	lowered := strings.ToLower(message)

	best := models.IntentGeneral
	bestScore := 0
	for _, intent := range []models.Intent{models.IntentBooking, models.IntentComplaint, models.IntentInformation} {
		score := 0
		for _, keyword := range intentKeywords[intent] {
			if strings.Contains(lowered, keyword) {
				score++
			}
		}
		if score > bestScore {
			best = intent
			bestScore = score
		}
	}

	confidence := 0.3
	if bestScore > 0 {
		confidence = clamp(0.4 + 0.15*float64(bestScore))
	}

	return models.Routing{
		Intent:     best,
		Confidence: confidence,
		Fallback:   true,
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
