// internal/agents/complaint/handler.go
package complaint

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tripwise/internal/llm"
	"tripwise/internal/models"
)

const AgentName = "complaint"

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// LLMClient is the slice of the LLM client the complaint agent needs.
type LLMClient interface {
	CompleteJSON(ctx context.Context, messages []llm.Message, out interface{}) error
}

// ComplaintCreator persists filed complaints.
type ComplaintCreator interface {
	CreateComplaint(ctx context.Context, complaint *models.Complaint) error
}

const classifyPrompt = `You triage travel complaints.
Categories: baggage, delay, refund, service, other.
Severity: low, normal, high. Use high only for lost luggage, missed connections
with real cost, or safety issues.
Respond with JSON only:
{"category": "<category>", "severity": "<severity>", "summary": "<one sentence>"}`

// Handler files complaint records and notifies the support channel. The
// notification path is best effort: its failures are logged and counted,
// never returned to the user.
type Handler struct {
	config   *Config
	llm      LLMClient
	repo     ComplaintCreator
	notifier *Notifier
	logger   Logger
}

func NewHandler(config *Config, client LLMClient, repo ComplaintCreator, notifier *Notifier, log Logger) *Handler {
	return &Handler{
		config:   config,
		llm:      client,
		repo:     repo,
		notifier: notifier,
		logger: log.With(map[string]interface{}{
			"agent": AgentName,
		}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	verdict := h.classify(ctx, input.Message)

	record := &models.Complaint{
		CaseNumber: NewCaseNumber(),
		SessionID:  input.SessionID,
		Category:   verdict.Category,
		Severity:   verdict.Severity,
		Summary:    verdict.Summary,
		Status:     models.ComplaintStatusOpen,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.repo.CreateComplaint(ctx, record); err != nil {
		return nil, err
	}

	h.logger.Info("complaint filed", map[string]interface{}{
		"caseNumber": record.CaseNumber,
		"category":   record.Category,
		"severity":   record.Severity,
	})

	if h.notifier != nil {
		h.notifier.NotifyComplaint(ctx, record)
	}

	state := input.State
	if state == nil {
		state = models.State{}
	}
	state["lastCaseNumber"] = record.CaseNumber

	return &Output{
		Reply: fmt.Sprintf(
			"I'm sorry you had this experience. I've filed your %s complaint under case number %s and our support team will follow up. Is there anything else I can help with?",
			record.Category, record.CaseNumber,
		),
		State: state,
	}, nil
}

func (h *Handler) classify(ctx context.Context, message string) classification {
	var verdict classification
	err := h.llm.CompleteJSON(ctx, []llm.Message{
		{Role: "system", Content: classifyPrompt},
		{Role: "user", Content: message},
	}, &verdict)
	if err != nil {
		h.logger.Warn("classification failed, using keyword fallback", map[string]interface{}{
			"error": err.Error(),
		})
		return keywordClassify(message)
	}

	verdict.Category = strings.ToLower(strings.TrimSpace(verdict.Category))
	verdict.Severity = strings.ToLower(strings.TrimSpace(verdict.Severity))
	if !validCategory(verdict.Category) {
		verdict.Category = models.ComplaintCategoryOther
	}
	if !validSeverity(verdict.Severity) {
		verdict.Severity = models.SeverityNormal
	}
	if verdict.Summary == "" {
		verdict.Summary = summarize(message)
	}
	return verdict
}

var categoryKeywords = map[string][]string{
	models.ComplaintCategoryBaggage: {"bag", "baggage", "luggage", "suitcase"},
	models.ComplaintCategoryDelay:   {"delay", "delayed", "late", "missed connection"},
	models.ComplaintCategoryRefund:  {"refund", "money back", "charge", "charged"},
	models.ComplaintCategoryService: {"staff", "rude", "service", "crew"},
}

var highSeverityKeywords = []string{"lost", "stolen", "missed my", "injur", "unsafe", "emergency"}

func keywordClassify(message string) classification {
	lowered := strings.ToLower(message)

	category := models.ComplaintCategoryOther
	bestScore := 0
	for _, candidate := range []string{
		models.ComplaintCategoryBaggage,
		models.ComplaintCategoryDelay,
		models.ComplaintCategoryRefund,
		models.ComplaintCategoryService,
	} {
		score := 0
		for _, keyword := range categoryKeywords[candidate] {
			if strings.Contains(lowered, keyword) {
				score++
			}
		}
		if score > bestScore {
			category = candidate
			bestScore = score
		}
	}

	severity := models.SeverityNormal
	for _, keyword := range highSeverityKeywords {
		if strings.Contains(lowered, keyword) {
			severity = models.SeverityHigh
			break
		}
	}

	return classification{
		Category: category,
		Severity: severity,
		Summary:  summarize(message),
	}
}

func validCategory(category string) bool {
	switch category {
	case models.ComplaintCategoryBaggage, models.ComplaintCategoryDelay,
		models.ComplaintCategoryRefund, models.ComplaintCategoryService,
		models.ComplaintCategoryOther:
		return true
	}
	return false
}

func validSeverity(severity string) bool {
	switch severity {
	case models.SeverityLow, models.SeverityNormal, models.SeverityHigh:
		return true
	}
	return false
}

func summarize(message string) string {
	trimmed := strings.TrimSpace(message)
	runes := []rune(trimmed)
	if len(runes) > 200 {
		return string(runes[:200])
	}
	return trimmed
}

// NewCaseNumber builds a CMP-XXXXXXXX case number from a fresh uuid.
func NewCaseNumber() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "CMP-" + id[:8]
}
