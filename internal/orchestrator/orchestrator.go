// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"tripwise/internal/agents/booking"
	"tripwise/internal/agents/complaint"
	"tripwise/internal/agents/information"
	"tripwise/internal/agents/router"
	"tripwise/internal/common/config"
	"tripwise/internal/common/errors"
	"tripwise/internal/common/metrics"
	"tripwise/internal/common/observability"
	"tripwise/internal/models"
	"tripwise/internal/session"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Agent interfaces keep the handlers swappable in tests.
type RouterAgent interface {
	Execute(ctx context.Context, input *router.Input) (*router.Output, error)
}

type BookingAgent interface {
	Execute(ctx context.Context, input *booking.Input) (*booking.Output, error)
}

type ComplaintAgent interface {
	Execute(ctx context.Context, input *complaint.Input) (*complaint.Output, error)
}

type InformationAgent interface {
	Execute(ctx context.Context, input *information.Input) (*information.Output, error)
}

// Orchestrator runs one chat turn end to end: session, routing, dispatch,
// transcript, persistence. Agent failures become apologetic replies; only
// session-store failures surface as turn errors.
type Orchestrator struct {
	config      *config.Config
	store       session.Store
	router      RouterAgent
	booking     BookingAgent
	complaint   ComplaintAgent
	information InformationAgent
	obs         *observability.Observability
	tracing     *observability.Tracing
	logger      Logger
}

func New(
	cfg *config.Config,
	store session.Store,
	routerAgent RouterAgent,
	bookingAgent BookingAgent,
	complaintAgent ComplaintAgent,
	informationAgent InformationAgent,
	obs *observability.Observability,
	tracing *observability.Tracing,
	log Logger,
) *Orchestrator {
	return &Orchestrator{
		config:      cfg,
		store:       store,
		router:      routerAgent,
		booking:     bookingAgent,
		complaint:   complaintAgent,
		information: informationAgent,
		obs:         obs,
		tracing:     tracing,
		logger: log.With(map[string]interface{}{
			"component": "orchestrator",
		}),
	}
}

// HandleTurn processes one POST /chat message.
func (o *Orchestrator) HandleTurn(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, errors.NewValidationFailedError("message must not be empty")
	}

	start := time.Now()

	ctx, turnSpan := o.startSpan(ctx, "chat.turn")
	defer turnSpan()

	sess, err := o.store.GetOrCreate(ctx, req.SessionID, req.UserID)
	if err != nil {
		return nil, err
	}

	window := o.config.Session.TranscriptWindow
	if window <= 0 {
		window = 10
	}
	history, err := o.store.RecentMessages(ctx, sess.SessionID, window)
	if err != nil {
		o.logger.Warn("transcript load failed, continuing without history", map[string]interface{}{
			"sessionId": sess.SessionID,
			"error":     err.Error(),
		})
		history = nil
	}

	routing := o.route(ctx, req.Message, history)

	reply, sources, state := o.dispatch(ctx, sess, req.Message, history, routing)

	o.appendTranscript(ctx, sess.SessionID, req.Message, reply, routing.Intent)

	if state != nil {
		if err := o.store.SaveState(ctx, sess.SessionID, state); err != nil {
			// The user already has their reply; losing the state update is
			// logged and counted, not surfaced.
			metrics.ChatTurnsFailed.WithLabelValues(agentFor(routing.Intent), string(errors.ErrCodeSessionSaveFailed)).Inc()
			o.logger.Error("session save failed after reply", map[string]interface{}{
				"sessionId": sess.SessionID,
				"error":     err.Error(),
			})
		}
	}

	agent := agentFor(routing.Intent)
	metrics.ChatTurnsCompleted.WithLabelValues(agent, string(routing.Intent)).Inc()
	metrics.ChatTurnDuration.WithLabelValues(agent).Observe(time.Since(start).Seconds())
	if o.obs != nil {
		o.obs.RecordTurnProcessed(ctx, agent, "success")
		o.obs.RecordTurnDuration(ctx, time.Since(start), agent)
	}

	return &models.ChatResponse{
		SessionID:  sess.SessionID,
		Reply:      reply,
		Agent:      agent,
		Intent:     routing.Intent,
		Confidence: routing.Confidence,
		Sources:    sources,
	}, nil
}

// Ask answers a one-shot question through the information agent, without a
// session.
func (o *Orchestrator) Ask(ctx context.Context, question string) (*models.AskResponse, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errors.NewValidationFailedError("question must not be empty")
	}

	ctx, span := o.startSpan(ctx, "chat.ask")
	defer span()

	output, err := o.information.Execute(ctx, &information.Input{Question: question})
	if err != nil {
		metrics.AgentInvocations.WithLabelValues(information.AgentName, "error").Inc()
		return nil, err
	}
	metrics.AgentInvocations.WithLabelValues(information.AgentName, "success").Inc()

	return &models.AskResponse{
		Answer:  output.Answer,
		Sources: output.Sources,
	}, nil
}

func (o *Orchestrator) route(ctx context.Context, message string, history []models.Message) models.Routing {
	ctx, span := o.startSpan(ctx, "chat.route")
	defer span()

	output, err := o.router.Execute(ctx, &router.Input{Message: message, History: history})
	if err != nil {
		// The router has its own fallback; an error here still must not
		// sink the turn.
		o.logger.Warn("router failed, defaulting to general", map[string]interface{}{
			"error": err.Error(),
		})
		return models.Routing{Intent: models.IntentGeneral, Confidence: 0, Fallback: true}
	}
	return output.Routing
}

// dispatch runs the matching agent and converts its failure into an apology
// reply. It returns the state to persist, or nil when nothing changed.
func (o *Orchestrator) dispatch(ctx context.Context, sess *models.Session, message string, history []models.Message, routing models.Routing) (string, []models.Source, models.State) {
	agent := agentFor(routing.Intent)

	if !config.IsAgentEnabled(o.config, agent) {
		err := errors.NewAgentDisabledError(agent)
		metrics.ChatTurnsFailed.WithLabelValues(agent, errorCode(err)).Inc()
		return apology(err), nil, nil
	}

	ctx, span := o.startSpan(ctx, "chat.dispatch", attribute.String("agent", agent))
	defer span()

	var (
		reply   string
		sources []models.Source
		state   models.State
		err     error
	)

	switch routing.Intent {
	case models.IntentBooking:
		var output *booking.Output
		output, err = o.booking.Execute(ctx, &booking.Input{
			SessionID: sess.SessionID,
			Message:   message,
			History:   history,
			State:     sess.State,
		})
		if err == nil {
			reply, state = output.Reply, output.State
		}
	case models.IntentComplaint:
		var output *complaint.Output
		output, err = o.complaint.Execute(ctx, &complaint.Input{
			SessionID: sess.SessionID,
			Message:   message,
			History:   history,
			State:     sess.State,
		})
		if err == nil {
			reply, state = output.Reply, output.State
		}
	default:
		var output *information.Output
		output, err = o.information.Execute(ctx, &information.Input{
			Question: message,
			History:  history,
		})
		if err == nil {
			reply, sources = output.Answer, output.Sources
		}
	}

	if err != nil {
		metrics.AgentInvocations.WithLabelValues(agent, "error").Inc()
		metrics.ChatTurnsFailed.WithLabelValues(agent, errorCode(err)).Inc()
		o.logger.Error("agent failed", map[string]interface{}{
			"agent":     agent,
			"sessionId": sess.SessionID,
			"error":     err.Error(),
		})
		return apology(err), nil, nil
	}

	metrics.AgentInvocations.WithLabelValues(agent, "success").Inc()
	return reply, sources, state
}

func (o *Orchestrator) appendTranscript(ctx context.Context, sessionID, userMessage, reply string, intent models.Intent) {
	userMsg := &models.Message{
		SessionID: sessionID,
		Role:      models.RoleUser,
		Content:   userMessage,
	}
	assistantMsg := &models.Message{
		SessionID: sessionID,
		Role:      models.RoleAssistant,
		Content:   reply,
		Agent:     agentFor(intent),
	}
	for _, msg := range []*models.Message{userMsg, assistantMsg} {
		if err := o.store.AppendMessage(ctx, msg); err != nil {
			o.logger.Error("transcript append failed", map[string]interface{}{
				"sessionId": sessionID,
				"role":      msg.Role,
				"error":     err.Error(),
			})
		}
	}
}

func apology(err error) string {
	return fmt.Sprintf(
		"I'm sorry, I couldn't complete that request right now (%s). Please try again in a moment.",
		errorCode(err),
	)
}

func (o *Orchestrator) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func()) {
	if o.tracing == nil {
		return ctx, func() {}
	}
	ctx, span := o.tracing.StartSpan(ctx, name, attrs...)
	return ctx, func() { span.End() }
}

func agentFor(intent models.Intent) string {
	switch intent {
	case models.IntentBooking:
		return booking.AgentName
	case models.IntentComplaint:
		return complaint.AgentName
	default:
		return information.AgentName
	}
}

func errorCode(err error) string {
	std := errors.AsStandardError(err)
	return string(std.Code)
}
