// internal/orchestrator/orchestrator_test.go
package orchestrator

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripwise/internal/agents/booking"
	"tripwise/internal/agents/complaint"
	"tripwise/internal/agents/information"
	"tripwise/internal/agents/router"
	"tripwise/internal/common/config"
	"tripwise/internal/common/errors"
	"tripwise/internal/models"
	"tripwise/internal/session"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t *testing.T
}

func NewTestLogger(t *testing.T) *TestLogger { return &TestLogger{t: t} }

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger { return l }

// ==========================
// Test Helper Functions
// ==========================

type stubRouter struct {
	routing models.Routing
	err     error
}

func (s *stubRouter) Execute(ctx context.Context, input *router.Input) (*router.Output, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &router.Output{Routing: s.routing}, nil
}

type stubBooking struct {
	output *booking.Output
	err    error
	input  *booking.Input
}

func (s *stubBooking) Execute(ctx context.Context, input *booking.Input) (*booking.Output, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return s.output, nil
}

type stubComplaint struct {
	output *complaint.Output
	err    error
}

func (s *stubComplaint) Execute(ctx context.Context, input *complaint.Input) (*complaint.Output, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.output, nil
}

type stubInformation struct {
	output *information.Output
	err    error
}

func (s *stubInformation) Execute(ctx context.Context, input *information.Input) (*information.Output, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.output, nil
}

type fixture struct {
	orch        *Orchestrator
	store       session.Store
	router      *stubRouter
	booking     *stubBooking
	complaint   *stubComplaint
	information *stubInformation
	config      *config.Config
}

func newFixture(t *testing.T) *fixture {
	store, err := session.NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{}
	cfg.Session.TranscriptWindow = 10

	f := &fixture{
		store:       store,
		router:      &stubRouter{routing: models.Routing{Intent: models.IntentGeneral, Confidence: 0.5}},
		booking:     &stubBooking{output: &booking.Output{Reply: "flight offered", State: models.State{"pendingOffer": "x"}}},
		complaint:   &stubComplaint{output: &complaint.Output{Reply: "complaint filed", State: models.State{}}},
		information: &stubInformation{output: &information.Output{Answer: "the allowance is 23kg"}},
		config:      cfg,
	}
	f.orch = New(cfg, store, f.router, f.booking, f.complaint, f.information, nil, nil, NewTestLogger(t))
	return f
}

// ==========================
// HandleTurn Tests
// ==========================

func TestHandleTurn_InformationFlow(t *testing.T) {
	f := newFixture(t)
	f.router.routing = models.Routing{Intent: models.IntentInformation, Confidence: 0.9}
	f.information.output = &information.Output{
		Answer:  "23kg checked baggage",
		Sources: []models.Source{{ID: "baggage:0", Source: "baggage", Score: 1.9}},
	}

	resp, err := f.orch.HandleTurn(context.Background(), &models.ChatRequest{Message: "baggage allowance?"})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "23kg checked baggage", resp.Reply)
	assert.Equal(t, information.AgentName, resp.Agent)
	assert.Equal(t, models.IntentInformation, resp.Intent)
	assert.InDelta(t, 0.9, resp.Confidence, 0.001)
	require.Len(t, resp.Sources, 1)

	// Both turn messages landed in the transcript
	messages, err := f.store.RecentMessages(context.Background(), resp.SessionID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, "baggage allowance?", messages[0].Content)
	assert.Equal(t, models.RoleAssistant, messages[1].Role)
	assert.Equal(t, information.AgentName, messages[1].Agent)
}

func TestHandleTurn_BookingStatePersisted(t *testing.T) {
	f := newFixture(t)
	f.router.routing = models.Routing{Intent: models.IntentBooking, Confidence: 0.95}

	resp, err := f.orch.HandleTurn(context.Background(), &models.ChatRequest{Message: "book JFK to LHR"})

	require.NoError(t, err)
	assert.Equal(t, "flight offered", resp.Reply)

	sess, err := f.store.Get(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "x", sess.State["pendingOffer"])
}

func TestHandleTurn_ReusesSession(t *testing.T) {
	f := newFixture(t)

	first, err := f.orch.HandleTurn(context.Background(), &models.ChatRequest{Message: "hello"})
	require.NoError(t, err)

	second, err := f.orch.HandleTurn(context.Background(), &models.ChatRequest{
		SessionID: first.SessionID,
		Message:   "hello again",
	})
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)

	messages, err := f.store.RecentMessages(context.Background(), first.SessionID, 10)
	require.NoError(t, err)
	assert.Len(t, messages, 4)
}

func TestHandleTurn_EmptyMessage(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.HandleTurn(context.Background(), &models.ChatRequest{Message: "   "})

	std := errors.AsStandardError(err)
	assert.Equal(t, errors.ErrCodeValidationFailed, std.Code)
}

func TestHandleTurn_AgentFailureBecomesApology(t *testing.T) {
	f := newFixture(t)
	f.router.routing = models.Routing{Intent: models.IntentBooking, Confidence: 0.9}
	f.booking.err = errors.NewFlightSearchFailedError(assert.AnError)

	resp, err := f.orch.HandleTurn(context.Background(), &models.ChatRequest{Message: "book a flight"})

	require.NoError(t, err, "agent failure must not fail the turn")
	assert.Contains(t, resp.Reply, "I'm sorry")
	assert.Contains(t, resp.Reply, "FLIGHT_SEARCH_FAILED")

	// The apology still lands in the transcript
	messages, err := f.store.RecentMessages(context.Background(), resp.SessionID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Contains(t, messages[1].Content, "I'm sorry")
}

func TestHandleTurn_RouterFailureDefaultsToInformation(t *testing.T) {
	f := newFixture(t)
	f.router.err = assert.AnError

	resp, err := f.orch.HandleTurn(context.Background(), &models.ChatRequest{Message: "hello"})

	require.NoError(t, err)
	assert.Equal(t, models.IntentGeneral, resp.Intent)
	assert.Equal(t, information.AgentName, resp.Agent)
	assert.Equal(t, "the allowance is 23kg", resp.Reply)
}

func TestHandleTurn_DisabledAgent(t *testing.T) {
	f := newFixture(t)
	f.config.Agents = map[string]config.AgentConfig{
		booking.AgentName: {Enabled: false},
	}
	f.router.routing = models.Routing{Intent: models.IntentBooking, Confidence: 0.9}

	resp, err := f.orch.HandleTurn(context.Background(), &models.ChatRequest{Message: "book a flight"})

	require.NoError(t, err)
	assert.Contains(t, resp.Reply, "AGENT_DISABLED")
}

func TestHandleTurn_SaveFailureStillReturnsReply(t *testing.T) {
	f := newFixture(t)
	f.router.routing = models.Routing{Intent: models.IntentBooking, Confidence: 0.9}

	// Close the store's database underneath so SaveState fails while the
	// session was already created.
	orch := f.orch
	store := f.store

	sess, err := store.GetOrCreate(context.Background(), "sess-broken", "user-1")
	require.NoError(t, err)

	f.booking.output = &booking.Output{Reply: "flight offered", State: models.State{"k": "v"}}
	brokenStore := &failingSaveStore{Store: store}
	orch = New(f.config, brokenStore, f.router, f.booking, f.complaint, f.information, nil, nil, NewTestLogger(t))

	resp, err := orch.HandleTurn(context.Background(), &models.ChatRequest{
		SessionID: sess.SessionID,
		Message:   "book it",
	})

	require.NoError(t, err)
	assert.Equal(t, "flight offered", resp.Reply)
}

// failingSaveStore fails every SaveState call.
type failingSaveStore struct {
	session.Store
}

func (s *failingSaveStore) SaveState(ctx context.Context, sessionID string, state models.State) error {
	return errors.NewSessionSaveFailedError(assert.AnError)
}

// ==========================
// Ask Tests
// ==========================

func TestAsk(t *testing.T) {
	f := newFixture(t)
	f.information.output = &information.Output{
		Answer:  "visas depend on destination",
		Sources: []models.Source{{ID: "visa:0", Source: "visa", Score: 1.2}},
	}

	resp, err := f.orch.Ask(context.Background(), "do I need a visa?")

	require.NoError(t, err)
	assert.Equal(t, "visas depend on destination", resp.Answer)
	require.Len(t, resp.Sources, 1)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Ask(context.Background(), "")

	std := errors.AsStandardError(err)
	assert.Equal(t, errors.ErrCodeValidationFailed, std.Code)
}

func TestAsk_AgentErrorPropagates(t *testing.T) {
	f := newFixture(t)
	f.information.err = errors.NewKnowledgeQueryFailedError(assert.AnError)

	_, err := f.orch.Ask(context.Background(), "baggage?")

	std := errors.AsStandardError(err)
	assert.Equal(t, errors.ErrCodeKnowledgeQueryFailed, std.Code)
}

// ==========================
// Helper Tests
// ==========================

func TestAgentFor(t *testing.T) {
	assert.Equal(t, booking.AgentName, agentFor(models.IntentBooking))
	assert.Equal(t, complaint.AgentName, agentFor(models.IntentComplaint))
	assert.Equal(t, information.AgentName, agentFor(models.IntentInformation))
	assert.Equal(t, information.AgentName, agentFor(models.IntentGeneral))
}
