// internal/agents/booking/handler.go
package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"tripwise/internal/llm"
	"tripwise/internal/models"
)

const (
	AgentName = "booking"

	stateKeyOffer = "pendingOffer"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// LLMClient is the slice of the LLM client the booking agent needs.
type LLMClient interface {
	CompleteJSON(ctx context.Context, messages []llm.Message, out interface{}) error
}

// ToolCaller invokes flight tools on the MCP server.
type ToolCaller interface {
	CallToolJSON(ctx context.Context, name string, arguments map[string]interface{}, out interface{}) error
}

// BookingCreator persists confirmed bookings.
type BookingCreator interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
}

const extractPrompt = `Extract flight search parameters from the user's message.
Respond with JSON only:
{"origin": "<IATA or empty>", "destination": "<IATA or empty>", "date": "<YYYY-MM-DD or empty>", "passengers": <number, default 1>}
Use empty strings for anything the user did not state. Never guess airports.`

// Handler searches and books flights through the MCP tool server. Flight data
// always comes from tools, never from the model.
type Handler struct {
	config *Config
	llm    LLMClient
	tools  ToolCaller
	repo   BookingCreator
	logger Logger
}

func NewHandler(config *Config, client LLMClient, tools ToolCaller, repo BookingCreator, log Logger) *Handler {
	return &Handler{
		config: config,
		llm:    client,
		tools:  tools,
		repo:   repo,
		logger: log.With(map[string]interface{}{
			"agent": AgentName,
		}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	state := input.State
	if state == nil {
		state = models.State{}
	}

	if offer, ok := loadOffer(state); ok {
		if isConfirmation(input.Message) {
			return h.confirmBooking(ctx, input.SessionID, state, offer)
		}
		if isRejection(input.Message) {
			delete(state, stateKeyOffer)
			return &Output{
				Reply: "No problem, I won't book that flight. Where would you like to go instead?",
				State: state,
			}, nil
		}
	}

	trip := h.extractSlots(ctx, input.Message)
	if !trip.complete() {
		return &Output{Reply: clarifyingQuestion(trip), State: state}, nil
	}

	return h.searchAndOffer(ctx, state, trip)
}

func (h *Handler) searchAndOffer(ctx context.Context, state models.State, trip slots) (*Output, error) {
	var result struct {
		Flights []models.Flight `json:"flights"`
		Count   int             `json:"count"`
	}
	args := map[string]interface{}{
		"origin":      trip.Origin,
		"destination": trip.Destination,
		"date":        trip.Date,
		"max_results": h.config.MaxResults,
	}
	if err := h.tools.CallToolJSON(ctx, "search_flights", args, &result); err != nil {
		return nil, err
	}

	if result.Count == 0 {
		return &Output{
			Reply: fmt.Sprintf("I couldn't find any flights from %s to %s on %s. Would you like to try another date?",
				trip.Origin, trip.Destination, trip.Date),
			State: state,
		}, nil
	}

	cheapest := result.Flights[0]
	offer := pendingOffer{
		FlightID:     cheapest.FlightID,
		Airline:      cheapest.Airline,
		FlightNumber: cheapest.FlightNumber,
		Origin:       cheapest.Origin,
		Destination:  cheapest.Destination,
		Price:        cheapest.Price,
		Currency:     cheapest.Currency,
		Passengers:   trip.Passengers,
	}
	storeOffer(state, offer)

	h.logger.Info("flight offered", map[string]interface{}{
		"flightId": cheapest.FlightID,
		"route":    trip.Origin + "-" + trip.Destination,
		"results":  result.Count,
	})

	return &Output{
		Reply: fmt.Sprintf(
			"The best option is %s %s from %s to %s, departing %s at %.2f %s. Shall I book it for %d passenger(s)?",
			cheapest.Airline, cheapest.FlightNumber, cheapest.Origin, cheapest.Destination,
			cheapest.DepartureTime.Format("2006-01-02 15:04"), cheapest.Price, cheapest.Currency,
			offer.Passengers,
		),
		State: state,
	}, nil
}

func (h *Handler) confirmBooking(ctx context.Context, sessionID string, state models.State, offer pendingOffer) (*Output, error) {
	booking := &models.Booking{
		BookingRef: NewBookingRef(),
		SessionID:  sessionID,
		FlightID:   offer.FlightID,
		Passengers: offer.Passengers,
		Status:     models.BookingStatusConfirmed,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.repo.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	delete(state, stateKeyOffer)

	h.logger.Info("booking confirmed", map[string]interface{}{
		"bookingRef": booking.BookingRef,
		"flightId":   offer.FlightID,
	})

	return &Output{
		Reply: fmt.Sprintf("Your booking is confirmed. Reference %s, flight %s %s from %s to %s for %d passenger(s).",
			booking.BookingRef, offer.Airline, offer.FlightNumber, offer.Origin, offer.Destination, offer.Passengers),
		State: state,
	}, nil
}

// extractSlots asks the LLM for structured trip parameters and falls back to
// pattern matching when that fails.
func (h *Handler) extractSlots(ctx context.Context, message string) slots {
	var trip slots
	err := h.llm.CompleteJSON(ctx, []llm.Message{
		{Role: "system", Content: extractPrompt},
		{Role: "user", Content: message},
	}, &trip)
	if err != nil {
		h.logger.Warn("slot extraction failed, using pattern fallback", map[string]interface{}{
			"error": err.Error(),
		})
		trip = patternSlots(message)
	}

	trip.Origin = strings.ToUpper(strings.TrimSpace(trip.Origin))
	trip.Destination = strings.ToUpper(strings.TrimSpace(trip.Destination))
	trip.Date = strings.TrimSpace(trip.Date)
	if trip.Passengers <= 0 {
		trip.Passengers = 1
	}
	return trip
}

var (
	iataPattern = regexp.MustCompile(`\b[A-Z]{3}\b`)
	datePattern = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)

	confirmPattern = regexp.MustCompile(`(?i)\b(yes|confirm|book it|go ahead|sure|please do|do it)\b`)
	rejectPattern  = regexp.MustCompile(`(?i)\b(no|cancel|don't|do not|nevermind|never mind)\b`)
)

// patternSlots pulls IATA codes and an ISO date straight out of the text.
// The first two distinct codes become origin and destination.
func patternSlots(message string) slots {
	var trip slots

	codes := iataPattern.FindAllString(message, -1)
	seen := map[string]bool{}
	for _, code := range codes {
		if seen[code] {
			continue
		}
		seen[code] = true
		if trip.Origin == "" {
			trip.Origin = code
		} else if trip.Destination == "" {
			trip.Destination = code
			break
		}
	}

	trip.Date = datePattern.FindString(message)
	trip.Passengers = 1
	return trip
}

func clarifyingQuestion(trip slots) string {
	var missing []string
	if trip.Origin == "" {
		missing = append(missing, "departure airport")
	}
	if trip.Destination == "" {
		missing = append(missing, "destination airport")
	}
	if trip.Date == "" {
		missing = append(missing, "travel date")
	}
	return fmt.Sprintf("I can help with that. Could you tell me your %s?", strings.Join(missing, ", "))
}

func isConfirmation(message string) bool {
	return confirmPattern.MatchString(message)
}

func isRejection(message string) bool {
	return rejectPattern.MatchString(message)
}

// NewBookingRef builds a BK-XXXXXXXX reference from a fresh uuid.
func NewBookingRef() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "BK-" + id[:8]
}

func loadOffer(state models.State) (pendingOffer, bool) {
	raw, ok := state[stateKeyOffer]
	if !ok {
		return pendingOffer{}, false
	}

	// State round-trips through JSON, so the offer may come back as a map.
	data, err := json.Marshal(raw)
	if err != nil {
		return pendingOffer{}, false
	}
	var offer pendingOffer
	if err := json.Unmarshal(data, &offer); err != nil || offer.FlightID == "" {
		return pendingOffer{}, false
	}
	return offer, true
}

func storeOffer(state models.State, offer pendingOffer) {
	state[stateKeyOffer] = offer
}
