// internal/agents/booking/models.go
package booking

import "tripwise/internal/models"

// Input is one booking-intent turn.
type Input struct {
	SessionID string
	Message   string
	History   []models.Message
	State     models.State
}

// Output carries the reply and the session state to persist.
type Output struct {
	Reply string
	State models.State
}

// slots are the trip parameters extracted from the message.
type slots struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
	Passengers  int    `json:"passengers"`
}

func (s slots) complete() bool {
	return s.Origin != "" && s.Destination != "" && s.Date != ""
}

// pendingOffer is the flight offered on a previous turn, kept in session
// state until the user confirms or abandons it.
type pendingOffer struct {
	FlightID     string  `json:"flightId"`
	Airline      string  `json:"airline"`
	FlightNumber string  `json:"flightNumber"`
	Origin       string  `json:"origin"`
	Destination  string  `json:"destination"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	Passengers   int     `json:"passengers"`
}
