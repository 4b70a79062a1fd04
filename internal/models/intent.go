// internal/models/intent.go
package models

// Intent is a routing decision target.
type Intent string

const (
	IntentBooking     Intent = "booking"
	IntentComplaint   Intent = "complaint"
	IntentInformation Intent = "information"
	IntentGeneral     Intent = "general"
)

// IsValid reports whether the intent is one the router may emit.
func (i Intent) IsValid() bool {
	switch i {
	case IntentBooking, IntentComplaint, IntentInformation, IntentGeneral:
		return true
	}
	return false
}

// Routing is the router agent's classification result for one turn.
type Routing struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Fallback   bool    `json:"fallback"` // true when keyword scoring decided
}
