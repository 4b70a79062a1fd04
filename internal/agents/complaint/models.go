// internal/agents/complaint/models.go
package complaint

import "tripwise/internal/models"

// Input is one complaint-intent turn.
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

// classification is the LLM's JSON verdict for a complaint message.
type classification struct {
	Category string `json:"category"`
	Severity string `json:"severity"`
	Summary  string `json:"summary"`
}
