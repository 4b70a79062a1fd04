// internal/agents/information/models.go
package information

import "tripwise/internal/models"

// Input is one information question, with or without session context.
type Input struct {
	Question string
	History  []models.Message
}

// Output is the generated answer plus the knowledge chunks it cites.
type Output struct {
	Answer  string
	Sources []models.Source
}
