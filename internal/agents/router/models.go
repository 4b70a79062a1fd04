// internal/agents/router/models.go
package router

import "tripwise/internal/models"

// Input carries the message to classify and recent transcript context.
type Input struct {
	Message string
	History []models.Message
}

// Output is the routing decision for one turn.
type Output struct {
	Routing models.Routing
}
