// internal/models/chat.go
package models

// ChatRequest is the POST /chat body.
type ChatRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	Message   string `json:"message"`
}

// ChatResponse is the POST /chat reply.
type ChatResponse struct {
	SessionID  string   `json:"sessionId"`
	Reply      string   `json:"reply"`
	Agent      string   `json:"agent"`
	Intent     Intent   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Sources    []Source `json:"sources,omitempty"`
}

// AskRequest is the POST /ask body.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the POST /ask reply.
type AskResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources,omitempty"`
}

// Source identifies a knowledge chunk cited in an answer.
type Source struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Chunk  int     `json:"chunk"`
	Score  float64 `json:"score"`
}

// ErrorResponse is the JSON error envelope on all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
