// internal/models/document.go
package models

// Document is a chunk of travel knowledge stored in the knowledge index.
type Document struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Chunk     int       `json:"chunk"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
	Score     float64   `json:"score,omitempty"`
}
