// internal/agents/information/handler.go
package information

import (
	"context"
	"fmt"
	"strings"

	"tripwise/internal/llm"
	"tripwise/internal/models"
)

const AgentName = "information"

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// LLMClient is the slice of the LLM client the information agent needs.
type LLMClient interface {
	Complete(ctx context.Context, messages []llm.Message, opts *llm.Options) (string, error)
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever is the slice of the knowledge store the agent needs.
type Retriever interface {
	Search(ctx context.Context, vector []float32, topK int) ([]models.Document, error)
	SearchLexical(ctx context.Context, text string, topK int) ([]models.Document, error)
}

const answerPrompt = `You answer travel questions strictly from the numbered context
blocks below. Cite nothing outside them. If the context does not contain the
answer, say you don't know and suggest adding the relevant policy document to
the knowledge base.`

const emptyContextPrompt = `You have no knowledge base context for this question.
Tell the user you don't have that information yet and suggest which policy
document should be ingested. Do not invent travel facts.`

// Handler is the retrieve-then-generate pipeline over the knowledge index.
type Handler struct {
	config    *Config
	llm       LLMClient
	retriever Retriever
	logger    Logger
}

func NewHandler(config *Config, client LLMClient, retriever Retriever, log Logger) *Handler {
	return &Handler{
		config:    config,
		llm:       client,
		retriever: retriever,
		logger: log.With(map[string]interface{}{
			"agent": AgentName,
		}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	docs, err := h.retrieve(ctx, input.Question)
	if err != nil {
		return nil, err
	}

	answer, err := h.generate(ctx, input.Question, docs)
	if err != nil {
		return nil, err
	}

	sources := make([]models.Source, 0, len(docs))
	for _, doc := range docs {
		sources = append(sources, models.Source{
			ID:     doc.ID,
			Source: doc.Source,
			Chunk:  doc.Chunk,
			Score:  doc.Score,
		})
	}

	h.logger.Info("question answered", map[string]interface{}{
		"sources": len(sources),
	})
	return &Output{Answer: answer, Sources: sources}, nil
}

// retrieve embeds the question for dense retrieval and drops to the lexical
// path when the embedder is unavailable.
func (h *Handler) retrieve(ctx context.Context, question string) ([]models.Document, error) {
	vectors, err := h.llm.Embed(ctx, []string{question})
	if err != nil {
		h.logger.Warn("embedding failed, using lexical retrieval", map[string]interface{}{
			"error": err.Error(),
		})
		return h.retriever.SearchLexical(ctx, question, h.config.TopK)
	}
	return h.retriever.Search(ctx, vectors[0], h.config.TopK)
}

func (h *Handler) generate(ctx context.Context, question string, docs []models.Document) (string, error) {
	if len(docs) == 0 {
		return h.llm.Complete(ctx, []llm.Message{
			{Role: "system", Content: emptyContextPrompt},
			{Role: "user", Content: question},
		}, nil)
	}

	var blocks strings.Builder
	for i, doc := range docs {
		fmt.Fprintf(&blocks, "[%d] Source: %s\n%s\n\n", i+1, doc.Source, doc.Content)
	}

	return h.llm.Complete(ctx, []llm.Message{
		{Role: "system", Content: answerPrompt + "\n\nContext:\n" + blocks.String()},
		{Role: "user", Content: question},
	}, nil)
}
