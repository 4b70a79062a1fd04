// internal/llm/client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tripwise/internal/common/metrics"
)

var (
	ErrLLMTimeout       = errors.New("LLM_TIMEOUT")
	ErrLLMRequestFailed = errors.New("LLM_REQUEST_FAILED")
	ErrEmbeddingFailed  = errors.New("EMBEDDING_FAILED")
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Message is a chat-completions message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options override per-call generation parameters.
type Options struct {
	Temperature *float64
	MaxTokens   int
	JSONMode    bool
}

// Client talks to an OpenAI-compatible chat-completions and embeddings API.
type Client struct {
	config *Config
	client *http.Client
	logger Logger
}

func NewClient(config *Config, log Logger) *Client {
	return &Client{
		config: config,
		client: &http.Client{
			// Rely only on context deadlines, not a client-wide timeout
		},
		logger: log.With(map[string]interface{}{
			"component": "llm",
		}),
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a chat-completions request and returns the first choice text.
func (c *Client) Complete(ctx context.Context, messages []Message, opts *Options) (string, error) {
	reqBody := chatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	}
	if opts != nil {
		if opts.Temperature != nil {
			reqBody.Temperature = *opts.Temperature
		}
		if opts.MaxTokens > 0 {
			reqBody.MaxTokens = opts.MaxTokens
		}
		if opts.JSONMode {
			reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
		}
	}

	body, _ := json.Marshal(reqBody)
	respBody, err := c.post(ctx, "/chat/completions", body, ErrLLMRequestFailed)
	if err != nil {
		metrics.LLMRequests.WithLabelValues("complete", "error").Inc()
		return "", err
	}
	metrics.LLMRequests.WithLabelValues("complete", "success").Inc()

	var apiResponse chatResponse
	if err := json.Unmarshal(respBody, &apiResponse); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", ErrLLMRequestFailed, err)
	}
	if len(apiResponse.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrLLMRequestFailed)
	}
	return apiResponse.Choices[0].Message.Content, nil
}

// CompleteJSON asks for a JSON response and decodes it into out. Markdown code
// fences around the payload are stripped before decoding.
func (c *Client) CompleteJSON(ctx context.Context, messages []Message, out interface{}) error {
	text, err := c.Complete(ctx, messages, &Options{JSONMode: true})
	if err != nil {
		return err
	}

	cleaned := stripFences(text)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("%w: invalid JSON response: %v", ErrLLMRequestFailed, err)
	}
	return nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns one embedding vector per input text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := embeddingRequest{
		Model: c.config.EmbeddingModel,
		Input: texts,
	}

	body, _ := json.Marshal(reqBody)
	respBody, err := c.post(ctx, "/embeddings", body, ErrEmbeddingFailed)
	if err != nil {
		metrics.LLMRequests.WithLabelValues("embed", "error").Inc()
		return nil, err
	}
	metrics.LLMRequests.WithLabelValues("embed", "success").Inc()

	var apiResponse embeddingResponse
	if err := json.Unmarshal(respBody, &apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrEmbeddingFailed, err)
	}
	if len(apiResponse.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrEmbeddingFailed, len(texts), len(apiResponse.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range apiResponse.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", ErrEmbeddingFailed, item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}

// post sends a request with bounded retries and exponential backoff. The body
// is rebuilt per attempt so retries never reuse a drained reader.
func (c *Client) post(ctx context.Context, path string, body []byte, failErr error) ([]byte, error) {
	url := strings.TrimSuffix(c.config.BaseURL, "/") + path

	var respBody []byte
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Apply exponential backoff
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
				// Continue with retry
			case <-ctx.Done():
				return nil, ErrLLMTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", failErr, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

		respBody, lastErr = c.doOnce(req)
		if lastErr == nil {
			return respBody, nil
		}

		if ctx.Err() != nil {
			return nil, ErrLLMTimeout
		}
	}

	if ctx.Err() == context.DeadlineExceeded {
		return nil, ErrLLMTimeout
	}
	return nil, fmt.Errorf("%w: %v", failErr, lastErr)
}

func (c *Client) doOnce(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(buf.String()))
	}
	return buf.Bytes(), nil
}

// stripFences removes a surrounding markdown code fence from LLM output.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	return strings.TrimSpace(trimmed)
}
