// internal/mcp/client.go
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

var (
	ErrToolTimeout    = errors.New("TOOL_TIMEOUT")
	ErrToolCallFailed = errors.New("TOOL_CALL_FAILED")
)

// ClientConfig holds the MCP client settings.
type ClientConfig struct {
	URL        string
	Timeout    time.Duration
	MaxRetries int
}

// Client is a stateless MCP client over HTTP POST.
type Client struct {
	config *ClientConfig
	client *http.Client
	logger Logger
	nextID atomic.Int64
}

func NewClient(config *ClientConfig, log Logger) *Client {
	return &Client{
		config: config,
		client: &http.Client{
			// Rely only on context deadlines, not a client-wide timeout
		},
		logger: log.With(map[string]interface{}{"component": "mcp-client"}),
	}
}

// Initialize performs the MCP handshake and returns the server info.
func (c *Client) Initialize(ctx context.Context) (*InitializeResult, error) {
	var result InitializeResult
	if err := c.call(ctx, MethodInitialize, map[string]interface{}{
		"protocolVersion": ProtocolVersion,
		"clientInfo": map[string]string{
			"name": "tripwise-booking-agent",
		},
	}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListTools fetches the server's tool catalog.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	var result struct {
		Tools []Tool `json:"tools"`
	}
	if err := c.call(ctx, MethodToolsList, map[string]interface{}{}, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// CallTool invokes a named tool. A ToolResult with IsError set is returned as
// a TOOL_CALL_FAILED error carrying the server's text.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]interface{}) (*ToolResult, error) {
	var result ToolResult
	if err := c.call(ctx, MethodToolsCall, ToolCallParams{Name: name, Arguments: arguments}, &result); err != nil {
		return nil, err
	}

	if result.IsError {
		text := ""
		if len(result.Content) > 0 {
			text = result.Content[0].Text
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrToolCallFailed, name, text)
	}
	return &result, nil
}

// CallToolJSON invokes a tool and decodes its first text block as JSON.
func (c *Client) CallToolJSON(ctx context.Context, name string, arguments map[string]interface{}, out interface{}) error {
	result, err := c.CallTool(ctx, name, arguments)
	if err != nil {
		return err
	}
	if len(result.Content) == 0 {
		return fmt.Errorf("%w: %s: empty result", ErrToolCallFailed, name)
	}
	if err := json.Unmarshal([]byte(result.Content[0].Text), out); err != nil {
		return fmt.Errorf("%w: %s: decode error: %v", ErrToolCallFailed, name, err)
	}
	return nil
}

// ReadResource reads a resource by URI and returns its text contents.
func (c *Client) ReadResource(ctx context.Context, uri string) (string, error) {
	var result ResourceContents
	if err := c.call(ctx, MethodResourcesRead, ResourceReadParams{URI: uri}, &result); err != nil {
		return "", err
	}
	if len(result.Contents) == 0 {
		return "", fmt.Errorf("%w: resource %s: empty contents", ErrToolCallFailed, uri)
	}
	return result.Contents[0].Text, nil
}

// call sends one JSON-RPC request with bounded retries and exponential backoff.
func (c *Client) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	id := c.nextID.Add(1)
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrToolCallFailed, err)
	}
	body, _ := json.Marshal(&Request{
		JSONRPC: JSONRPCVersion,
		ID:      json.RawMessage(fmt.Sprintf("%d", id)),
		Method:  method,
		Params:  paramsJSON,
	})

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
				return ErrToolTimeout
			}
		}

		respBody, lastErr = c.postOnce(ctx, body)
		if lastErr == nil {
			break
		}

		if ctx.Err() != nil {
			return ErrToolTimeout
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return ErrToolTimeout
		}
		return fmt.Errorf("%w: %v", ErrToolCallFailed, lastErr)
	}

	var resp Response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("%w: decode error: %v", ErrToolCallFailed, err)
	}
	if resp.Error != nil {
		return fmt.Errorf("%w: rpc error %d: %s", ErrToolCallFailed, resp.Error.Code, resp.Error.Message)
	}
	if out == nil {
		return nil
	}

	resultJSON, err := json.Marshal(resp.Result)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrToolCallFailed, err)
	}
	if err := json.Unmarshal(resultJSON, out); err != nil {
		return fmt.Errorf("%w: result decode error: %v", ErrToolCallFailed, err)
	}
	return nil
}

func (c *Client) postOnce(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.config.URL, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

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
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return buf.Bytes(), nil
}
