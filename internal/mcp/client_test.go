// internal/mcp/client_test.go
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createClientConfig(url string) *ClientConfig {
	return &ClientConfig{
		URL:        url,
		Timeout:    5 * time.Second,
		MaxRetries: 1,
	}
}

// fakeMCPServer answers JSON-RPC requests with canned results per method.
func fakeMCPServer(t *testing.T, handler func(req *Request) *Response) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, JSONRPCVersion, req.JSONRPC)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(handler(&req))
	}))
}

func TestClient_Initialize(t *testing.T) {
	server := fakeMCPServer(t, func(req *Request) *Response {
		assert.Equal(t, MethodInitialize, req.Method)
		return resultResponse(req.ID, &InitializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      ServerInfo{Name: "tripwise-flight-mcp", Version: "test"},
		})
	})
	defer server.Close()

	client := NewClient(createClientConfig(server.URL), NewTestLogger(t))

	result, err := client.Initialize(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, "tripwise-flight-mcp", result.ServerInfo.Name)
}

func TestClient_ListTools(t *testing.T) {
	server := fakeMCPServer(t, func(req *Request) *Response {
		assert.Equal(t, MethodToolsList, req.Method)
		return resultResponse(req.ID, map[string]interface{}{
			"tools": []Tool{
				{Name: "search_flights", Description: "search"},
				{Name: "get_flight", Description: "get"},
			},
		})
	})
	defer server.Close()

	client := NewClient(createClientConfig(server.URL), NewTestLogger(t))

	tools, err := client.ListTools(context.Background())

	assert.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, "search_flights", tools[0].Name)
}

func TestClient_CallTool_Success(t *testing.T) {
	server := fakeMCPServer(t, func(req *Request) *Response {
		var params ToolCallParams
		require.NoError(t, json.Unmarshal(req.Params, &params))
		assert.Equal(t, "search_flights", params.Name)
		assert.Equal(t, "JFK", params.Arguments["origin"])

		return resultResponse(req.ID, TextResult(`{"flights":[],"count":0}`))
	})
	defer server.Close()

	client := NewClient(createClientConfig(server.URL), NewTestLogger(t))

	var payload struct {
		Count int `json:"count"`
	}
	err := client.CallToolJSON(context.Background(), "search_flights", map[string]interface{}{
		"origin":      "JFK",
		"destination": "LHR",
	}, &payload)

	assert.NoError(t, err)
	assert.Equal(t, 0, payload.Count)
}

func TestClient_CallTool_ToolError(t *testing.T) {
	server := fakeMCPServer(t, func(req *Request) *Response {
		return resultResponse(req.ID, ErrorResult("query rejected: only SELECT statements are allowed"))
	})
	defer server.Close()

	client := NewClient(createClientConfig(server.URL), NewTestLogger(t))

	result, err := client.CallTool(context.Background(), "execute_query", map[string]interface{}{
		"sql": "DROP TABLE flights",
	})

	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrToolCallFailed))
	assert.Contains(t, err.Error(), "query rejected")
}

func TestClient_CallTool_RPCError(t *testing.T) {
	server := fakeMCPServer(t, func(req *Request) *Response {
		return errorResponse(req.ID, CodeInvalidParams, "unknown tool: cancel_flight")
	})
	defer server.Close()

	client := NewClient(createClientConfig(server.URL), NewTestLogger(t))

	_, err := client.CallTool(context.Background(), "cancel_flight", nil)

	assert.True(t, errors.Is(err, ErrToolCallFailed))
	assert.Contains(t, err.Error(), "unknown tool")
}

func TestClient_CallTool_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(10 * time.Second):
			return
		}
	}))
	defer server.Close()

	client := NewClient(createClientConfig(server.URL), NewTestLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.CallTool(ctx, "search_flights", map[string]interface{}{})

	assert.True(t, errors.Is(err, ErrToolTimeout), "Expected TOOL_TIMEOUT, got: %v", err)
}

func TestClient_CallTool_RetryLogic(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var req Request
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resultResponse(req.ID, TextResult(`{"ok":true}`)))
	}))
	defer server.Close()

	config := createClientConfig(server.URL)
	config.MaxRetries = 2
	client := NewClient(config, NewTestLogger(t))

	result, err := client.CallTool(context.Background(), "list_airports", map[string]interface{}{})

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.GreaterOrEqual(t, attempts, 2)
}

func TestClient_ReadResource(t *testing.T) {
	server := fakeMCPServer(t, func(req *Request) *Response {
		var params ResourceReadParams
		require.NoError(t, json.Unmarshal(req.Params, &params))
		assert.Equal(t, "policy://baggage", params.URI)

		return resultResponse(req.ID, &ResourceContents{
			Contents: []ResourceContent{{URI: params.URI, Text: "# Baggage Policy"}},
		})
	})
	defer server.Close()

	client := NewClient(createClientConfig(server.URL), NewTestLogger(t))

	text, err := client.ReadResource(context.Background(), "policy://baggage")

	assert.NoError(t, err)
	assert.Contains(t, text, "Baggage Policy")
}
