// internal/mcp/server.go
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"tripwise/internal/common/metrics"
	"tripwise/internal/common/validation"
	"tripwise/internal/flightdata"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type toolHandler func(ctx context.Context, args map[string]interface{}) (*ToolResult, error)

type toolDef struct {
	tool      Tool
	validator *validation.Validator
	handler   toolHandler
}

// Server exposes the flight directory as MCP tools over JSON-RPC 2.0.
type Server struct {
	repo    *flightdata.Repository
	logger  Logger
	tools   map[string]*toolDef
	order   []string
	version string
}

func NewServer(repo *flightdata.Repository, version string, log Logger) *Server {
	s := &Server{
		repo:    repo,
		logger:  log.With(map[string]interface{}{"component": "flight-mcp"}),
		tools:   make(map[string]*toolDef),
		version: version,
	}
	s.registerTools()
	return s
}

// RegisterRoutes mounts the MCP endpoint on an echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.POST("/mcp", s.handlePost)
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "flight-mcp",
			"version": s.version,
		})
	})
}

func (s *Server) handlePost(c echo.Context) error {
	var req Request
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.JSON(http.StatusOK, &Response{
			JSONRPC: JSONRPCVersion,
			Error:   &ResponseError{Code: CodeParseError, Message: "parse error"},
		})
	}
	return c.JSON(http.StatusOK, s.Handle(c.Request().Context(), &req))
}

// Handle dispatches a single JSON-RPC request.
func (s *Server) Handle(ctx context.Context, req *Request) *Response {
	if req.JSONRPC != JSONRPCVersion || req.Method == "" {
		return errorResponse(req.ID, CodeInvalidRequest, "invalid request")
	}

	switch req.Method {
	case MethodInitialize:
		return s.handleInitialize(req)
	case MethodToolsList:
		return s.handleToolsList(req)
	case MethodToolsCall:
		return s.handleToolsCall(ctx, req)
	case MethodResourcesList:
		return s.handleResourcesList(req)
	case MethodResourcesRead:
		return s.handleResourcesRead(req)
	default:
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

func (s *Server) handleInitialize(req *Request) *Response {
	return resultResponse(req.ID, &InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ServerCapabilities{
			Tools:     map[string]interface{}{},
			Resources: map[string]interface{}{},
		},
		ServerInfo: ServerInfo{Name: "tripwise-flight-mcp", Version: s.version},
	})
}

func (s *Server) handleToolsList(req *Request) *Response {
	tools := make([]Tool, 0, len(s.order))
	for _, name := range s.order {
		tools = append(tools, s.tools[name].tool)
	}
	return resultResponse(req.ID, map[string]interface{}{"tools": tools})
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) *Response {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "invalid tool call params")
	}

	def, ok := s.tools[params.Name]
	if !ok {
		return errorResponse(req.ID, CodeInvalidParams, fmt.Sprintf("unknown tool: %s", params.Name))
	}

	if params.Arguments == nil {
		params.Arguments = map[string]interface{}{}
	}
	if result := def.validator.ValidateMap(params.Arguments); !result.Valid {
		return resultResponse(req.ID, ErrorResult(
			"invalid arguments: "+strings.Join(result.GetErrorMessages(), "; ")))
	}

	start := time.Now()
	toolResult, err := def.handler(ctx, params.Arguments)
	metrics.ToolCallDuration.WithLabelValues(params.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ToolCalls.WithLabelValues(params.Name, "error").Inc()
		s.logger.Error("tool call failed", map[string]interface{}{
			"tool":  params.Name,
			"error": err.Error(),
		})
		return resultResponse(req.ID, ErrorResult(err.Error()))
	}

	metrics.ToolCalls.WithLabelValues(params.Name, "success").Inc()
	return resultResponse(req.ID, toolResult)
}

func (s *Server) handleResourcesList(req *Request) *Response {
	return resultResponse(req.ID, map[string]interface{}{
		"resources": []Resource{
			{
				URI:         "policy://baggage",
				Name:        "Baggage Policy",
				Description: "Checked and carry-on baggage allowances and fees",
				MimeType:    "text/markdown",
			},
		},
	})
}

func (s *Server) handleResourcesRead(req *Request) *Response {
	var params ResourceReadParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "invalid resource read params")
	}

	if params.URI != "policy://baggage" {
		return errorResponse(req.ID, CodeInvalidParams, fmt.Sprintf("unknown resource: %s", params.URI))
	}

	return resultResponse(req.ID, &ResourceContents{
		Contents: []ResourceContent{{
			URI:      params.URI,
			MimeType: "text/markdown",
			Text:     baggagePolicy,
		}},
	})
}

// ==========================
// Tool Registration
// ==========================

func (s *Server) registerTools() {
	s.register(Tool{
		Name:        "search_flights",
		Description: "Search flights between two airports, cheapest first. Origin and destination are IATA codes.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"origin": {"type": "string", "minLength": 3, "maxLength": 3},
				"destination": {"type": "string", "minLength": 3, "maxLength": 3},
				"date": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
				"max_results": {"type": "integer", "minimum": 1, "maximum": 50}
			},
			"required": ["origin", "destination"],
			"additionalProperties": false
		}`),
	}, s.toolSearchFlights)

	s.register(Tool{
		Name:        "get_flight",
		Description: "Look up a single flight by its id.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"flight_id": {"type": "string", "minLength": 1}
			},
			"required": ["flight_id"],
			"additionalProperties": false
		}`),
	}, s.toolGetFlight)

	s.register(Tool{
		Name:        "list_airports",
		Description: "List all airports in the directory.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {},
			"additionalProperties": false
		}`),
	}, s.toolListAirports)

	s.register(Tool{
		Name:        "get_fare_stats",
		Description: "Min, max and average fares, optionally filtered by origin and destination.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"origin": {"type": "string", "minLength": 3, "maxLength": 3},
				"destination": {"type": "string", "minLength": 3, "maxLength": 3}
			},
			"additionalProperties": false
		}`),
	}, s.toolGetFareStats)

	s.register(Tool{
		Name:        "get_schema",
		Description: "Describe the flight directory tables and columns.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {},
			"additionalProperties": false
		}`),
	}, s.toolGetSchema)

	s.register(Tool{
		Name:        "execute_query",
		Description: "Run a read-only SELECT against the flight directory. Mutating statements are rejected.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"sql": {"type": "string", "minLength": 1},
				"params": {"type": "array"}
			},
			"required": ["sql"],
			"additionalProperties": false
		}`),
	}, s.toolExecuteQuery)
}

func (s *Server) register(tool Tool, handler toolHandler) {
	s.tools[tool.Name] = &toolDef{
		tool:      tool,
		validator: validation.MustValidator(string(tool.InputSchema)),
		handler:   handler,
	}
	s.order = append(s.order, tool.Name)
}

// ==========================
// Tool Handlers
// ==========================

func (s *Server) toolSearchFlights(ctx context.Context, args map[string]interface{}) (*ToolResult, error) {
	origin, _ := args["origin"].(string)
	destination, _ := args["destination"].(string)
	date, _ := args["date"].(string)

	maxResults := 0
	if n, ok := args["max_results"].(float64); ok {
		maxResults = int(n)
	}

	flights, err := s.repo.SearchFlights(ctx, origin, destination, date, maxResults)
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]interface{}{
		"flights": flights,
		"count":   len(flights),
	})
}

func (s *Server) toolGetFlight(ctx context.Context, args map[string]interface{}) (*ToolResult, error) {
	flightID, _ := args["flight_id"].(string)

	flight, err := s.repo.GetFlight(ctx, flightID)
	if err != nil {
		return nil, err
	}
	return jsonResult(flight)
}

func (s *Server) toolListAirports(ctx context.Context, _ map[string]interface{}) (*ToolResult, error) {
	airports, err := s.repo.ListAirports(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]interface{}{
		"airports": airports,
		"count":    len(airports),
	})
}

func (s *Server) toolGetFareStats(ctx context.Context, args map[string]interface{}) (*ToolResult, error) {
	origin, _ := args["origin"].(string)
	destination, _ := args["destination"].(string)

	stats, err := s.repo.GetFareStats(ctx, origin, destination)
	if err != nil {
		return nil, err
	}
	return jsonResult(stats)
}

func (s *Server) toolGetSchema(ctx context.Context, _ map[string]interface{}) (*ToolResult, error) {
	schema, err := s.repo.GetSchema(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(schema)
}

func (s *Server) toolExecuteQuery(ctx context.Context, args map[string]interface{}) (*ToolResult, error) {
	query, _ := args["sql"].(string)

	if reason := rejectQuery(query); reason != "" {
		s.logger.Warn("query rejected", map[string]interface{}{"reason": reason})
		return ErrorResult("query rejected: " + reason), nil
	}

	var params []interface{}
	if raw, ok := args["params"].([]interface{}); ok {
		params = raw
	}

	rows, err := s.repo.ExecuteQuery(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]interface{}{
		"rows":  rows,
		"count": len(rows),
	})
}

// ==========================
// Read-Only Guard
// ==========================

var forbiddenKeywords = regexp.MustCompile(
	`(?i)\b(INSERT|UPDATE|DELETE|DROP|ALTER|CREATE|TRUNCATE|GRANT|REVOKE|ATTACH|PRAGMA|COPY)\b`)

// rejectQuery returns a non-empty reason when the SQL must not run.
func rejectQuery(query string) string {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return "empty statement"
	}
	if strings.Contains(strings.TrimSuffix(trimmed, ";"), ";") {
		return "multiple statements are not allowed"
	}
	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return "only SELECT statements are allowed"
	}
	if match := forbiddenKeywords.FindString(trimmed); match != "" {
		return fmt.Sprintf("forbidden keyword: %s", strings.ToUpper(match))
	}
	return ""
}

// ==========================
// Helpers
// ==========================

func jsonResult(v interface{}) (*ToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return TextResult(string(data)), nil
}

func resultResponse(id json.RawMessage, result interface{}) *Response {
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Result: result}
}

func errorResponse(id json.RawMessage, code int, message string) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &ResponseError{Code: code, Message: message},
	}
}

const baggagePolicy = `# Baggage Policy

## Carry-on
- One carry-on bag up to 8kg plus one personal item per passenger.
- Maximum dimensions 55 x 40 x 23 cm.

## Checked baggage
- Economy: one checked bag up to 23kg included.
- Business: two checked bags up to 32kg each included.
- Additional bags: 60 USD per bag per segment.

## Excess and special items
- Overweight fee (23-32kg): 75 USD per bag.
- Sports equipment and musical instruments travel as checked baggage
  when within size limits, otherwise require a cargo booking.

## Liability
- Damaged or delayed baggage must be reported within 7 days of arrival.
- File a complaint with your booking reference to start a claim.
`
