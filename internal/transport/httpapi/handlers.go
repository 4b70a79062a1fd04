// internal/transport/httpapi/handlers.go
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"tripwise/internal/common/errors"
	"tripwise/internal/common/validation"
	"tripwise/internal/models"
)

var chatRequestValidator = validation.MustValidator(`{
	"type": "object",
	"properties": {
		"sessionId": {"type": "string"},
		"userId": {"type": "string"},
		"message": {"type": "string", "minLength": 1}
	},
	"required": ["message"],
	"additionalProperties": false
}`)

var askRequestValidator = validation.MustValidator(`{
	"type": "object",
	"properties": {
		"question": {"type": "string", "minLength": 1}
	},
	"required": ["question"],
	"additionalProperties": false
}`)

func (s *Server) handleChat(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return s.errorResponse(c, errors.NewValidationFailedError("unreadable request body"))
	}

	if result := chatRequestValidator.ValidateBytes(body); !result.Valid {
		return s.errorResponse(c, errors.NewValidationFailedError(strings.Join(result.GetErrorMessages(), "; ")))
	}

	var req models.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return s.errorResponse(c, errors.NewValidationFailedError("malformed JSON body"))
	}

	resp, err := s.chat.HandleTurn(c.Request().Context(), &req)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleAsk(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return s.errorResponse(c, errors.NewValidationFailedError("unreadable request body"))
	}

	if result := askRequestValidator.ValidateBytes(body); !result.Valid {
		return s.errorResponse(c, errors.NewValidationFailedError(strings.Join(result.GetErrorMessages(), "; ")))
	}

	var req models.AskRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return s.errorResponse(c, errors.NewValidationFailedError("malformed JSON body"))
	}

	resp, err := s.chat.Ask(c.Request().Context(), req.Question)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) errorResponse(c echo.Context, err error) error {
	std := errors.AsStandardError(err)
	status := errors.StatusFor(err)

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"path":   c.Path(),
			"code":   string(std.Code),
			"status": status,
			"error":  std.Message,
		})
	} else {
		s.logger.Warn("request rejected", map[string]interface{}{
			"path":   c.Path(),
			"code":   string(std.Code),
			"status": status,
		})
	}

	return c.JSON(status, models.ErrorResponse{
		Error:   std.Message,
		Code:    string(std.Code),
		Details: std.Details,
	})
}
