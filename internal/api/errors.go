package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roach88/esquery/internal/backend"
	"github.com/roach88/esquery/internal/planner"
)

// ErrorCode is a machine-readable error category.
type ErrorCode string

const (
	ErrorCodeInvalidQuery   ErrorCode = "INVALID_QUERY"
	ErrorCodeIndexNotFound  ErrorCode = "INDEX_NOT_FOUND"
	ErrorCodeNoElement      ErrorCode = "NO_ELEMENT"
	ErrorCodeDecode         ErrorCode = "DECODE"
	ErrorCodeBackendFailure ErrorCode = "BACKEND_ERROR"
)

// APIError is the error envelope every failing route returns.
type APIError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) sendError(c *gin.Context, status int, code ErrorCode, message string) {
	c.AbortWithStatusJSON(status, &APIError{
		Code:      code,
		Message:   message,
		RequestID: c.GetString(requestIDKey),
		Timestamp: s.now().UTC(),
	})
}

// sendPlanError maps an execution error onto a status and code.
func (s *Server) sendPlanError(c *gin.Context, err error) {
	var pe *planner.PlanError
	switch {
	case errors.As(err, &pe):
		switch pe.Code {
		case planner.ErrCodeDecode:
			s.sendError(c, http.StatusInternalServerError, ErrorCodeDecode, err.Error())
		case planner.ErrCodeNoElement:
			s.sendError(c, http.StatusNotFound, ErrorCodeNoElement, err.Error())
		default:
			s.sendError(c, http.StatusBadRequest, ErrorCode(pe.Code), err.Error())
		}
	case errors.Is(err, backend.ErrIndexNotFound):
		s.sendError(c, http.StatusNotFound, ErrorCodeIndexNotFound, err.Error())
	default:
		s.logger.Warn("backend request failed", "path", c.FullPath(), "error", err)
		s.sendError(c, http.StatusBadGateway, ErrorCodeBackendFailure, err.Error())
	}
}
