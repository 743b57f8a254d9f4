package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/exproctor/internal/response"
	"github.com/stemsi/exproctor/internal/service"
	"github.com/stemsi/exproctor/internal/window"
)

// failFromError maps a service error to its HTTP status and API error code.
// Unknown errors are logged and reported as internal errors.
func failFromError(c *gin.Context, err error) {
	var violation *window.Violation
	if errors.As(err, &violation) {
		code := response.ErrWindowClosed
		if violation.Reason == window.ReasonNotYetOpen {
			code = response.ErrWindowNotOpen
		}
		response.FailWithMessage(c, http.StatusForbidden, code, violation.Error())
		return
	}

	switch {
	case errors.Is(err, service.ErrExamNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
	case errors.Is(err, service.ErrResultNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrResultNotFound)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, service.ErrNotExamOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotExamOwner)
	case errors.Is(err, service.ErrInvalidQuestions):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidQuestions)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
	case errors.Is(err, service.ErrUserExists):
		response.Fail(c, http.StatusConflict, response.ErrUserExists)
	default:
		_ = c.Error(err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// examIDParam parses the :exam_id path parameter, writing a 400 on failure.
func examIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
