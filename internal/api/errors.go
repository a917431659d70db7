package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	mw "github.com/tphakala/notekeeper/internal/api/middleware"
	"github.com/tphakala/notekeeper/internal/errors"
	"github.com/tphakala/notekeeper/internal/logger"
	"github.com/tphakala/notekeeper/internal/notes"
)

// Machine readable error codes of the response envelope.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeNothingToUpdate = "NOTHING_TO_UPDATE"
	CodePermission      = "PERMISSION_DENIED"
	CodeNotFound        = "NOT_FOUND"
	CodeRateLimited     = "RATE_LIMITED"
	CodeBusy            = "SERVICE_BUSY"
	CodeHTTP            = "HTTP_ERROR"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

// Fixed details used where the error text must not reach the caller.
const (
	detailValidation = "Validation failed"
	detailNotFound   = "Note not found"
	detailNoEntry    = "Audit entry not found"
	detailInternal   = "Internal server error"
	detailBusy       = "Service is busy, retry later"
)

// ErrorResponse is the JSON envelope of every failed request.
type ErrorResponse struct {
	Detail string             `json:"detail"`
	Code   string             `json:"code"`
	Errors []notes.FieldError `json:"errors,omitempty"`
}

// errorResponseFor maps err to a status code and envelope
func errorResponseFor(err error) (int, ErrorResponse) {
	var validationErr *notes.ValidationError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Detail: detailValidation,
			Code:   CodeValidation,
			Errors: validationErr.Fields,
		}
	case errors.Is(err, notes.ErrNoFieldsToUpdate):
		return http.StatusBadRequest, ErrorResponse{Detail: notes.ErrNoFieldsToUpdate.Error(), Code: CodeNothingToUpdate}
	case errors.Is(err, notes.ErrPermissionDenied):
		return http.StatusForbidden, ErrorResponse{Detail: notes.ErrPermissionDenied.Error(), Code: CodePermission}
	case errors.Is(err, notes.ErrNoteNotFound):
		return http.StatusNotFound, ErrorResponse{Detail: detailNotFound, Code: CodeNotFound}
	case errors.Is(err, notes.ErrAuditEntryNotFound):
		return http.StatusNotFound, ErrorResponse{Detail: detailNoEntry, Code: CodeNotFound}
	case errors.Is(err, notes.ErrStoreBusy):
		return http.StatusServiceUnavailable, ErrorResponse{Detail: detailBusy, Code: CodeBusy}
	case errors.Is(err, mw.ErrRateLimited):
		return http.StatusTooManyRequests, ErrorResponse{Detail: mw.ErrRateLimited.Error(), Code: CodeRateLimited}
	case errors.As(err, &httpErr):
		if httpErr.Code >= http.StatusInternalServerError {
			return httpErr.Code, ErrorResponse{Detail: detailInternal, Code: CodeInternal}
		}
		return httpErr.Code, ErrorResponse{Detail: httpMessage(httpErr), Code: CodeHTTP}
	default:
		return http.StatusInternalServerError, ErrorResponse{Detail: detailInternal, Code: CodeInternal}
	}
}

// httpMessage renders the message of a framework error
func httpMessage(he *echo.HTTPError) string {
	if msg, ok := he.Message.(string); ok {
		return msg
	}
	if he.Message == nil {
		return http.StatusText(he.Code)
	}
	return fmt.Sprint(he.Message)
}

// NewHTTPErrorHandler returns an echo error handler that writes the error
// envelope. Server side failures are logged with full detail.
func NewHTTPErrorHandler(log logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorResponseFor(err)
		if status == http.StatusServiceUnavailable {
			c.Response().Header().Set(mw.HeaderRetryAfter, "1")
		}
		if status >= http.StatusInternalServerError && log != nil {
			log.WithContext(c.Request().Context()).Error("request failed",
				logger.String("method", c.Request().Method),
				logger.String("path", c.Path()),
				logger.Error(err))
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil && log != nil {
			log.Warn("failed to write error response", logger.Error(writeErr))
		}
	}
}
