package handler

import (
	"errors"
	"fmt"
	"net/http"

	"transport-service/internal/apperr"
	"transport-service/pkg/logger"
	"transport-service/pkg/validation"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorBody is the envelope of every error response
type ErrorBody struct {
	Error ErrorPayload `json:"error"`
}

// ErrorPayload carries the stable code clients branch on
type ErrorPayload struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// codes for errors raised by echo itself rather than by our code
var httpStatusCodes = map[int]string{
	http.StatusBadRequest:            "VALIDATION_ERROR",
	http.StatusUnauthorized:          "UNAUTHORIZED",
	http.StatusForbidden:             "FORBIDDEN",
	http.StatusNotFound:              "NOT_FOUND",
	http.StatusMethodNotAllowed:      "METHOD_NOT_ALLOWED",
	http.StatusRequestEntityTooLarge: "PAYLOAD_TOO_LARGE",
	http.StatusUnsupportedMediaType:  "UNSUPPORTED_MEDIA_TYPE",
	http.StatusTooManyRequests:       "RATE_LIMITED",
}

// ErrorHandler renders any error returned by a handler or middleware as
// {"error": {"code", "message", "details"}}
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	appErr := toAppError(err)
	message := appErr.Message
	if appErr.Status >= http.StatusInternalServerError {
		logger.FromContext(c).Error("Request failed",
			zap.String("code", appErr.Code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err))
		message = apperr.ErrInternal.Message
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(appErr.Status)
	} else {
		writeErr = c.JSON(appErr.Status, ErrorBody{Error: ErrorPayload{
			Code:    appErr.Code,
			Message: message,
			Details: appErr.Details,
		}})
	}
	if writeErr != nil {
		logger.FromContext(c).Error("Failed to write error response", zap.Error(writeErr))
	}
}

func toAppError(err error) *apperr.Error {
	var validationErr *validation.RequestValidationError
	if errors.As(err, &validationErr) {
		return apperr.ErrValidation.
			WithMessage("%s", validationErr.Error()).
			WithDetails(validationErr.Details())
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code, ok := httpStatusCodes[he.Code]
		if !ok {
			if he.Code < http.StatusInternalServerError {
				code = "REQUEST_ERROR"
			} else {
				return apperr.ErrInternal.Wrap(err)
			}
		}
		return &apperr.Error{Code: code, Status: he.Code, Message: fmt.Sprint(he.Message), Err: err}
	}

	return apperr.ErrInternal.Wrap(err)
}
