package logger

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type contextKey int

const loggerKey contextKey = iota

// contextLoggerKey is where request-scoped loggers live in echo.Context
const contextLoggerKey = "logger"

// WithContext returns a copy of ctx carrying the logger
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromCtx retrieves the logger from a plain context, falling back to the global logger.
// Stores and services use it since they never see echo.Context.
func FromCtx(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
			return l
		}
	}
	return GetLogger()
}

// FromContext retrieves the logger from the Echo context
func FromContext(c echo.Context) *zap.Logger {
	if l, ok := c.Get(contextLoggerKey).(*zap.Logger); ok {
		return l
	}
	return FromCtx(c.Request().Context())
}

// Attach makes l the request logger for both the echo context and the
// request context handed to stores and services.
func Attach(c echo.Context, l *zap.Logger) {
	c.Set(contextLoggerKey, l)
	c.SetRequest(c.Request().WithContext(WithContext(c.Request().Context(), l)))
}
