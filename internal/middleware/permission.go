package middleware

import (
	"transport-service/internal/apperr"
	"transport-service/internal/policy"
	"transport-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequirePermission rejects callers whose role may not perform action on resource
func RequirePermission(table *policy.Table, resource, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := Role(c)
			if role == "" {
				return apperr.ErrUnauthorized
			}

			allowed, err := table.Allowed(string(role), resource, action)
			if err != nil {
				return apperr.ErrInternal.Wrap(err)
			}
			if !allowed {
				// the request logger already carries user_id and role
				logger.FromContext(c).Info("Permission denied",
					zap.String("resource", resource),
					zap.String("action", action))
				return apperr.ErrForbidden
			}
			return next(c)
		}
	}
}
