package middleware

import (
	"errors"
	"strings"

	"transport-service/internal/apperr"
	"transport-service/internal/model"
	"transport-service/pkg/jwtutil"
	"transport-service/pkg/logger"
	"transport-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Auth validates the bearer token and stores the caller in the context.
// Every failure is a 401 UNAUTHORIZED so clients know to drop the token.
func Auth(jwt *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				prometheus.RecordAuthError("missing_token")
				return apperr.ErrUnauthorized.WithMessage("Missing authorization token")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				prometheus.RecordAuthError("invalid_format")
				return apperr.ErrUnauthorized.WithMessage("Invalid authorization format, expected Bearer token")
			}

			claims, err := jwt.ValidateToken(strings.TrimSpace(parts[1]))
			if err != nil {
				if errors.Is(err, jwtutil.ErrExpired) {
					prometheus.RecordAuthError("expired_token")
					return apperr.ErrUnauthorized.WithMessage("Token has expired")
				}
				log.Warn("Invalid JWT token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return apperr.ErrUnauthorized.WithMessage("Invalid token")
			}

			role := model.Role(claims.Role)
			if !role.Valid() {
				prometheus.RecordAuthError("invalid_role")
				return apperr.ErrUnauthorized.WithMessage("Invalid token")
			}

			c.Set(KeyUserID, claims.UserID)
			c.Set(KeyEmail, claims.Email)
			c.Set(KeyRole, role)
			c.Set(KeyTokenTenantID, claims.TenantID)

			withUser := log.With(zap.Uint("user_id", claims.UserID), zap.String("role", claims.Role))
			logger.Attach(c, withUser)

			return next(c)
		}
	}
}

// TokenTenantID returns the tenant named by the token, nil for superadmins
func TokenTenantID(c echo.Context) *uint {
	id, _ := c.Get(KeyTokenTenantID).(*uint)
	return id
}
