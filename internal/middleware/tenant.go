package middleware

import (
	"transport-service/internal/tenant"
	"transport-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Tenant resolves the tenant for an authenticated request and stores it
// under KeyTenant and KeyTenantID. Mount it after Auth.
func Tenant(resolver *tenant.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			t, err := resolver.Resolve(c.Request().Context(), tenant.Request{
				Slug:          c.Request().Header.Get(tenant.HeaderSlug),
				Host:          c.Request().Host,
				TokenTenantID: TokenTenantID(c),
				Role:          Role(c),
			})
			if err != nil {
				return err
			}

			c.Set(KeyTenant, t)
			c.Set(KeyTenantID, t.ID)

			log := logger.FromContext(c).With(zap.Uint("tenant_id", t.ID))
			logger.Attach(c, log)

			return next(c)
		}
	}
}
