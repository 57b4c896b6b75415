package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"transport-service/internal/apperr"
	"transport-service/internal/model"
	"transport-service/internal/policy"
	"transport-service/internal/store"
	"transport-service/internal/tenant"
	"transport-service/internal/testutil"
	"transport-service/pkg/config"
	"transport-service/pkg/jwtutil"
	"transport-service/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const signingKey = "middleware-test-key"

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func ok(c echo.Context) error { return c.NoContent(http.StatusOK) }

func jwtUtil() *jwtutil.JWTUtil {
	return jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: signingKey, ExpirationHours: 1})
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	tenantID := uint(1)
	claims := jwtutil.UserClaims{
		UserID:   5,
		Email:    "admin@acme.test",
		Role:     string(model.RoleAdmin),
		TenantID: &tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-3 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/shipments", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	c, _ := newContext(req)

	called := false
	err = Auth(jwtUtil())(func(echo.Context) error { called = true; return nil })(c)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.False(t, called)
}

func TestAuthRejectsBadHeaders(t *testing.T) {
	for _, header := range []string{"", "Token abc", "Bearer ", "Bearer not.a.jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		c, _ := newContext(req)

		err := Auth(jwtUtil())(ok)(c)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized, header)
	}
}

func TestAuthStoresClaims(t *testing.T) {
	tenantID := uint(3)
	token, err := jwtUtil().GenerateToken(9, "driver@acme.test", string(model.RoleDriver), &tenantID, "acme")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "bearer "+token)
	c, _ := newContext(req)

	require.NoError(t, Auth(jwtUtil())(ok)(c))

	userID, found := UserID(c)
	assert.True(t, found)
	assert.Equal(t, uint(9), userID)
	assert.Equal(t, model.RoleDriver, Role(c))
	require.NotNil(t, TokenTenantID(c))
	assert.Equal(t, uint(3), *TokenTenantID(c))
}

func TestRequirePermission(t *testing.T) {
	table := policy.MustNew()

	tests := []struct {
		role     model.Role
		resource string
		action   string
		want     error
	}{
		{model.RoleDriver, policy.Employees, policy.List, apperr.ErrForbidden},
		{model.RoleAdmin, policy.Employees, policy.List, nil},
		{model.RoleDispatcher, policy.Users, policy.List, apperr.ErrForbidden},
		{model.RoleDriver, policy.Shipments, policy.Status, nil},
		{"", policy.Shipments, policy.List, apperr.ErrUnauthorized},
	}
	for _, tt := range tests {
		c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil))
		if tt.role != "" {
			c.Set(KeyRole, tt.role)
		}

		err := RequirePermission(table, tt.resource, tt.action)(ok)(c)
		if tt.want == nil {
			assert.NoError(t, err)
			assert.Equal(t, http.StatusOK, rec.Code)
		} else {
			assert.ErrorIs(t, err, tt.want)
		}
	}
}

func TestPermissionDeniedLogsRoleOnce(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tenantID := uint(3)
	token, err := jwtUtil().GenerateToken(9, "driver@acme.test", string(model.RoleDriver), &tenantID, "acme")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/employees", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	c, _ := newContext(req)
	logger.Attach(c, zap.New(core))

	chain := Auth(jwtUtil())(RequirePermission(policy.MustNew(), policy.Employees, policy.List)(ok))
	assert.ErrorIs(t, chain(c), apperr.ErrForbidden)

	denied := logs.FilterMessage("Permission denied").All()
	require.Len(t, denied, 1)
	roles := 0
	for _, f := range denied[0].Context {
		if f.Key == "role" {
			roles++
			assert.Equal(t, string(model.RoleDriver), f.String)
		}
	}
	assert.Equal(t, 1, roles)
	assert.Equal(t, "employees", denied[0].ContextMap()["resource"])
}

func TestRequestIDKeepsOrGenerates(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc-123")
	c, rec := newContext(req)
	require.NoError(t, RequestID(ok)(c))
	assert.Equal(t, "abc-123", rec.Header().Get(echo.HeaderXRequestID))

	c, rec = newContext(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, RequestID(ok)(c))
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), c.Get(KeyRequestID))
}

func TestTenantMiddleware(t *testing.T) {
	db := testutil.NewDB(t)
	acme := testutil.Tenant(t, db, "acme")
	other := testutil.Tenant(t, db, "other")
	resolver := tenant.NewResolver(store.NewTenantStore(db), "")

	// token tenant only
	c, _ := newContext(httptest.NewRequest(http.MethodGet, "/", nil))
	c.Set(KeyRole, model.RoleAdmin)
	c.Set(KeyTokenTenantID, &acme.ID)
	require.NoError(t, Tenant(resolver)(ok)(c))
	tenantID, found := TenantID(c)
	assert.True(t, found)
	assert.Equal(t, acme.ID, tenantID)

	// slug of a tenant the token does not belong to
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(tenant.HeaderSlug, other.Slug)
	c, _ = newContext(req)
	c.Set(KeyRole, model.RoleAdmin)
	c.Set(KeyTokenTenantID, &acme.ID)
	assert.ErrorIs(t, Tenant(resolver)(ok)(c), apperr.ErrForbidden)

	// superadmin naming a tenant
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(tenant.HeaderSlug, other.Slug)
	c, _ = newContext(req)
	c.Set(KeyRole, model.RoleSuperadmin)
	require.NoError(t, Tenant(resolver)(ok)(c))
	current, found := CurrentTenant(c)
	require.True(t, found)
	assert.Equal(t, other.ID, current.ID)
}
