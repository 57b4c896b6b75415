package tenant

import (
	"context"
	"testing"

	"transport-service/internal/apperr"
	"transport-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLookup struct{ mock.Mock }

func (m *mockLookup) GetBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	args := m.Called(ctx, slug)
	t, _ := args.Get(0).(*model.Tenant)
	return t, args.Error(1)
}

func (m *mockLookup) GetByID(ctx context.Context, id uint) (*model.Tenant, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*model.Tenant)
	return t, args.Error(1)
}

func uintPtr(v uint) *uint { return &v }

func TestResolvePrefersHeaderOverHostAndToken(t *testing.T) {
	acme := &model.Tenant{ID: 1, Slug: "acme", IsActive: true}
	lookup := &mockLookup{}
	lookup.On("GetBySlug", mock.Anything, "acme").Return(acme, nil)

	r := NewResolver(lookup, "example.com")
	got, err := r.Resolve(context.Background(), Request{
		Slug:          "acme",
		Host:          "other.example.com",
		TokenTenantID: uintPtr(1),
		Role:          model.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, acme, got)
	lookup.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestResolveFromSubdomain(t *testing.T) {
	lookup := &mockLookup{}
	lookup.On("GetBySlug", mock.Anything, "roadways").Return(&model.Tenant{ID: 7, Slug: "roadways", IsActive: true}, nil)

	r := NewResolver(lookup, "example.com")
	got, err := r.Resolve(context.Background(), Request{Host: "Roadways.example.com:5000"})
	require.NoError(t, err)
	assert.Equal(t, uint(7), got.ID)
}

func TestResolveFromToken(t *testing.T) {
	lookup := &mockLookup{}
	lookup.On("GetByID", mock.Anything, uint(4)).Return(&model.Tenant{ID: 4, IsActive: true}, nil)

	r := NewResolver(lookup, "")
	got, err := r.Resolve(context.Background(), Request{Host: "acme.example.com", TokenTenantID: uintPtr(4), Role: model.RoleDriver})
	require.NoError(t, err)
	assert.Equal(t, uint(4), got.ID)
}

func TestResolveErrors(t *testing.T) {
	lookup := &mockLookup{}
	lookup.On("GetBySlug", mock.Anything, "ghost").Return(nil, apperr.NotFound("tenant"))
	lookup.On("GetBySlug", mock.Anything, "closed").Return(&model.Tenant{ID: 2, Slug: "closed", IsActive: false}, nil)
	lookup.On("GetBySlug", mock.Anything, "acme").Return(&model.Tenant{ID: 1, Slug: "acme", IsActive: true}, nil)
	r := NewResolver(lookup, "")

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"unknown slug", Request{Slug: "ghost"}, apperr.ErrTenantNotFound},
		{"nothing to go on", Request{}, apperr.ErrTenantRequired},
		{"inactive", Request{Slug: "closed"}, apperr.ErrTenantInactive},
		{"token for another tenant", Request{Slug: "acme", TokenTenantID: uintPtr(9), Role: model.RoleAdmin}, apperr.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSuperadminMayNameAnyTenant(t *testing.T) {
	lookup := &mockLookup{}
	lookup.On("GetBySlug", mock.Anything, "acme").Return(&model.Tenant{ID: 1, Slug: "acme", IsActive: true}, nil)

	got, err := NewResolver(lookup, "").Resolve(context.Background(), Request{Slug: "acme", Role: model.RoleSuperadmin})
	require.NoError(t, err)
	assert.Equal(t, uint(1), got.ID)
}

func TestSlugFromHost(t *testing.T) {
	tests := []struct {
		host, base, want string
	}{
		{"acme.example.com", "example.com", "acme"},
		{"acme.example.com:8080", "example.com", "acme"},
		{"a.b.example.com", "example.com", "a"},
		{"example.com", "example.com", ""},
		{"www.example.com", "example.com", ""},
		{"acme.other.com", "example.com", ""},
		{"acme.example.com", "", ""},
		{"localhost:5000", "example.com", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SlugFromHost(tt.host, tt.base), tt.host)
	}
}
