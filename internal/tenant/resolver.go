// Package tenant maps an incoming request to the transporter it acts on.
package tenant

import (
	"context"
	"errors"
	"net"
	"strings"

	"transport-service/internal/apperr"
	"transport-service/internal/model"
)

// HeaderSlug names the tenant explicitly, ahead of host and token
const HeaderSlug = "X-Tenant-Slug"

// subdomains that never name a tenant
var reservedLabels = map[string]bool{"www": true, "api": true, "app": true}

// Lookup finds tenants by slug or id
type Lookup interface {
	GetBySlug(ctx context.Context, slug string) (*model.Tenant, error)
	GetByID(ctx context.Context, id uint) (*model.Tenant, error)
}

// Request is what the resolver reads from one HTTP request
type Request struct {
	Slug string
	Host string
	// Token fields are empty for unauthenticated requests
	TokenTenantID *uint
	Role          model.Role
}

// Resolver picks the tenant for a request
type Resolver struct {
	tenants    Lookup
	baseDomain string
}

// NewResolver creates a resolver. An empty baseDomain disables subdomain lookup.
func NewResolver(tenants Lookup, baseDomain string) *Resolver {
	return &Resolver{tenants: tenants, baseDomain: strings.ToLower(strings.TrimSpace(baseDomain))}
}

// Resolve returns the active tenant named by the header, the host or the
// token, in that order.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*model.Tenant, error) {
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = SlugFromHost(req.Host, r.baseDomain)
	}

	var (
		t   *model.Tenant
		err error
	)
	switch {
	case slug != "":
		t, err = r.tenants.GetBySlug(ctx, slug)
		if err != nil {
			return nil, notFound(err)
		}
		if req.TokenTenantID != nil && req.Role != model.RoleSuperadmin && *req.TokenTenantID != t.ID {
			return nil, apperr.ErrForbidden.WithMessage("Token does not belong to tenant %q", t.Slug)
		}
	case req.TokenTenantID != nil:
		t, err = r.tenants.GetByID(ctx, *req.TokenTenantID)
		if err != nil {
			return nil, notFound(err)
		}
	default:
		return nil, apperr.ErrTenantRequired
	}

	if !t.IsActive {
		return nil, apperr.ErrTenantInactive
	}
	return t, nil
}

func notFound(err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.ErrTenantNotFound.Wrap(err)
	}
	return err
}

// SlugFromHost returns the first label of host when host is a subdomain of
// baseDomain, e.g. "acme.example.com" -> "acme". The port is ignored.
func SlugFromHost(host, baseDomain string) string {
	if baseDomain == "" || host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))

	suffix := "." + baseDomain
	if !strings.HasSuffix(host, suffix) {
		return ""
	}
	prefix := strings.TrimSuffix(host, suffix)
	if prefix == "" {
		return ""
	}
	label := strings.Split(prefix, ".")[0]
	if reservedLabels[label] {
		return ""
	}
	return label
}
