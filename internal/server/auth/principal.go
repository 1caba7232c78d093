package auth

import (
	"context"

	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/server/models"
)

// Principal is the identity bound to one authenticated request.
type Principal struct {
	UserID int64
	Email  string
	Roles  models.RoleSet
}

// PrincipalFromUser snapshots the fields the request needs.
func PrincipalFromUser(u *models.User) *Principal {
	return &Principal{UserID: u.ID, Email: u.Email, Roles: u.Roles}
}

type ctxKey string

const principalKey ctxKey = "principal"

// WithPrincipal returns a child context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal or nil for anonymous requests.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

// Authorize allows p when it holds required. A nil principal is
// common.ErrorUnauthorized, a missing role is common.ErrAccessDenied.
func Authorize(p *Principal, required models.Role) error {
	if p == nil {
		return common.ErrorUnauthorized
	}
	if !p.Roles.Contains(required) {
		return common.ErrAccessDenied
	}
	return nil
}

// IsOwnerOrAdmin allows the resource owner or anyone holding RoleAdmin.
func IsOwnerOrAdmin(p *Principal, ownerID int64) error {
	if p == nil {
		return common.ErrorUnauthorized
	}
	if p.UserID == ownerID || p.Roles.Contains(models.RoleAdmin) {
		return nil
	}
	return common.ErrAccessDenied
}
