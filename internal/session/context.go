package session

import (
	"context"

	"github.com/olegiv/gamehub/internal/backend"
	"github.com/olegiv/gamehub/internal/model"
)

type contextKey struct{}

// Context is the session state of one request. It is built once by the
// session middleware and handed to handlers through the request context.
type Context struct {
	ClientID string
	Identity *backend.Identity
	Role     model.Role
	Lang     string
}

// SignedIn reports whether an identity is present.
func (c *Context) SignedIn() bool {
	return c != nil && c.Identity != nil
}

// IsAdmin reports whether the identity holds the admin role.
func (c *Context) IsAdmin() bool {
	return c.SignedIn() && c.Role == model.RoleAdmin
}

// UID returns the identity uid, or "" when signed out.
func (c *Context) UID() string {
	if !c.SignedIn() {
		return ""
	}
	return c.Identity.UID
}

// WithContext returns a copy of ctx carrying sc.
func WithContext(ctx context.Context, sc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, sc)
}

// FromContext returns the session context, or an empty signed-out one.
func FromContext(ctx context.Context) *Context {
	if sc, ok := ctx.Value(contextKey{}).(*Context); ok && sc != nil {
		return sc
	}
	return &Context{Role: model.RoleUser}
}
