package auth

import (
	"context"
	"strings"
	"time"
)

// Profile is the user record maintained by the identity side. The tracker only reads it
// to greet the user on the dashboard.
type Profile struct {
	ID        string    `gorm:"type:varchar(255);column:id;primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(255);column:email" json:"email"`
	FullName  string    `gorm:"type:varchar(255);column:full_name" json:"fullName"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName specifies the database table name for Profile
func (p *Profile) TableName() string {
	return "profiles"
}

// DisplayName prefers the full name, then the local part of the email, then "User".
func (p *Profile) DisplayName() string {
	if p == nil {
		return "User"
	}
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	if local, _, found := strings.Cut(p.Email, "@"); found && local != "" {
		return local
	}
	return "User"
}

// AuthContext represents the authentication context available in a request.
// It is injected by the auth middleware once the bearer token has been verified.
type AuthContext struct {
	UserID  string
	Profile *Profile
}

type contextKey string

const authContextKey contextKey = "authContext"

// WithAuthContext returns a copy of ctx carrying authCtx.
func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

// GetAuthContext extracts the AuthContext from a request context.
// Returns nil if no auth context is available (request had no valid token).
func GetAuthContext(ctx context.Context) *AuthContext {
	authCtx, ok := ctx.Value(authContextKey).(*AuthContext)
	if !ok {
		return nil
	}
	return authCtx
}
