package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Role is the coarse actor role carried by a verified token. Identity
// verification itself is owned by the auth collaborator; the engine only
// consumes the yes/no outcome plus the actor id.
type Role string

const (
	RoleAdmin     Role = "admin"
	RolePresident Role = "president"
)

// TokenValidator verifies a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims represents the claims we expect from the token validator.
type Claims struct {
	ActorID  string
	ChurchID string
	Role     Role
}

type contextKeyActorID struct{}
type contextKeyChurchID struct{}
type contextKeyRole struct{}

var (
	ContextKeyActorID  = contextKeyActorID{}
	ContextKeyChurchID = contextKeyChurchID{}
	ContextKeyRole     = contextKeyRole{}
)

// GetActorID retrieves the authenticated actor ID from the context.
func GetActorID(ctx context.Context) string {
	id, ok := ctx.Value(ContextKeyActorID).(string)
	if !ok {
		return ""
	}
	return id
}

// GetChurchID retrieves the actor's church ID from the context. Empty for
// admins.
func GetChurchID(ctx context.Context) string {
	id, ok := ctx.Value(ContextKeyChurchID).(string)
	if !ok {
		return ""
	}
	return id
}

// GetRole retrieves the actor role from the context.
func GetRole(ctx context.Context) Role {
	role, ok := ctx.Value(ContextKeyRole).(Role)
	if !ok {
		return ""
	}
	return role
}

// RequireAuth validates the bearer token and stores claims in context.
func RequireAuth(validator TokenValidator, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				log.Warn().
					Str("request_id", GetRequestID(r.Context())).
					Msg("unauthorized access - missing token")
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				log.Warn().
					Err(err).
					Str("request_id", GetRequestID(r.Context())).
					Msg("unauthorized access - invalid token")
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, ContextKeyActorID, claims.ActorID)
			ctx = context.WithValue(ctx, ContextKeyChurchID, claims.ChurchID)
			ctx = context.WithValue(ctx, ContextKeyRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route on the actor's role. Must run after RequireAuth.
func RequireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetRole(r.Context()) != role {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
