package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/realworld-apps/conduit-neo4j/internal/model"
)

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the stored user.
type contextKey string

const userKey contextKey = "user"

// UserResolver looks up the full user record for a token subject.
// Satisfied by repository.UserRepository.
type UserResolver interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// RequireAuth enforces authentication on protected routes.
//
// It reads the JWT from the "Authorization: Token <jwt>" header, validates
// it, resolves the subject claim to a full User, and stores the user in the
// request context. A missing or invalid token stops the chain with 403.
func RequireAuth(tokens *TokenService, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveUser(r, tokens, users)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":"forbidden","message":"valid authentication required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves the user identity if a valid token is present, but
// never blocks the request. Endpoints that vary their response by viewer
// (article listings, profiles) use this; an anonymous request simply gets
// the unauthenticated shape.
func OptionalAuth(tokens *TokenService, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, err := resolveUser(r, tokens, users); err == nil && user != nil {
				r = r.WithContext(context.WithValue(r.Context(), userKey, user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser retrieves the authenticated user from the request context.
// Returns (nil, false) when the request is anonymous.
func CurrentUser(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// resolveUser extracts the token from the Authorization header, validates
// it, and loads the user named by the subject claim.
func resolveUser(r *http.Request, tokens *TokenService, users UserResolver) (*model.User, error) {
	tokenStr, err := extractToken(r)
	if err != nil {
		return nil, err
	}

	claims, err := tokens.Validate(tokenStr)
	if err != nil {
		return nil, err
	}

	return users.FindByUsername(r.Context(), claims.Subject)
}

// extractToken pulls the JWT out of "Authorization: Token <jwt>".
var errNoToken = &tokenError{"missing authorization header"}

type tokenError struct{ msg string }

func (e *tokenError) Error() string { return "auth: " + e.msg }

func extractToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errNoToken
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Token") || token == "" {
		return "", &tokenError{"malformed authorization header"}
	}

	return strings.TrimSpace(token), nil
}
