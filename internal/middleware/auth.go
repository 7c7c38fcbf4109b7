package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/erfajc97/anko-back/internal/model"

	"github.com/rs/zerolog"
)

// Injected key type to avoid context collisions
type contextKey string

const PrincipalContextKey = contextKey("principal")

// TokenParser turns a bearer access token into the authenticated principal.
type TokenParser interface {
	ParseAccess(token string) (model.Principal, error)
}

// AuthMiddleware attaches the principal of a valid bearer token to the request context.
// Requests without an Authorization header pass through anonymously; the operations
// decide whether they need a principal. A malformed or invalid token is rejected.
func AuthMiddleware(parser TokenParser, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("middleware", "auth").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				logger.Debug().Msg("Invalid authorization header")
				writeError(w, http.StatusUnauthorized, "Invalid authorization header")
				return
			}
			principal, err := parser.ParseAccess(parts[1])
			if err != nil {
				logger.Debug().Err(err).Msg("Invalid token")
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, PrincipalContextKey, p)
}

// PrincipalFromContext reports the principal injected by AuthMiddleware.
func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(PrincipalContextKey).(model.Principal)
	if !ok || p.ID == "" {
		return model.Principal{}, false
	}
	return p, true
}
