package auth

import (
	"chatwav/contract"
	"chatwav/domain"
	"chatwav/errors"
	"context"
	"net/http"
	"strings"
)

type contextKey string

const identityKey contextKey = "identity"

// BearerToken reads the token from the Authorization header,
// falling back on the "token" query parameter used by browser websockets.
func BearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

// Middleware rejects requests without a valid bearer token and injects
// the caller identity into the request context.
func Middleware(verifier contract.IdentityVerifier, onError func(http.ResponseWriter, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				onError(w, errors.ErrUnauthenticated)
				return
			}
			identity, err := verifier.Verify(r.Context(), token)
			if err != nil {
				onError(w, errors.ErrInvalidToken)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(domain.Identity)
	return identity, ok
}
