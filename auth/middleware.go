package auth

import (
	"errors"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < len(bearerPrefix) || !strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(h[len(bearerPrefix):])
}

// Middleware rejects requests without a valid bearer token with 401 and
// attaches the Identity to accepted requests. A nil verifier disables
// authentication.
func Middleware(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if v == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := v.Verify(BearerToken(r))
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="kvops"`)
				http.Error(w, unauthorizedMessage(err), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireScope rejects requests whose identity lacks scope with 403.
// Requests without an identity pass; authentication is Middleware's job.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := IdentityFromContext(r.Context()); id != nil && !id.HasScope(scope) {
				http.Error(w, ErrForbidden.Error(), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorizedMessage(err error) string {
	for _, known := range []error{ErrMissingCredentials, ErrTokenExpired, ErrTokenMalformed} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return ErrInvalidCredentials.Error()
}
