package auth

import (
	"slices"
	"time"
)

// Identity is an authenticated caller.
type Identity struct {
	// Principal is the token subject.
	Principal string

	// Scopes are the space-separated entries of the "scope" claim.
	Scopes []string

	ExpiresAt time.Time
	IssuedAt  time.Time
}

// HasScope reports whether the identity carries scope.
func (id *Identity) HasScope(scope string) bool {
	return id != nil && slices.Contains(id.Scopes, scope)
}
