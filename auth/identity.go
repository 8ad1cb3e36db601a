package auth

import (
	"slices"
	"time"
)

// Identity is the principal behind a verified token.
type Identity struct {
	// Principal is the token subject.
	Principal string
	Roles     []string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// HasRole reports whether the identity carries role.
func (id *Identity) HasRole(role string) bool {
	return slices.Contains(id.Roles, role)
}
