package domain

import "time"

// Role is an application role carried in the auth token.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Identity is the authenticated caller as asserted by the external identity
// provider. Level scopes which slots a student may see; it is meaningful for
// students only.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   Role
	Level  int
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated identity.
type TokenIssuer interface {
	Issue(identity Identity, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the caller's identity.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}
