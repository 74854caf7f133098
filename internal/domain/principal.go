package domain

import "github.com/google/uuid"

// Principal is the authenticated actor of a request. It is built from a User
// record on every request and never stored on its own.
type Principal struct {
	ID            uuid.UUID
	Role          Role
	IsDeleted     bool
	EmailVerified bool
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
