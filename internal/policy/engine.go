// Package policy decides whether a principal may perform an action. It does
// no I/O: callers load the resource and pass the owner id in.
package policy

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/waste3d/learning-platform/internal/domain"
)

type Action string

const (
	ManageCourse  Action = "course:manage"
	ManageLesson  Action = "lesson:manage"
	ManageQuiz    Action = "quiz:manage"
	ReadProfile   Action = "profile:read"
	UpdateProfile Action = "profile:update"
	TrackProgress Action = "enrollment:progress"
)

type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) Allowed() bool { return d == Allow }

func (d Decision) String() string {
	if d == Allow {
		return "ALLOW"
	}
	return "DENY"
}

type roleSet map[domain.Role]struct{}

func newRoleSet(roles ...domain.Role) roleSet {
	s := make(roleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

func (s roleSet) has(r domain.Role) bool {
	_, ok := s[r]
	return ok
}

// Engine holds, per action, the roles an owner must have for the ownership
// rule to apply. Actions not registered are admin-only.
type Engine struct {
	owners map[Action]roleSet
}

func NewEngine() *Engine {
	return &Engine{owners: map[Action]roleSet{
		ManageCourse:  newRoleSet(domain.RoleTeacher),
		ManageLesson:  newRoleSet(domain.RoleTeacher),
		ManageQuiz:    newRoleSet(domain.RoleTeacher),
		ReadProfile:   newRoleSet(domain.RoleAdmin, domain.RoleTeacher, domain.RoleStudent),
		UpdateProfile: newRoleSet(domain.RoleAdmin, domain.RoleTeacher, domain.RoleStudent),
		TrackProgress: newRoleSet(domain.RoleStudent),
	}}
}

// Authorize applies the rules in order, first match wins:
//  1. disabled principal -> Deny
//  2. admin -> Allow
//  3. principal owns the resource with a role allowed for the action -> Allow
//  4. Deny
func (e *Engine) Authorize(p domain.Principal, action Action, ownerID uuid.UUID) Decision {
	if p.IsDeleted {
		return Deny
	}
	if p.Role == domain.RoleAdmin {
		return Allow
	}
	if ownerID != uuid.Nil && ownerID == p.ID && e.owners[action].has(p.Role) {
		return Allow
	}
	return Deny
}

// AuthorizeRole is a plain role membership test, independent of ownership.
func (e *Engine) AuthorizeRole(p domain.Principal, roles ...domain.Role) Decision {
	if p.IsDeleted {
		return Deny
	}
	for _, r := range roles {
		if p.Role == r {
			return Allow
		}
	}
	return Deny
}

// Require is Authorize returning domain.ErrForbidden on Deny.
func (e *Engine) Require(p domain.Principal, action Action, ownerID uuid.UUID) error {
	if e.Authorize(p, action, ownerID) == Allow {
		return nil
	}
	if p.IsDeleted {
		return fmt.Errorf("%w: account disabled", domain.ErrForbidden)
	}
	return fmt.Errorf("%w: not allowed to %s", domain.ErrForbidden, action)
}

// RequireRole is AuthorizeRole returning domain.ErrForbidden on Deny.
func (e *Engine) RequireRole(p domain.Principal, roles ...domain.Role) error {
	if e.AuthorizeRole(p, roles...) == Allow {
		return nil
	}
	if p.IsDeleted {
		return fmt.Errorf("%w: account disabled", domain.ErrForbidden)
	}
	return fmt.Errorf("%w: required role(s) %v", domain.ErrForbidden, roles)
}

// Can reports whether an optional viewer may manage a resource. Anonymous
// viewers never can.
func (e *Engine) Can(viewer *domain.Principal, action Action, ownerID uuid.UUID) bool {
	return viewer != nil && e.Authorize(*viewer, action, ownerID) == Allow
}
