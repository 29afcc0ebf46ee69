package authz

import (
	"fmt"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
)

// Role is the closed set of roles the evaluator reasons about. It is a
// tagged variant rather than a string so that policy code can switch over
// it exhaustively.
type Role int

const (
	RoleStudent Role = iota
	RoleInstructor
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleInstructor:
		return "instructor"
	case RoleAdmin:
		return "admin"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// RoleFromModel maps a persisted role onto the evaluator's closed enum.
func RoleFromModel(role models.UserRole) (Role, error) {
	switch role {
	case models.RoleStudent:
		return RoleStudent, nil
	case models.RoleInstructor:
		return RoleInstructor, nil
	case models.RoleAdmin:
		return RoleAdmin, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, role)
}

// Actor is the party requesting an action. A nil *Actor is a guest
// (anonymous viewer); guests can still see live courses.
type Actor struct {
	ID   string
	Role Role
}

// ActorFromUser builds an Actor from a persisted user.
func ActorFromUser(user *models.User) (*Actor, error) {
	if user == nil {
		return nil, nil
	}
	role, err := RoleFromModel(user.Role)
	if err != nil {
		return nil, err
	}
	return &Actor{ID: user.ID, Role: role}, nil
}

func (a *Actor) is(role Role) bool {
	return a != nil && a.Role == role
}
