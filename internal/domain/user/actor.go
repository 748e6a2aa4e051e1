package user

import (
	"errors"
	"strings"
)

var (
	ErrIDRequired  = errors.New("user: id is required")
	ErrInvalidRole = errors.New("user: invalid role")
)

type ID string

type Role string

const (
	RoleRenter Role = "renter"
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	// RoleSystem is used by internal integrations such as the payments consumer.
	RoleSystem Role = "system"
)

// Actor is the authenticated caller on whose behalf a command runs.
type Actor struct {
	ID   ID
	Role Role
}

// SystemActor identifies automated transitions.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case "", RoleRenter:
		return RoleRenter, nil
	case RoleOwner:
		return RoleOwner, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleSystem:
		return RoleSystem, nil
	}
	return "", ErrInvalidRole
}

func NewActor(id string, role string) (Actor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Actor{}, ErrIDRequired
	}
	r, err := ParseRole(role)
	if err != nil {
		return Actor{}, err
	}
	return Actor{ID: ID(id), Role: r}, nil
}

func (a Actor) IsAdmin() bool  { return a.Role == RoleAdmin }
func (a Actor) IsSystem() bool { return a.Role == RoleSystem }

// Privileged reports whether the actor bypasses ownership checks.
func (a Actor) Privileged() bool { return a.IsAdmin() || a.IsSystem() }
