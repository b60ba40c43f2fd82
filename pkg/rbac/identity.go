package rbac

import (
	"fmt"
	"strings"
	"time"
)

// LoginMethod records how a delegated session was started.
type LoginMethod string

const (
	LoginMethodCredential LoginMethod = "credential"
	LoginMethodToken      LoginMethod = "token"
)

// Principal is the business owner who holds the subscription.
type Principal struct {
	ID string `json:"id"`
}

// DelegatedSession is a staff member acting on behalf of a principal.
// PrincipalID locates the governing subscription record; a staff member
// never owns one.
type DelegatedSession struct {
	StaffID     string        `json:"staff_id"`
	PrincipalID string        `json:"principal_id"`
	Role        Role          `json:"role"`
	Permissions PermissionSet `json:"permissions"`
	StartedAt   time.Time     `json:"started_at"`
	Method      LoginMethod   `json:"method"`
}

// NewDelegatedSession starts a session for a staff role and fills its
// permissions from the static role table.
func NewDelegatedSession(staffID, principalID string, role Role, method LoginMethod, startedAt time.Time) (*DelegatedSession, error) {
	staffID, principalID = strings.TrimSpace(staffID), strings.TrimSpace(principalID)
	if staffID == "" || principalID == "" {
		return nil, ErrInvalidSession
	}
	if !role.IsStaff() {
		return nil, fmt.Errorf("%w: %s is not a staff role", ErrInvalidRole, role)
	}
	if method == "" {
		method = LoginMethodCredential
	}

	return &DelegatedSession{
		StaffID:     staffID,
		PrincipalID: principalID,
		Role:        role,
		Permissions: ResolveRole(role),
		StartedAt:   startedAt,
		Method:      method,
	}, nil
}

// ActorKind classifies an Actor.
type ActorKind string

const (
	ActorNone      ActorKind = "none"
	ActorPrincipal ActorKind = "principal"
	ActorDelegated ActorKind = "delegated"
)

// Actor is the acting identity as reported by the identity provider.
// Both fields may be set at once, in which case the session wins.
type Actor struct {
	Principal *Principal        `json:"principal,omitempty"`
	Session   *DelegatedSession `json:"session,omitempty"`
}

// PrincipalActor returns an actor logged in as the principal id.
func PrincipalActor(id string) Actor {
	return Actor{Principal: &Principal{ID: id}}
}

// DelegatedActor returns an actor acting through s.
func DelegatedActor(s *DelegatedSession) Actor {
	return Actor{Session: s}
}

// Kind reports which identity governs the actor.
func (a Actor) Kind() ActorKind {
	switch {
	case a.Session != nil:
		return ActorDelegated
	case a.Principal != nil && a.Principal.ID != "":
		return ActorPrincipal
	default:
		return ActorNone
	}
}

// ID returns the id of whoever is physically acting: the staff member for a
// delegated session, the principal otherwise.
func (a Actor) ID() string {
	switch a.Kind() {
	case ActorDelegated:
		return a.Session.StaffID
	case ActorPrincipal:
		return a.Principal.ID
	default:
		return ""
	}
}

// Equal reports whether both actors identify the same person in the same capacity.
func (a Actor) Equal(o Actor) bool {
	if a.Kind() != o.Kind() {
		return false
	}
	switch a.Kind() {
	case ActorDelegated:
		return a.Session.StaffID == o.Session.StaffID &&
			a.Session.PrincipalID == o.Session.PrincipalID &&
			a.Session.Role == o.Session.Role
	case ActorPrincipal:
		return a.Principal.ID == o.Principal.ID
	default:
		return true
	}
}
