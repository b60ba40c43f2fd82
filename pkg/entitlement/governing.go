package entitlement

import (
	"strings"

	"github.com/dmitrymomot/tillkit/pkg/rbac"
)

// GoverningOwner returns the identity key whose record governs the actor.
// A delegated session always resolves to its principal, even when a
// principal identity is also present. It reports false when there is no
// identity to govern.
func GoverningOwner(a rbac.Actor) (string, bool) {
	switch a.Kind() {
	case rbac.ActorDelegated:
		id := strings.TrimSpace(a.Session.PrincipalID)
		return id, id != ""
	case rbac.ActorPrincipal:
		id := strings.TrimSpace(a.Principal.ID)
		return id, id != ""
	default:
		return "", false
	}
}
