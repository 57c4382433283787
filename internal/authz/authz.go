// Package authz contains the authorization predicates invoked by handlers
// after resolution and before any mutation. The predicates are pure: they
// never touch storage and operate only on already-resolved data.
package authz

import (
	"github.com/google/uuid"

	"stackapi/internal/apperr"
)

// Fixed messages surfaced on authorization failures.
const (
	MsgNotEnoughPermissions    = "Not enough permissions"
	MsgInsufficientPrivileges  = "insufficient privileges"
	MsgInactiveUser            = "Inactive user"
	MsgCannotActOnSelfFallback = "Cannot perform this action on yourself"
)

// Identified is anything carrying an opaque unique identifier.
type Identified interface {
	GetID() uuid.UUID
}

// Owned is an entity carrying an owner reference.
type Owned interface {
	Identified
	Owner() uuid.UUID
}

// Principal is the authenticated caller as supplied by the identity
// collaborator.
type Principal interface {
	Identified
	Elevated() bool
	Active() bool
}

// Caller is the concrete principal the auth middleware resolves per request.
type Caller struct {
	ID          uuid.UUID
	IsSuperuser bool
	IsActive    bool
}

func (c Caller) GetID() uuid.UUID { return c.ID }
func (c Caller) Elevated() bool   { return c.IsSuperuser }
func (c Caller) Active() bool     { return c.IsActive }

// RequireOwnerOrElevated fails with a ForbiddenError unless the caller is
// elevated or owns the resource.
func RequireOwnerOrElevated(resourceOwnerID uuid.UUID, caller Principal) error {
	if caller.Elevated() || resourceOwnerID == caller.GetID() {
		return nil
	}
	return apperr.Forbidden(MsgNotEnoughPermissions)
}

// RequireElevated fails with a ForbiddenError unless the caller is elevated.
func RequireElevated(caller Principal) error {
	if caller.Elevated() {
		return nil
	}
	return apperr.Forbidden(MsgInsufficientPrivileges)
}

// RequireNotSelf fails with a ConflictError when the target is the caller
// itself. Used to block self-destructive actions.
func RequireNotSelf(targetID uuid.UUID, caller Principal, message string) error {
	if targetID != caller.GetID() {
		return nil
	}
	if message == "" {
		message = MsgCannotActOnSelfFallback
	}
	return apperr.Conflict(message)
}

// RequireActive fails with a ConflictError when the principal is inactive.
func RequireActive(caller Principal) error {
	if caller.Active() {
		return nil
	}
	return apperr.Conflict(MsgInactiveUser)
}
