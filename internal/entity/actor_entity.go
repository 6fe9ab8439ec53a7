package entity

import "github.com/google/uuid"

type ActorRole string

const (
	ActorRoleAdmin       ActorRole = "admin"
	ActorRoleClientAdmin ActorRole = "client_admin"
)

// Actor is the authenticated console user a request runs on behalf of.
type Actor struct {
	UserId   uuid.UUID
	ClientId *uuid.UUID
	Email    string
	Role     ActorRole
}

// SeesAllTenants reports whether the actor is unrestricted by client scoping.
func (a Actor) SeesAllTenants() bool {
	return a.Role == ActorRoleAdmin
}

// CanAccess reports whether a document owned by clientId is visible to the actor.
func (a Actor) CanAccess(clientId *uuid.UUID) bool {
	if a.SeesAllTenants() {
		return true
	}
	return a.ClientId != nil && clientId != nil && *clientId == *a.ClientId
}

// TenantKey groups websocket connections that share the same visibility.
func (a Actor) TenantKey() string {
	if a.SeesAllTenants() {
		return "*"
	}
	if a.ClientId == nil {
		return "user:" + a.UserId.String()
	}
	return a.ClientId.String()
}
