package services

import (
	"slices"

	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Actor is the authenticated user performing an operation, as stored.
type Actor struct {
	ID        bson.ObjectID
	Email     string
	Role      models.UserRole
	IPAddress string
	UserAgent string
	RequestID string
}

// SystemActor performs identity sync on behalf of the identity provider.
var SystemActor = &Actor{Role: models.RoleAdmin, Email: "identity-provider"}

func ActorFromUser(u *models.User) *Actor {
	return &Actor{ID: u.ID, Email: u.Email, Role: u.Role}
}

func (a *Actor) IDString() string {
	if a == nil || a.ID.IsZero() {
		return ""
	}
	return a.ID.Hex()
}

func (a *Actor) Is(roles ...models.UserRole) bool {
	return a != nil && slices.Contains(roles, a.Role)
}

// IsStaff reports whether the actor reviews other users' data.
func (a *Actor) IsStaff() bool {
	return a.Is(models.RoleMentor, models.RoleAdmin)
}

// authorize rejects actors outside roles.
func authorize(actor *Actor, resource, action string, roles ...models.UserRole) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if !actor.Is(roles...) {
		return NewPermissionError(actor.IDString(), "", resource, action, "role "+string(actor.Role)+" is not allowed")
	}
	return nil
}

// ParseID converts a hex id, reporting field in the validation error.
func ParseID(field, raw string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		return bson.NilObjectID, ValidationErrors{*NewValidationError(field, "must be a valid id", raw)}
	}
	return id, nil
}
