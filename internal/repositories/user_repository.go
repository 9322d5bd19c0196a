package repositories

import (
	"context"

	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// UserRepository is the access layer over the users collection. Lookups return
// apperrors.ErrNotFound instead of a nil user; unique index collisions come
// back as *apperrors.DuplicateKeyError naming the field.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
	FindOne(ctx context.Context, filter models.UserFilter) (*models.User, error)
	FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.User, error)

	// Update overwrites only the supplied fields. Embedded arrays are untouched.
	Update(ctx context.Context, id bson.ObjectID, patch *models.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, id bson.ObjectID) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter, opts models.ListOptions) (*models.UserPage, error)

	// Identity sync
	UpsertIdentity(ctx context.Context, in models.IdentityUpsert) (user *models.User, created bool, err error)
	LinkExternalID(ctx context.Context, id bson.ObjectID, in models.IdentityUpsert) (*models.User, error)

	// Mentor relationship, one side per call
	SetAssignedMentor(ctx context.Context, studentID, mentorID bson.ObjectID) (*models.User, error)
	AddAssignedStudent(ctx context.Context, mentorID, studentID bson.ObjectID) (*models.User, error)
	RemoveAssignedStudent(ctx context.Context, mentorID, studentID bson.ObjectID) error
}
