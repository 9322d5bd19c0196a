package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	apperrors "github.com/SAP-F-2025/student-portal-service/internal/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CollectionResolver yields the users collection, connecting on first use.
type CollectionResolver interface {
	Collection(ctx context.Context) (*mongo.Collection, error)
}

// Index names double as the field reported on a unique collision.
var uniqueIndexFields = map[string]string{
	"email_unique":        "email",
	"username_unique":     "username",
	"external_id_unique":  "external_id",
	"student_code_unique": "student_code",
}

// UserIndexes are the indexes the users collection relies on.
func UserIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("username_unique"),
		},
		{
			Keys: bson.D{{Key: "external_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("external_id_unique").
				SetPartialFilterExpression(bson.M{"external_id": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "student.student_code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("student_code_unique").
				SetPartialFilterExpression(bson.M{"student.student_code": bson.M{"$type": "string"}}),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("role_created_at"),
		},
		{
			Keys:    bson.D{{Key: "student.assigned_mentor", Value: 1}},
			Options: options.Index().SetName("assigned_mentor"),
		},
		{
			Keys:    bson.D{{Key: "marksheets._id", Value: 1}},
			Options: options.Index().SetName("marksheet_ids"),
		},
		{
			Keys:    bson.D{{Key: "professional_growth._id", Value: 1}},
			Options: options.Index().SetName("growth_ids"),
		},
	}
}

// EnsureIndexes creates the users indexes. It is safe to call repeatedly.
func EnsureIndexes(ctx context.Context, resolver CollectionResolver, logger *slog.Logger) error {
	coll, err := resolver.Collection(ctx)
	if err != nil {
		return err
	}
	names, err := coll.Indexes().CreateMany(ctx, UserIndexes())
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	logger.Info("User indexes ensured", "indexes", names)
	return nil
}

var (
	dupIndexPattern = regexp.MustCompile(`index: (\S+) dup key`)
	dupKeyPattern   = regexp.MustCompile(`dup key: \{ ?([\w.]+):`)
)

// DuplicateField extracts the offending field from a duplicate key error message.
func DuplicateField(msg string) string {
	if m := dupIndexPattern.FindStringSubmatch(msg); m != nil {
		if field, ok := uniqueIndexFields[m[1]]; ok {
			return field
		}
	}
	if m := dupKeyPattern.FindStringSubmatch(msg); m != nil {
		key := m[1]
		if i := strings.LastIndex(key, "."); i >= 0 {
			key = key[i+1:]
		}
		return key
	}
	return "unknown"
}

// mapWriteError translates driver errors into the service error taxonomy.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.NewDuplicateKeyError(DuplicateField(err.Error()))
	}
	return mapReadError(err)
}

func mapReadError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperrors.ErrNotFound
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return apperrors.NewConnectionError(err)
	}
	return err
}
