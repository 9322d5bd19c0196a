package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/SAP-F-2025/student-portal-service/internal/errors"
	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/repositories"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type userMongoRepository struct {
	resolver CollectionResolver
}

func NewUserMongoRepository(resolver CollectionResolver) repositories.UserRepository {
	return &userMongoRepository{resolver: resolver}
}

// normalizeNewUser fills defaults so array operators always find arrays.
func normalizeNewUser(user *models.User, now time.Time) {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Status == "" {
		user.Status = models.StatusActive
	}
	if user.ProfessionalGrowth == nil {
		user.ProfessionalGrowth = []models.ProfessionalGrowthRecord{}
	}
	if user.Marksheets == nil {
		user.Marksheets = []models.MarksheetRecord{}
	}
	if user.Mentor != nil && user.Mentor.AssignedStudents == nil {
		user.Mentor.AssignedStudents = []bson.ObjectID{}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
}

func (r *userMongoRepository) Create(ctx context.Context, user *models.User) error {
	coll, err := r.resolver.Collection(ctx)
	if err != nil {
		return err
	}

	normalizeNewUser(user, time.Now().UTC())

	if _, err := coll.InsertOne(ctx, user); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *userMongoRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	coll, err := r.resolver.Collection(ctx)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, mapReadError(err)
	}
	return &user, nil
}

func (r *userMongoRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userMongoRepository) FindByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"external_id": externalID})
}

func (r *userMongoRepository) FindOne(ctx context.Context, filter models.UserFilter) (*models.User, error) {
	return r.findOne(ctx, BuildUserFilter(filter))
}

func (r *userMongoRepository) FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	coll, err := r.resolver.Collection(ctx)
	if err != nil {
		return nil, err
	}

	cursor, err := coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, mapReadError(err)
	}
	users := []*models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, mapReadError(err)
	}
	return users, nil
}

func (r *userMongoRepository) Update(ctx context.Context, id bson.ObjectID, patch *models.UpdateUserRequest) (*models.User, error) {
	set, err := BuildUserSet(patch)
	if err != nil {
		return nil, err
	}
	set["updated_at"] = time.Now().UTC()

	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

func (r *userMongoRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.User, error) {
	coll, err := r.resolver.Collection(ctx)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return &user, nil
}

func (r *userMongoRepository) Delete(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	coll, err := r.resolver.Collection(ctx)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, mapReadError(err)
	}
	return &user, nil
}

func (r *userMongoRepository) List(ctx context.Context, filter models.UserFilter, opts models.ListOptions) (*models.UserPage, error) {
	coll, err := r.resolver.Collection(ctx)
	if err != nil {
		return nil, err
	}

	opts = opts.Normalize()
	query := BuildUserFilter(filter)

	total, err := coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, mapReadError(err)
	}

	findOpts := options.Find().
		SetSort(BuildSort(opts)).
		SetSkip(opts.Skip()).
		SetLimit(int64(opts.PageSize))

	cursor, err := coll.Find(ctx, query, findOpts)
	if err != nil {
		return nil, mapReadError(err)
	}

	items := []*models.User{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, mapReadError(err)
	}

	return &models.UserPage{Items: items, Total: total}, nil
}

// BuildIdentityUpsert returns the update for an identity sync. Shared identity
// fields are overwritten on every call; everything else is only written when
// the document is first inserted.
func BuildIdentityUpsert(in models.IdentityUpsert) bson.M {
	set := bson.M{
		"email":      strings.ToLower(strings.TrimSpace(in.Email)),
		"role":       in.Role,
		"last_login": in.At,
		"updated_at": in.At,
	}
	if in.FirstName != "" {
		set["first_name"] = in.FirstName
	}
	if in.LastName != "" {
		set["last_name"] = in.LastName
	}
	if in.FullName != "" {
		set["full_name"] = in.FullName
	}
	if in.AvatarURL != "" {
		set["avatar_url"] = in.AvatarURL
	}

	onInsert := bson.M{
		"username":            in.Username,
		"status":              models.StatusActive,
		"professional_growth": bson.A{},
		"marksheets":          bson.A{},
		"created_at":          in.At,
	}
	if in.Role == models.RoleMentor {
		onInsert["mentor"] = bson.M{"assigned_students": bson.A{}}
	}

	return bson.M{"$set": set, "$setOnInsert": onInsert}
}

func (r *userMongoRepository) UpsertIdentity(ctx context.Context, in models.IdentityUpsert) (*models.User, bool, error) {
	coll, err := r.resolver.Collection(ctx)
	if err != nil {
		return nil, false, err
	}

	res, err := coll.UpdateOne(ctx,
		bson.M{"external_id": in.ExternalID},
		BuildIdentityUpsert(in),
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return nil, false, mapWriteError(err)
	}

	user, err := r.FindByExternalID(ctx, in.ExternalID)
	if err != nil {
		return nil, false, err
	}
	return user, res.UpsertedCount > 0, nil
}

func (r *userMongoRepository) LinkExternalID(ctx context.Context, id bson.ObjectID, in models.IdentityUpsert) (*models.User, error) {
	update := BuildIdentityUpsert(in)
	set := update["$set"].(bson.M)
	set["external_id"] = in.ExternalID

	return r.findOneAndUpdate(ctx,
		bson.M{"_id": id, "external_id": bson.M{"$exists": false}},
		bson.M{"$set": set},
	)
}

func (r *userMongoRepository) SetAssignedMentor(ctx context.Context, studentID, mentorID bson.ObjectID) (*models.User, error) {
	user, err := r.findOneAndUpdate(ctx,
		bson.M{"_id": studentID, "role": models.RoleStudent},
		bson.M{"$set": bson.M{
			"student.assigned_mentor": mentorID,
			"updated_at":              time.Now().UTC(),
		}},
	)
	if err != nil {
		return nil, fmt.Errorf("set assigned mentor: %w", err)
	}
	return user, nil
}

func (r *userMongoRepository) AddAssignedStudent(ctx context.Context, mentorID, studentID bson.ObjectID) (*models.User, error) {
	user, err := r.findOneAndUpdate(ctx,
		bson.M{"_id": mentorID, "role": models.RoleMentor},
		bson.M{
			"$addToSet": bson.M{"mentor.assigned_students": studentID},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("add assigned student: %w", err)
	}
	return user, nil
}

func (r *userMongoRepository) RemoveAssignedStudent(ctx context.Context, mentorID, studentID bson.ObjectID) error {
	coll, err := r.resolver.Collection(ctx)
	if err != nil {
		return err
	}

	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": mentorID},
		bson.M{
			"$pull": bson.M{"mentor.assigned_students": studentID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return mapWriteError(err)
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
