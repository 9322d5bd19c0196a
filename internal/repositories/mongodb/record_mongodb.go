package mongodb

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/SAP-F-2025/student-portal-service/internal/errors"
	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/repositories"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	growthField    = "professional_growth"
	marksheetField = "marksheets"
	noteField      = "mentor_notes"
)

// recordMongoRepository edits embedded arrays in place with $push, positional
// $set and $pull. Writers touching different records of one user do not
// overwrite each other.
type recordMongoRepository struct {
	resolver CollectionResolver
}

func NewRecordMongoRepository(resolver CollectionResolver) repositories.RecordRepository {
	return &recordMongoRepository{resolver: resolver}
}

func (r *recordMongoRepository) AppendGrowth(ctx context.Context, userID bson.ObjectID, record models.ProfessionalGrowthRecord) (*models.User, error) {
	return r.push(ctx, userID, growthField, record)
}

func (r *recordMongoRepository) AppendMarksheet(ctx context.Context, userID bson.ObjectID, record models.MarksheetRecord) (*models.User, error) {
	return r.push(ctx, userID, marksheetField, record)
}

func (r *recordMongoRepository) AppendMentorNote(ctx context.Context, userID bson.ObjectID, note models.MentorNote) (*models.User, error) {
	return r.push(ctx, userID, noteField, note)
}

func (r *recordMongoRepository) push(ctx context.Context, userID bson.ObjectID, field string, record interface{}) (*models.User, error) {
	coll, err := r.resolver.Collection(ctx)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = coll.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$push": bson.M{field: record},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return &user, nil
}

func (r *recordMongoRepository) UpdateGrowth(ctx context.Context, userID, recordID bson.ObjectID, patch *models.GrowthRecordInput) (*models.ProfessionalGrowthRecord, error) {
	set, err := BuildGrowthSet(patch)
	if err != nil {
		return nil, err
	}
	user, err := r.updateRecord(ctx, userID, recordID, growthField, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	return findGrowth(user, recordID)
}

func (r *recordMongoRepository) UpdateMarksheet(ctx context.Context, userID, recordID bson.ObjectID, patch *models.MarksheetPatch) (*models.MarksheetRecord, error) {
	set, err := BuildMarksheetSet(patch)
	if err != nil {
		return nil, err
	}
	user, err := r.updateRecord(ctx, userID, recordID, marksheetField, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	return findMarksheet(user, recordID)
}

func (r *recordMongoRepository) SetMarksheetVerified(ctx context.Context, userID, recordID bson.ObjectID, update models.VerificationUpdate) (*models.MarksheetRecord, error) {
	user, err := r.updateRecord(ctx, userID, recordID, marksheetField, BuildVerificationUpdate(update))
	if err != nil {
		return nil, err
	}
	return findMarksheet(user, recordID)
}

// updateRecord applies update to the user whose array holds recordID.
func (r *recordMongoRepository) updateRecord(ctx context.Context, userID, recordID bson.ObjectID, field string, update bson.M) (*models.User, error) {
	coll, err := r.resolver.Collection(ctx)
	if err != nil {
		return nil, err
	}

	set, _ := update["$set"].(bson.M)
	if set == nil {
		set = bson.M{}
		update["$set"] = set
	}
	set["updated_at"] = time.Now().UTC()

	var user models.User
	err = coll.FindOneAndUpdate(ctx,
		bson.M{"_id": userID, field + "._id": recordID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err == nil {
		return &user, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.missing(ctx, coll, userID)
	}
	return nil, mapWriteError(err)
}

func (r *recordMongoRepository) DeleteGrowth(ctx context.Context, userID, recordID bson.ObjectID) error {
	return r.pull(ctx, userID, recordID, growthField)
}

func (r *recordMongoRepository) DeleteMarksheet(ctx context.Context, userID, recordID bson.ObjectID) error {
	return r.pull(ctx, userID, recordID, marksheetField)
}

func (r *recordMongoRepository) pull(ctx context.Context, userID, recordID bson.ObjectID, field string) error {
	coll, err := r.resolver.Collection(ctx)
	if err != nil {
		return err
	}

	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": userID, field + "._id": recordID},
		bson.M{
			"$pull": bson.M{field: bson.M{"_id": recordID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return mapWriteError(err)
	}
	if res.MatchedCount == 0 {
		return r.missing(ctx, coll, userID)
	}
	return nil
}

// missing decides between a missing user and a missing record.
func (r *recordMongoRepository) missing(ctx context.Context, coll *mongo.Collection, userID bson.ObjectID) error {
	n, err := coll.CountDocuments(ctx, bson.M{"_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return mapReadError(err)
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return apperrors.ErrRecordNotFound
}

func findGrowth(user *models.User, id bson.ObjectID) (*models.ProfessionalGrowthRecord, error) {
	for i := range user.ProfessionalGrowth {
		if user.ProfessionalGrowth[i].ID == id {
			return &user.ProfessionalGrowth[i], nil
		}
	}
	return nil, apperrors.ErrRecordNotFound
}

func findMarksheet(user *models.User, id bson.ObjectID) (*models.MarksheetRecord, error) {
	for i := range user.Marksheets {
		if user.Marksheets[i].ID == id {
			return &user.Marksheets[i], nil
		}
	}
	return nil, apperrors.ErrRecordNotFound
}
