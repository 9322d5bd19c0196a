package mongodb

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// searchFields are matched case-insensitively by UserFilter.Search.
var searchFields = []string{"full_name", "email", "username", "student.student_code"}

// sortFields maps accepted sort keys to document paths.
var sortFields = map[string]string{
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"full_name":    "full_name",
	"email":        "email",
	"username":     "username",
	"last_login":   "last_login",
	"student_code": "student.student_code",
}

// BuildUserFilter converts a UserFilter into a query document.
func BuildUserFilter(f models.UserFilter) bson.M {
	filter := bson.M{}

	if f.Email != "" {
		filter["email"] = strings.ToLower(strings.TrimSpace(f.Email))
	}
	if f.Username != "" {
		filter["username"] = f.Username
	}
	if f.StudentCode != "" {
		filter["student.student_code"] = f.StudentCode
	}
	if f.Role != nil {
		filter["role"] = *f.Role
	}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	if f.PlacementStatus != nil {
		filter["student.placement_status"] = *f.PlacementStatus
	}
	if f.IDs != nil {
		filter["_id"] = bson.M{"$in": f.IDs}
	}
	if f.AssignedMentor != nil {
		filter["student.assigned_mentor"] = *f.AssignedMentor
	}
	if f.HasGrowth {
		filter["professional_growth.0"] = bson.M{"$exists": true}
	}
	if f.HasMarksheets {
		filter["marksheets.0"] = bson.M{"$exists": true}
	}
	if elem := marksheetMatch(f.Marksheet); len(elem) > 0 {
		filter["marksheets"] = bson.M{"$elemMatch": elem}
	}

	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := bson.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
		or := bson.A{}
		for _, field := range searchFields {
			or = append(or, bson.M{field: pattern})
		}
		filter["$or"] = or
	}

	return filter
}

func marksheetMatch(f *models.DocumentFilter) bson.M {
	if f == nil {
		return nil
	}
	elem := bson.M{}
	if f.DocumentType != nil {
		elem["document_type"] = *f.DocumentType
	}
	if f.Verified != nil {
		elem["verified"] = *f.Verified
	}
	return elem
}

// BuildSort returns the sort document for normalized options. _id is appended
// as a tie breaker so pages never overlap.
func BuildSort(opts models.ListOptions) bson.D {
	field, ok := sortFields[opts.SortBy]
	if !ok {
		field = "created_at"
	}
	dir := -1
	if opts.SortOrder == "asc" {
		dir = 1
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}

// setDocument marshals a patch struct (nil pointer fields omitted) into a
// flat $set document with every key prefixed.
func setDocument(patch interface{}, prefix string) (bson.M, error) {
	raw, err := bson.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patch: %w", err)
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}
	out := make(bson.M, len(fields))
	for k, v := range fields {
		out[prefix+k] = v
	}
	return out, nil
}

// BuildUserSet turns an UpdateUserRequest into a $set document.
func BuildUserSet(patch *models.UpdateUserRequest) (bson.M, error) {
	set, err := setDocument(patch, "")
	if err != nil {
		return nil, err
	}
	if email, ok := set["email"].(string); ok {
		set["email"] = strings.ToLower(strings.TrimSpace(email))
	}
	if patch.Student != nil {
		student, err := setDocument(patch.Student, "student.")
		if err != nil {
			return nil, err
		}
		for k, v := range student {
			set[k] = v
		}
	}
	return set, nil
}

// BuildGrowthSet targets the matched growth record via the positional operator.
func BuildGrowthSet(patch *models.GrowthRecordInput) (bson.M, error) {
	return setDocument(patch, "professional_growth.$.")
}

// BuildMarksheetSet targets the matched marksheet via the positional operator.
func BuildMarksheetSet(patch *models.MarksheetPatch) (bson.M, error) {
	return setDocument(patch, "marksheets.$.")
}

// BuildVerificationUpdate writes the verification fields of the matched marksheet.
// A nil feedback leaves stored feedback untouched.
func BuildVerificationUpdate(u models.VerificationUpdate) bson.M {
	set := bson.M{
		"marksheets.$.verified": u.Verified,
		"updated_at":            u.At,
	}
	unset := bson.M{}
	if u.Feedback != nil {
		set["marksheets.$.feedback"] = *u.Feedback
	}
	if u.Verified {
		set["marksheets.$.verified_at"] = u.At
		if u.VerifiedBy != nil {
			set["marksheets.$.verified_by"] = *u.VerifiedBy
		}
	} else {
		unset["marksheets.$.verified_at"] = ""
		unset["marksheets.$.verified_by"] = ""
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}
