package mongodb

import (
	"time"

	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ScopeMatch restricts documents to the scope's students. studentsOnly adds a
// role filter for queries that only make sense over students.
func ScopeMatch(scope models.AnalyticsScope, studentsOnly bool) bson.M {
	match := bson.M{}
	if scope.Scoped {
		ids := scope.StudentIDs
		if ids == nil {
			ids = []bson.ObjectID{}
		}
		match["_id"] = bson.M{"$in": ids}
	}
	if studentsOnly {
		match["role"] = models.RoleStudent
	}
	return match
}

// bucketFormat is the $dateToString format for a trend interval.
func bucketFormat(interval models.TrendInterval) string {
	if interval == models.IntervalMonth {
		return "%Y-%m"
	}
	return "%Y-%m-%d"
}

// trendStages groups by the bucket of dateField, ascending.
func trendStages(dateField string, interval models.TrendInterval) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format":   bucketFormat(interval),
				"date":     "$" + dateField,
				"timezone": "UTC",
			}},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

func matchStage(m bson.M) bson.D {
	return bson.D{{Key: "$match", Value: m}}
}

func unwindStage(field string) bson.D {
	return bson.D{{Key: "$unwind", Value: "$" + field}}
}

// RoleCountsPipeline counts users per role.
func RoleCountsPipeline(scope models.AnalyticsScope) mongo.Pipeline {
	return mongo.Pipeline{
		matchStage(ScopeMatch(scope, false)),
		{{Key: "$group", Value: bson.M{"_id": "$role", "count": bson.M{"$sum": 1}}}},
	}
}

// PlacementBreakdownPipeline counts students per placement status; students
// without a status count as Not Placed.
func PlacementBreakdownPipeline(scope models.AnalyticsScope) mongo.Pipeline {
	return mongo.Pipeline{
		matchStage(ScopeMatch(scope, true)),
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$ifNull": bson.A{"$student.placement_status", string(models.PlacementNotPlaced)}},
			"count": bson.M{"$sum": 1},
		}}},
	}
}

// RegistrationTrendPipeline buckets student creation times within the window.
func RegistrationTrendPipeline(scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) mongo.Pipeline {
	match := ScopeMatch(scope, true)
	match["created_at"] = bson.M{"$gte": since}
	return append(mongo.Pipeline{matchStage(match)}, trendStages("created_at", interval)...)
}

// PlacementTrendPipeline buckets the last update of placed students within the
// window; placement changes carry no dedicated timestamp.
func PlacementTrendPipeline(scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) mongo.Pipeline {
	match := ScopeMatch(scope, true)
	match["student.placement_status"] = bson.M{"$in": models.PlacedStatuses}
	match["updated_at"] = bson.M{"$gte": since}
	return append(mongo.Pipeline{matchStage(match)}, trendStages("updated_at", interval)...)
}

// RecentActivityPipeline lists users updated within the window, newest first.
func RecentActivityPipeline(scope models.AnalyticsScope, since time.Time, limit int) mongo.Pipeline {
	match := ScopeMatch(scope, false)
	match["updated_at"] = bson.M{"$gte": since}
	return mongo.Pipeline{
		matchStage(match),
		{{Key: "$sort", Value: bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.M{
			"full_name":  1,
			"email":      1,
			"role":       1,
			"updated_at": 1,
		}}},
	}
}

// DocumentTotalsPipeline flattens marksheets and counts total and verified.
func DocumentTotalsPipeline(scope models.AnalyticsScope) mongo.Pipeline {
	return mongo.Pipeline{
		matchStage(ScopeMatch(scope, false)),
		unwindStage(marksheetField),
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"total":    bson.M{"$sum": 1},
			"verified": bson.M{"$sum": bson.M{"$cond": bson.A{"$marksheets.verified", 1, 0}}},
		}}},
	}
}

// DocumentTypePipeline groups flattened marksheets by document type.
func DocumentTypePipeline(scope models.AnalyticsScope) mongo.Pipeline {
	return mongo.Pipeline{
		matchStage(ScopeMatch(scope, false)),
		unwindStage(marksheetField),
		{{Key: "$group", Value: bson.M{
			"_id":      "$marksheets.document_type",
			"total":    bson.M{"$sum": 1},
			"verified": bson.M{"$sum": bson.M{"$cond": bson.A{"$marksheets.verified", 1, 0}}},
		}}},
	}
}

// VerificationTrendPipeline buckets verification times within the window.
func VerificationTrendPipeline(scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) mongo.Pipeline {
	return append(mongo.Pipeline{
		matchStage(ScopeMatch(scope, false)),
		unwindStage(marksheetField),
		matchStage(bson.M{
			"marksheets.verified":    true,
			"marksheets.verified_at": bson.M{"$gte": since},
		}),
	}, trendStages("marksheets.verified_at", interval)...)
}

// PendingDocumentsPipeline lists unverified marksheets, oldest upload first.
func PendingDocumentsPipeline(scope models.AnalyticsScope, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		matchStage(ScopeMatch(scope, false)),
		unwindStage(marksheetField),
		matchStage(bson.M{"marksheets.verified": false}),
		{{Key: "$sort", Value: bson.D{{Key: "marksheets.upload_date", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.M{
			"_id":          0,
			"user_id":      "$_id",
			"full_name":    1,
			"email":        1,
			"student_code": "$student.student_code",
			"document":     "$marksheets",
		}}},
	}
}

// GrowthCountPipeline counts flattened growth records.
func GrowthCountPipeline(scope models.AnalyticsScope) mongo.Pipeline {
	return mongo.Pipeline{
		matchStage(ScopeMatch(scope, false)),
		unwindStage(growthField),
		{{Key: "$count", Value: "count"}},
	}
}

// GrowthByEmploymentTypePipeline groups growth records by employment type with
// average salary and rating. Records without a type fall under Unspecified.
func GrowthByEmploymentTypePipeline(scope models.AnalyticsScope) mongo.Pipeline {
	return mongo.Pipeline{
		matchStage(ScopeMatch(scope, false)),
		unwindStage(growthField),
		{{Key: "$group", Value: bson.M{
			"_id":        bson.M{"$ifNull": bson.A{"$professional_growth.employment_type", "Unspecified"}},
			"count":      bson.M{"$sum": 1},
			"avg_salary": bson.M{"$avg": "$professional_growth.salary"},
			"avg_rating": bson.M{"$avg": "$professional_growth.rating"},
		}}},
		{{Key: "$project", Value: bson.M{
			"count":      1,
			"avg_salary": bson.M{"$ifNull": bson.A{"$avg_salary", 0}},
			"avg_rating": bson.M{"$ifNull": bson.A{"$avg_rating", 0}},
		}}},
	}
}

// companyExpr prefers the employment-form company, then the narrative organization.
var companyExpr = bson.M{"$ifNull": bson.A{"$professional_growth.company_name", "$professional_growth.current_organization"}}

// TopCompaniesPipeline ranks companies across both record shapes.
func TopCompaniesPipeline(scope models.AnalyticsScope, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		matchStage(ScopeMatch(scope, false)),
		unwindStage(growthField),
		{{Key: "$project", Value: bson.M{
			"company": companyExpr,
			"salary":  "$professional_growth.salary",
		}}},
		matchStage(bson.M{"company": bson.M{"$nin": bson.A{nil, ""}}}),
		{{Key: "$group", Value: bson.M{
			"_id":        "$company",
			"count":      bson.M{"$sum": 1},
			"avg_salary": bson.M{"$avg": "$salary"},
		}}},
		{{Key: "$project", Value: bson.M{
			"count":      1,
			"avg_salary": bson.M{"$ifNull": bson.A{"$avg_salary", 0}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
}

// TopSkillsPipeline ranks skills listed on growth records.
func TopSkillsPipeline(scope models.AnalyticsScope, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		matchStage(ScopeMatch(scope, false)),
		unwindStage(growthField),
		unwindStage(growthField + ".skills_acquired"),
		{{Key: "$group", Value: bson.M{
			"_id":   "$professional_growth.skills_acquired",
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
}

// GrowthSubmissionTrendPipeline buckets growth submissions within the window.
func GrowthSubmissionTrendPipeline(scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) mongo.Pipeline {
	return append(mongo.Pipeline{
		matchStage(ScopeMatch(scope, false)),
		unwindStage(growthField),
		matchStage(bson.M{"professional_growth.submission_date": bson.M{"$gte": since}}),
	}, trendStages("professional_growth.submission_date", interval)...)
}

// SalaryStatsPipeline summarises reported salaries.
func SalaryStatsPipeline(scope models.AnalyticsScope) mongo.Pipeline {
	return mongo.Pipeline{
		matchStage(ScopeMatch(scope, false)),
		unwindStage(growthField),
		matchStage(bson.M{"professional_growth.salary": bson.M{"$type": "number"}}),
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"avg":   bson.M{"$avg": "$professional_growth.salary"},
			"min":   bson.M{"$min": "$professional_growth.salary"},
			"max":   bson.M{"$max": "$professional_growth.salary"},
			"count": bson.M{"$sum": 1},
		}}},
	}
}
