package mongodb

import (
	"context"
	"time"

	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/repositories"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type analyticsMongoRepository struct {
	resolver CollectionResolver
}

func NewAnalyticsMongoRepository(resolver CollectionResolver) repositories.AnalyticsRepository {
	return &analyticsMongoRepository{resolver: resolver}
}

type countRow struct {
	Key   string `bson:"_id"`
	Count int64  `bson:"count"`
}

// aggregate runs pipeline and decodes every row into out.
func (r *analyticsMongoRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	coll, err := r.resolver.Collection(ctx)
	if err != nil {
		return err
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return mapReadError(err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return mapReadError(err)
	}
	return nil
}

func (r *analyticsMongoRepository) countMap(ctx context.Context, pipeline mongo.Pipeline) (map[string]int64, error) {
	var rows []countRow
	if err := r.aggregate(ctx, pipeline, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Count
	}
	return out, nil
}

func (r *analyticsMongoRepository) trend(ctx context.Context, pipeline mongo.Pipeline) ([]models.TrendPoint, error) {
	points := []models.TrendPoint{}
	if err := r.aggregate(ctx, pipeline, &points); err != nil {
		return nil, err
	}
	return points, nil
}

func (r *analyticsMongoRepository) RoleCounts(ctx context.Context, scope models.AnalyticsScope) (map[string]int64, error) {
	return r.countMap(ctx, RoleCountsPipeline(scope))
}

func (r *analyticsMongoRepository) CountStudents(ctx context.Context, scope models.AnalyticsScope, filter repositories.StudentCountFilter) (int64, error) {
	coll, err := r.resolver.Collection(ctx)
	if err != nil {
		return 0, err
	}

	query := ScopeMatch(scope, true)
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.PlacedOnly {
		query["student.placement_status"] = bson.M{"$in": models.PlacedStatuses}
	}
	if filter.Since != nil {
		query["created_at"] = bson.M{"$gte": *filter.Since}
	}

	n, err := coll.CountDocuments(ctx, query)
	if err != nil {
		return 0, mapReadError(err)
	}
	return n, nil
}

func (r *analyticsMongoRepository) PlacementBreakdown(ctx context.Context, scope models.AnalyticsScope) (map[string]int64, error) {
	return r.countMap(ctx, PlacementBreakdownPipeline(scope))
}

func (r *analyticsMongoRepository) RegistrationTrend(ctx context.Context, scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) ([]models.TrendPoint, error) {
	return r.trend(ctx, RegistrationTrendPipeline(scope, since, interval))
}

func (r *analyticsMongoRepository) PlacementTrend(ctx context.Context, scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) ([]models.TrendPoint, error) {
	return r.trend(ctx, PlacementTrendPipeline(scope, since, interval))
}

func (r *analyticsMongoRepository) RecentActivity(ctx context.Context, scope models.AnalyticsScope, since time.Time, limit int) ([]models.ActivityItem, error) {
	items := []models.ActivityItem{}
	if err := r.aggregate(ctx, RecentActivityPipeline(scope, since, limit), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *analyticsMongoRepository) DocumentTotals(ctx context.Context, scope models.AnalyticsScope) (int64, int64, error) {
	var rows []models.DocumentTypeStat
	if err := r.aggregate(ctx, DocumentTotalsPipeline(scope), &rows); err != nil {
		return 0, 0, err
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return rows[0].Total, rows[0].Verified, nil
}

func (r *analyticsMongoRepository) DocumentTypeBreakdown(ctx context.Context, scope models.AnalyticsScope) (map[string]models.DocumentTypeStat, error) {
	var rows []struct {
		Key                     string `bson:"_id"`
		models.DocumentTypeStat `bson:",inline"`
	}
	if err := r.aggregate(ctx, DocumentTypePipeline(scope), &rows); err != nil {
		return nil, err
	}
	out := make(map[string]models.DocumentTypeStat, len(rows))
	for _, row := range rows {
		out[row.Key] = row.DocumentTypeStat
	}
	return out, nil
}

func (r *analyticsMongoRepository) VerificationTrend(ctx context.Context, scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) ([]models.TrendPoint, error) {
	return r.trend(ctx, VerificationTrendPipeline(scope, since, interval))
}

func (r *analyticsMongoRepository) PendingDocuments(ctx context.Context, scope models.AnalyticsScope, limit int) ([]models.PendingDocument, error) {
	docs := []models.PendingDocument{}
	if err := r.aggregate(ctx, PendingDocumentsPipeline(scope, limit), &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *analyticsMongoRepository) GrowthRecordCount(ctx context.Context, scope models.AnalyticsScope) (int64, error) {
	var rows []struct {
		Count int64 `bson:"count"`
	}
	if err := r.aggregate(ctx, GrowthCountPipeline(scope), &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Count, nil
}

func (r *analyticsMongoRepository) GrowthByEmploymentType(ctx context.Context, scope models.AnalyticsScope) (map[string]models.GrowthGroupStat, error) {
	var rows []struct {
		Key                    string `bson:"_id"`
		models.GrowthGroupStat `bson:",inline"`
	}
	if err := r.aggregate(ctx, GrowthByEmploymentTypePipeline(scope), &rows); err != nil {
		return nil, err
	}
	out := make(map[string]models.GrowthGroupStat, len(rows))
	for _, row := range rows {
		out[row.Key] = row.GrowthGroupStat
	}
	return out, nil
}

func (r *analyticsMongoRepository) TopCompanies(ctx context.Context, scope models.AnalyticsScope, limit int) ([]models.CompanyStat, error) {
	stats := []models.CompanyStat{}
	if err := r.aggregate(ctx, TopCompaniesPipeline(scope, limit), &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *analyticsMongoRepository) TopSkills(ctx context.Context, scope models.AnalyticsScope, limit int) ([]models.SkillStat, error) {
	stats := []models.SkillStat{}
	if err := r.aggregate(ctx, TopSkillsPipeline(scope, limit), &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *analyticsMongoRepository) GrowthSubmissionTrend(ctx context.Context, scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) ([]models.TrendPoint, error) {
	return r.trend(ctx, GrowthSubmissionTrendPipeline(scope, since, interval))
}

func (r *analyticsMongoRepository) SalaryStats(ctx context.Context, scope models.AnalyticsScope) (models.SalaryStats, error) {
	var rows []models.SalaryStats
	if err := r.aggregate(ctx, SalaryStatsPipeline(scope), &rows); err != nil {
		return models.SalaryStats{}, err
	}
	if len(rows) == 0 {
		return models.SalaryStats{}, nil
	}
	return rows[0], nil
}
