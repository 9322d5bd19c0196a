package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/repositories"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	recentActivityLimit   = 20
	pendingDocumentsLimit = 20
	topCompaniesLimit     = 10
	topSkillsLimit        = 10
)

// AnalyticsService provides the reporting views for admins and mentors
type AnalyticsService interface {
	Report(ctx context.Context, actor *Actor, query models.AnalyticsQuery) (*models.AnalyticsReport, error)

	Overview(ctx context.Context, scope models.AnalyticsScope, since time.Time) (*models.OverviewReport, error)
	Documents(ctx context.Context, scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) (*models.DocumentReport, error)
	Growth(ctx context.Context, scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) (*models.GrowthReport, error)
	Placement(ctx context.Context, scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) (*models.PlacementReport, error)
}

type analyticsService struct {
	repo   repositories.Repository
	logger *ServiceLogger
	now    func() time.Time
}

func NewAnalyticsService(repo repositories.Repository, logger *slog.Logger) AnalyticsService {
	return &analyticsService{
		repo:   repo,
		logger: NewServiceLogger(logger, LogConfig{Service: "student-portal", Component: "analytics"}),
		now:    time.Now,
	}
}

// Report builds the requested report. Mentors always see only their assigned
// students; admins may pass a mentor id to get the same view.
func (s *analyticsService) Report(ctx context.Context, actor *Actor, query models.AnalyticsQuery) (report *models.AnalyticsReport, err error) {
	op := s.logger.WithOperation(ctx, "analytics_report", actor)
	defer func() { op.LogResult(string(query.Type), "analytics", err) }()

	if err = authorize(actor, "analytics", "read", models.RoleAdmin, models.RoleMentor); err != nil {
		return nil, err
	}

	query = query.Normalize()
	scope, mentorID, err := s.resolveScope(ctx, actor, query.MentorID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	since := query.Since(now)
	report = &models.AnalyticsReport{
		Type:        query.Type,
		TimeFrame:   query.TimeFrame,
		Interval:    query.Interval,
		MentorID:    mentorID,
		GeneratedAt: now,
	}

	switch query.Type {
	case models.AnalyticsOverview:
		report.Overview, err = s.Overview(ctx, scope, since)
	case models.AnalyticsDocuments:
		report.Documents, err = s.Documents(ctx, scope, since, query.Interval)
	case models.AnalyticsGrowth:
		report.Growth, err = s.Growth(ctx, scope, since, query.Interval)
	case models.AnalyticsPlacement:
		report.Placement, err = s.Placement(ctx, scope, since, query.Interval)
	default:
		return nil, ValidationErrors{*NewValidationError("type", "must be one of: overview, placement, documents, growth", query.Type)}
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *analyticsService) resolveScope(ctx context.Context, actor *Actor, requested *bson.ObjectID) (models.AnalyticsScope, *bson.ObjectID, error) {
	var mentorID *bson.ObjectID
	switch {
	case actor.Role == models.RoleMentor:
		if requested != nil && *requested != actor.ID {
			return models.AnalyticsScope{}, nil, NewPermissionError(actor.IDString(), requested.Hex(), "analytics", "read", "mentors can only view their own students")
		}
		id := actor.ID
		mentorID = &id
	case requested != nil:
		mentorID = requested
	default:
		return models.AnalyticsScope{}, nil, nil
	}

	mentor, err := s.repo.Users().FindByID(ctx, *mentorID)
	if err != nil {
		return models.AnalyticsScope{}, nil, err
	}
	if mentor.Role != models.RoleMentor {
		return models.AnalyticsScope{}, nil, NewBusinessRuleError("mentor_role", "analytics scope must be a mentor",
			map[string]interface{}{"user_id": mentorID.Hex(), "role": mentor.Role})
	}
	return models.AnalyticsScope{Scoped: true, StudentIDs: mentor.AssignedStudentIDs()}, mentorID, nil
}

func (s *analyticsService) Overview(ctx context.Context, scope models.AnalyticsScope, since time.Time) (*models.OverviewReport, error) {
	a := s.repo.Analytics()

	roles, err := a.RoleCounts(ctx, scope)
	if err != nil {
		return nil, err
	}
	total, err := a.CountStudents(ctx, scope, repositories.StudentCountFilter{})
	if err != nil {
		return nil, err
	}
	active := models.StatusActive
	activeCount, err := a.CountStudents(ctx, scope, repositories.StudentCountFilter{Status: &active})
	if err != nil {
		return nil, err
	}
	recent, err := a.CountStudents(ctx, scope, repositories.StudentCountFilter{Since: &since})
	if err != nil {
		return nil, err
	}
	placed, err := a.CountStudents(ctx, scope, repositories.StudentCountFilter{PlacedOnly: true})
	if err != nil {
		return nil, err
	}
	activity, err := a.RecentActivity(ctx, scope, since, recentActivityLimit)
	if err != nil {
		return nil, err
	}

	return &models.OverviewReport{
		RoleCounts:          nonNilCounts(roles),
		TotalStudents:       total,
		ActiveStudents:      activeCount,
		RecentRegistrations: recent,
		PlacedStudents:      placed,
		PlacementRate:       models.Rate(placed, total),
		RecentActivity:      nonNilSlice(activity),
	}, nil
}

func (s *analyticsService) Documents(ctx context.Context, scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) (*models.DocumentReport, error) {
	a := s.repo.Analytics()

	total, verified, err := a.DocumentTotals(ctx, scope)
	if err != nil {
		return nil, err
	}
	byType, err := a.DocumentTypeBreakdown(ctx, scope)
	if err != nil {
		return nil, err
	}
	trend, err := a.VerificationTrend(ctx, scope, since, interval)
	if err != nil {
		return nil, err
	}
	pending, err := a.PendingDocuments(ctx, scope, pendingDocumentsLimit)
	if err != nil {
		return nil, err
	}
	if byType == nil {
		byType = map[string]models.DocumentTypeStat{}
	}

	return &models.DocumentReport{
		Total:             total,
		Verified:          verified,
		Pending:           total - verified,
		VerificationRate:  models.Rate(verified, total),
		ByType:            byType,
		VerificationTrend: nonNilSlice(trend),
		PendingDocuments:  pending,
	}, nil
}

func (s *analyticsService) Growth(ctx context.Context, scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) (*models.GrowthReport, error) {
	a := s.repo.Analytics()

	count, err := a.GrowthRecordCount(ctx, scope)
	if err != nil {
		return nil, err
	}
	byType, err := a.GrowthByEmploymentType(ctx, scope)
	if err != nil {
		return nil, err
	}
	companies, err := a.TopCompanies(ctx, scope, topCompaniesLimit)
	if err != nil {
		return nil, err
	}
	skills, err := a.TopSkills(ctx, scope, topSkillsLimit)
	if err != nil {
		return nil, err
	}
	trend, err := a.GrowthSubmissionTrend(ctx, scope, since, interval)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]models.GrowthGroupStat, len(byType))
	for k, v := range byType {
		v.AverageSalary = models.Round1(v.AverageSalary)
		v.AverageRating = models.Round1(v.AverageRating)
		groups[k] = v
	}

	return &models.GrowthReport{
		TotalRecords:     count,
		ByEmploymentType: groups,
		TopCompanies:     roundCompanies(companies),
		TopSkills:        nonNilSlice(skills),
		SubmissionTrend:  nonNilSlice(trend),
	}, nil
}

func (s *analyticsService) Placement(ctx context.Context, scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) (*models.PlacementReport, error) {
	a := s.repo.Analytics()

	total, err := a.CountStudents(ctx, scope, repositories.StudentCountFilter{})
	if err != nil {
		return nil, err
	}
	placed, err := a.CountStudents(ctx, scope, repositories.StudentCountFilter{PlacedOnly: true})
	if err != nil {
		return nil, err
	}
	breakdown, err := a.PlacementBreakdown(ctx, scope)
	if err != nil {
		return nil, err
	}
	registrations, err := a.RegistrationTrend(ctx, scope, since, interval)
	if err != nil {
		return nil, err
	}
	placements, err := a.PlacementTrend(ctx, scope, since, interval)
	if err != nil {
		return nil, err
	}
	companies, err := a.TopCompanies(ctx, scope, topCompaniesLimit)
	if err != nil {
		return nil, err
	}
	salary, err := a.SalaryStats(ctx, scope)
	if err != nil {
		return nil, err
	}
	salary.Average = models.Round1(salary.Average)

	return &models.PlacementReport{
		TotalStudents:     total,
		PlacedStudents:    placed,
		PlacementRate:     models.Rate(placed, total),
		Breakdown:         nonNilCounts(breakdown),
		RegistrationTrend: nonNilSlice(registrations),
		PlacementTrend:    nonNilSlice(placements),
		TopCompanies:      roundCompanies(companies),
		Salary:            salary,
	}, nil
}

func roundCompanies(in []models.CompanyStat) []models.CompanyStat {
	out := make([]models.CompanyStat, len(in))
	for i, c := range in {
		c.AverageSalary = models.Round1(c.AverageSalary)
		out[i] = c
	}
	return out
}

func nonNilCounts(m map[string]int64) map[string]int64 {
	if m == nil {
		return map[string]int64{}
	}
	return m
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
