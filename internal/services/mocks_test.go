package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/student-portal-service/internal/events"
	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/repositories"
	"github.com/SAP-F-2025/student-portal-service/internal/validator"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// ===== USER REPOSITORY =====

type MockUserRepository struct {
	mock.Mock
}

func userOrNil(args mock.Arguments, i int) *models.User {
	if u, ok := args.Get(i).(*models.User); ok {
		return u
	}
	return nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	args := m.Called(ctx, id)
	return userOrNil(args, 0), args.Error(1)
}

func (m *MockUserRepository) FindByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	args := m.Called(ctx, externalID)
	return userOrNil(args, 0), args.Error(1)
}

func (m *MockUserRepository) FindOne(ctx context.Context, filter models.UserFilter) (*models.User, error) {
	args := m.Called(ctx, filter)
	return userOrNil(args, 0), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.User, error) {
	args := m.Called(ctx, ids)
	users, _ := args.Get(0).([]*models.User)
	return users, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, id bson.ObjectID, patch *models.UpdateUserRequest) (*models.User, error) {
	args := m.Called(ctx, id, patch)
	return userOrNil(args, 0), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	args := m.Called(ctx, id)
	return userOrNil(args, 0), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filter models.UserFilter, opts models.ListOptions) (*models.UserPage, error) {
	args := m.Called(ctx, filter, opts)
	page, _ := args.Get(0).(*models.UserPage)
	return page, args.Error(1)
}

func (m *MockUserRepository) UpsertIdentity(ctx context.Context, in models.IdentityUpsert) (*models.User, bool, error) {
	args := m.Called(ctx, in)
	return userOrNil(args, 0), args.Bool(1), args.Error(2)
}

func (m *MockUserRepository) LinkExternalID(ctx context.Context, id bson.ObjectID, in models.IdentityUpsert) (*models.User, error) {
	args := m.Called(ctx, id, in)
	return userOrNil(args, 0), args.Error(1)
}

func (m *MockUserRepository) SetAssignedMentor(ctx context.Context, studentID, mentorID bson.ObjectID) (*models.User, error) {
	args := m.Called(ctx, studentID, mentorID)
	return userOrNil(args, 0), args.Error(1)
}

func (m *MockUserRepository) AddAssignedStudent(ctx context.Context, mentorID, studentID bson.ObjectID) (*models.User, error) {
	args := m.Called(ctx, mentorID, studentID)
	return userOrNil(args, 0), args.Error(1)
}

func (m *MockUserRepository) RemoveAssignedStudent(ctx context.Context, mentorID, studentID bson.ObjectID) error {
	args := m.Called(ctx, mentorID, studentID)
	return args.Error(0)
}

// ===== RECORD REPOSITORY =====

type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) AppendGrowth(ctx context.Context, userID bson.ObjectID, record models.ProfessionalGrowthRecord) (*models.User, error) {
	args := m.Called(ctx, userID, record)
	return userOrNil(args, 0), args.Error(1)
}

func (m *MockRecordRepository) UpdateGrowth(ctx context.Context, userID, recordID bson.ObjectID, patch *models.GrowthRecordInput) (*models.ProfessionalGrowthRecord, error) {
	args := m.Called(ctx, userID, recordID, patch)
	rec, _ := args.Get(0).(*models.ProfessionalGrowthRecord)
	return rec, args.Error(1)
}

func (m *MockRecordRepository) DeleteGrowth(ctx context.Context, userID, recordID bson.ObjectID) error {
	args := m.Called(ctx, userID, recordID)
	return args.Error(0)
}

func (m *MockRecordRepository) AppendMarksheet(ctx context.Context, userID bson.ObjectID, record models.MarksheetRecord) (*models.User, error) {
	args := m.Called(ctx, userID, record)
	return userOrNil(args, 0), args.Error(1)
}

func (m *MockRecordRepository) UpdateMarksheet(ctx context.Context, userID, recordID bson.ObjectID, patch *models.MarksheetPatch) (*models.MarksheetRecord, error) {
	args := m.Called(ctx, userID, recordID, patch)
	rec, _ := args.Get(0).(*models.MarksheetRecord)
	return rec, args.Error(1)
}

func (m *MockRecordRepository) SetMarksheetVerified(ctx context.Context, userID, recordID bson.ObjectID, update models.VerificationUpdate) (*models.MarksheetRecord, error) {
	args := m.Called(ctx, userID, recordID, update)
	rec, _ := args.Get(0).(*models.MarksheetRecord)
	return rec, args.Error(1)
}

func (m *MockRecordRepository) DeleteMarksheet(ctx context.Context, userID, recordID bson.ObjectID) error {
	args := m.Called(ctx, userID, recordID)
	return args.Error(0)
}

func (m *MockRecordRepository) AppendMentorNote(ctx context.Context, userID bson.ObjectID, note models.MentorNote) (*models.User, error) {
	args := m.Called(ctx, userID, note)
	return userOrNil(args, 0), args.Error(1)
}

// ===== ANALYTICS REPOSITORY =====

type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) RoleCounts(ctx context.Context, scope models.AnalyticsScope) (map[string]int64, error) {
	args := m.Called(ctx, scope)
	v, _ := args.Get(0).(map[string]int64)
	return v, args.Error(1)
}

func (m *MockAnalyticsRepository) CountStudents(ctx context.Context, scope models.AnalyticsScope, filter repositories.StudentCountFilter) (int64, error) {
	args := m.Called(ctx, scope, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAnalyticsRepository) PlacementBreakdown(ctx context.Context, scope models.AnalyticsScope) (map[string]int64, error) {
	args := m.Called(ctx, scope)
	v, _ := args.Get(0).(map[string]int64)
	return v, args.Error(1)
}

func (m *MockAnalyticsRepository) RegistrationTrend(ctx context.Context, scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) ([]models.TrendPoint, error) {
	args := m.Called(ctx, scope, since, interval)
	v, _ := args.Get(0).([]models.TrendPoint)
	return v, args.Error(1)
}

func (m *MockAnalyticsRepository) PlacementTrend(ctx context.Context, scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) ([]models.TrendPoint, error) {
	args := m.Called(ctx, scope, since, interval)
	v, _ := args.Get(0).([]models.TrendPoint)
	return v, args.Error(1)
}

func (m *MockAnalyticsRepository) RecentActivity(ctx context.Context, scope models.AnalyticsScope, since time.Time, limit int) ([]models.ActivityItem, error) {
	args := m.Called(ctx, scope, since, limit)
	v, _ := args.Get(0).([]models.ActivityItem)
	return v, args.Error(1)
}

func (m *MockAnalyticsRepository) DocumentTotals(ctx context.Context, scope models.AnalyticsScope) (int64, int64, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockAnalyticsRepository) DocumentTypeBreakdown(ctx context.Context, scope models.AnalyticsScope) (map[string]models.DocumentTypeStat, error) {
	args := m.Called(ctx, scope)
	v, _ := args.Get(0).(map[string]models.DocumentTypeStat)
	return v, args.Error(1)
}

func (m *MockAnalyticsRepository) VerificationTrend(ctx context.Context, scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) ([]models.TrendPoint, error) {
	args := m.Called(ctx, scope, since, interval)
	v, _ := args.Get(0).([]models.TrendPoint)
	return v, args.Error(1)
}

func (m *MockAnalyticsRepository) PendingDocuments(ctx context.Context, scope models.AnalyticsScope, limit int) ([]models.PendingDocument, error) {
	args := m.Called(ctx, scope, limit)
	v, _ := args.Get(0).([]models.PendingDocument)
	return v, args.Error(1)
}

func (m *MockAnalyticsRepository) GrowthRecordCount(ctx context.Context, scope models.AnalyticsScope) (int64, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAnalyticsRepository) GrowthByEmploymentType(ctx context.Context, scope models.AnalyticsScope) (map[string]models.GrowthGroupStat, error) {
	args := m.Called(ctx, scope)
	v, _ := args.Get(0).(map[string]models.GrowthGroupStat)
	return v, args.Error(1)
}

func (m *MockAnalyticsRepository) TopCompanies(ctx context.Context, scope models.AnalyticsScope, limit int) ([]models.CompanyStat, error) {
	args := m.Called(ctx, scope, limit)
	v, _ := args.Get(0).([]models.CompanyStat)
	return v, args.Error(1)
}

func (m *MockAnalyticsRepository) TopSkills(ctx context.Context, scope models.AnalyticsScope, limit int) ([]models.SkillStat, error) {
	args := m.Called(ctx, scope, limit)
	v, _ := args.Get(0).([]models.SkillStat)
	return v, args.Error(1)
}

func (m *MockAnalyticsRepository) GrowthSubmissionTrend(ctx context.Context, scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) ([]models.TrendPoint, error) {
	args := m.Called(ctx, scope, since, interval)
	v, _ := args.Get(0).([]models.TrendPoint)
	return v, args.Error(1)
}

func (m *MockAnalyticsRepository) SalaryStats(ctx context.Context, scope models.AnalyticsScope) (models.SalaryStats, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).(models.SalaryStats), args.Error(1)
}

// ===== FIXTURE =====

type testDeps struct {
	users     *MockUserRepository
	records   *MockRecordRepository
	analytics *MockAnalyticsRepository
	audit     *repositories.LogAuditRepository
	repo      repositories.Repository
	publisher *events.MockEventPublisher
	validator *validator.Validator
	logger    *slog.Logger
}

func newTestDeps() *testDeps {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := &testDeps{
		users:     &MockUserRepository{},
		records:   &MockRecordRepository{},
		analytics: &MockAnalyticsRepository{},
		audit:     repositories.NewLogAuditRepository(logger, 100),
		publisher: events.NewMockEventPublisher(logger),
		validator: validator.New(),
		logger:    logger,
	}
	d.repo = repositories.NewRepository(d.users, d.records, d.analytics, d.audit)
	return d
}

func (d *testDeps) auditService() AuditService {
	return NewAuditService(d.repo, d.logger)
}

func (d *testDeps) auditEvents(t models.AuditEventType) []*models.AuditLog {
	logs, _, _ := d.audit.List(context.Background(), models.AuditFilter{EventType: t, Limit: 100})
	return logs
}

func adminActor() *Actor {
	return &Actor{ID: bson.NewObjectID(), Email: "admin@x.com", Role: models.RoleAdmin}
}

func mentorActor() *Actor {
	return &Actor{ID: bson.NewObjectID(), Email: "mentor@x.com", Role: models.RoleMentor}
}

func studentActor() *Actor {
	return &Actor{ID: bson.NewObjectID(), Email: "student@x.com", Role: models.RoleStudent}
}

func strPtr(s string) *string { return &s }
