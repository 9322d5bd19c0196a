package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Repository groups every store the services use.
type Repository interface {
	Users() UserRepository
	Records() RecordRepository
	Analytics() AnalyticsRepository
	Audit() AuditRepository
}

// RecordRepository mutates the embedded record arrays of a user. Operations
// return apperrors.ErrNotFound when the user is absent and
// apperrors.ErrRecordNotFound when the user exists without the record.
type RecordRepository interface {
	// Professional growth
	AppendGrowth(ctx context.Context, userID bson.ObjectID, record models.ProfessionalGrowthRecord) (*models.User, error)
	UpdateGrowth(ctx context.Context, userID, recordID bson.ObjectID, patch *models.GrowthRecordInput) (*models.ProfessionalGrowthRecord, error)
	DeleteGrowth(ctx context.Context, userID, recordID bson.ObjectID) error

	// Marksheets
	AppendMarksheet(ctx context.Context, userID bson.ObjectID, record models.MarksheetRecord) (*models.User, error)
	UpdateMarksheet(ctx context.Context, userID, recordID bson.ObjectID, patch *models.MarksheetPatch) (*models.MarksheetRecord, error)
	SetMarksheetVerified(ctx context.Context, userID, recordID bson.ObjectID, update models.VerificationUpdate) (*models.MarksheetRecord, error)
	DeleteMarksheet(ctx context.Context, userID, recordID bson.ObjectID) error

	// Mentor notes
	AppendMentorNote(ctx context.Context, userID bson.ObjectID, note models.MentorNote) (*models.User, error)
}

// StudentCountFilter narrows CountStudents.
type StudentCountFilter struct {
	Status     *models.UserStatus
	PlacedOnly bool
	Since      *time.Time
}

// AnalyticsRepository runs read-only reporting queries. Every method honours
// the scope; a scoped query with no student ids returns empty results.
type AnalyticsRepository interface {
	// Users
	RoleCounts(ctx context.Context, scope models.AnalyticsScope) (map[string]int64, error)
	CountStudents(ctx context.Context, scope models.AnalyticsScope, filter StudentCountFilter) (int64, error)
	PlacementBreakdown(ctx context.Context, scope models.AnalyticsScope) (map[string]int64, error)
	RegistrationTrend(ctx context.Context, scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) ([]models.TrendPoint, error)
	PlacementTrend(ctx context.Context, scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) ([]models.TrendPoint, error)
	RecentActivity(ctx context.Context, scope models.AnalyticsScope, since time.Time, limit int) ([]models.ActivityItem, error)

	// Marksheets
	DocumentTotals(ctx context.Context, scope models.AnalyticsScope) (total int64, verified int64, err error)
	DocumentTypeBreakdown(ctx context.Context, scope models.AnalyticsScope) (map[string]models.DocumentTypeStat, error)
	VerificationTrend(ctx context.Context, scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) ([]models.TrendPoint, error)
	PendingDocuments(ctx context.Context, scope models.AnalyticsScope, limit int) ([]models.PendingDocument, error)

	// Professional growth
	GrowthRecordCount(ctx context.Context, scope models.AnalyticsScope) (int64, error)
	GrowthByEmploymentType(ctx context.Context, scope models.AnalyticsScope) (map[string]models.GrowthGroupStat, error)
	TopCompanies(ctx context.Context, scope models.AnalyticsScope, limit int) ([]models.CompanyStat, error)
	TopSkills(ctx context.Context, scope models.AnalyticsScope, limit int) ([]models.SkillStat, error)
	GrowthSubmissionTrend(ctx context.Context, scope models.AnalyticsScope, since time.Time, interval models.TrendInterval) ([]models.TrendPoint, error)
	SalaryStats(ctx context.Context, scope models.AnalyticsScope) (models.SalaryStats, error)
}

// AuditRepository stores audit entries for privileged actions.
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter models.AuditFilter) ([]*models.AuditLog, int64, error)
}
