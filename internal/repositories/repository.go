package repositories

import (
	"context"
	"log/slog"
	"sync"

	"github.com/SAP-F-2025/student-portal-service/internal/models"
)

type repository struct {
	users     UserRepository
	records   RecordRepository
	analytics AnalyticsRepository
	audit     AuditRepository
}

func NewRepository(users UserRepository, records RecordRepository, analytics AnalyticsRepository, audit AuditRepository) Repository {
	return &repository{
		users:     users,
		records:   records,
		analytics: analytics,
		audit:     audit,
	}
}

func (r *repository) Users() UserRepository          { return r.users }
func (r *repository) Records() RecordRepository      { return r.records }
func (r *repository) Analytics() AnalyticsRepository { return r.analytics }
func (r *repository) Audit() AuditRepository         { return r.audit }

// LogAuditRepository writes audit entries to the structured log and keeps the
// most recent ones in memory for listing. It stands in when no audit database
// is configured.
type LogAuditRepository struct {
	logger *slog.Logger
	limit  int

	mu      sync.Mutex
	entries []*models.AuditLog
	nextID  uint
}

func NewLogAuditRepository(logger *slog.Logger, limit int) *LogAuditRepository {
	return &LogAuditRepository{logger: logger, limit: limit}
}

func (r *LogAuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	r.mu.Lock()
	r.nextID++
	entry.ID = r.nextID
	r.entries = append(r.entries, entry)
	if r.limit > 0 && len(r.entries) > r.limit {
		r.entries = r.entries[len(r.entries)-r.limit:]
	}
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "Audit: "+entry.Description,
		"event_type", entry.EventType,
		"actor_id", entry.ActorID,
		"target_type", entry.TargetType,
		"target_id", entry.TargetID)
	return nil
}

func (r *LogAuditRepository) List(ctx context.Context, filter models.AuditFilter) ([]*models.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]*models.AuditLog, 0, len(r.entries))
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if filter.TargetID != "" && e.TargetID != filter.TargetID {
			continue
		}
		if filter.ActorID != "" && e.ActorID != filter.ActorID {
			continue
		}
		if filter.EventType != "" && e.EventType != filter.EventType {
			continue
		}
		matched = append(matched, e)
	}

	opts := models.ListOptions{Page: filter.Page, PageSize: filter.Limit}.Normalize()
	start := int(opts.Skip())
	if start >= len(matched) {
		return []*models.AuditLog{}, int64(len(matched)), nil
	}
	end := start + opts.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], int64(len(matched)), nil
}
