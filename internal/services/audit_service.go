package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/repositories"
	"gorm.io/datatypes"
)

// AuditService records privileged actions. Recording never fails the caller.
type AuditService interface {
	Record(ctx context.Context, actor *Actor, entry AuditEntry)
	List(ctx context.Context, actor *Actor, filter models.AuditFilter) ([]*models.AuditLog, int64, error)
}

type AuditEntry struct {
	EventType   models.AuditEventType
	TargetType  string
	TargetID    string
	Description string
	Changes     map[string]interface{}
	Metadata    map[string]interface{}
}

type auditService struct {
	repo   repositories.Repository
	logger *ServiceLogger
	now    func() time.Time
}

func NewAuditService(repo repositories.Repository, logger *slog.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: NewServiceLogger(logger, LogConfig{Service: "student-portal", Component: "audit"}),
		now:    time.Now,
	}
}

func (s *auditService) Record(ctx context.Context, actor *Actor, entry AuditEntry) {
	if actor == nil {
		actor = SystemActor
	}
	log := &models.AuditLog{
		EventType:   entry.EventType,
		ActorID:     actor.IDString(),
		ActorEmail:  actor.Email,
		ActorRole:   actor.Role,
		TargetType:  entry.TargetType,
		TargetID:    entry.TargetID,
		Description: entry.Description,
		Changes:     toJSON(SanitizeForLogging(entry.Changes)),
		Metadata:    toJSON(entry.Metadata),
		IPAddress:   actor.IPAddress,
		UserAgent:   actor.UserAgent,
		CreatedAt:   s.now().UTC(),
	}
	if actor.RequestID != "" {
		rid := actor.RequestID
		log.RequestID = &rid
	}

	if err := s.repo.Audit().Create(ctx, log); err != nil {
		s.logger.Logger().WarnContext(ctx, "Failed to record audit entry",
			"event_type", entry.EventType,
			"target_id", entry.TargetID,
			"error", err)
	}
}

func (s *auditService) List(ctx context.Context, actor *Actor, filter models.AuditFilter) ([]*models.AuditLog, int64, error) {
	op := s.logger.WithOperation(ctx, "list_audit_logs", actor)
	if err := authorize(actor, "audit_log", "list", models.RoleAdmin); err != nil {
		op.LogResult("", "audit_log", err)
		return nil, 0, err
	}

	logs, total, err := s.repo.Audit().List(ctx, filter)
	op.LogResult("", "audit_log", err)
	return logs, total, err
}

func toJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	if m, ok := v.(map[string]interface{}); ok && len(m) == 0 {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
