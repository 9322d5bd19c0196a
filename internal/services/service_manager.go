package services

import (
	"log/slog"

	"github.com/SAP-F-2025/student-portal-service/internal/events"
	"github.com/SAP-F-2025/student-portal-service/internal/repositories"
	"github.com/SAP-F-2025/student-portal-service/internal/validator"
)

// ServiceManager hands each handler the service it needs.
type ServiceManager interface {
	User() UserService
	Record() RecordService
	Assignment() AssignmentService
	Analytics() AnalyticsService
	Identity() IdentityService
	Export() ExportService
	Audit() AuditService
}

type ManagerConfig struct {
	DefaultRole string
	Users       UserServiceConfig
}

type serviceManager struct {
	user       UserService
	record     RecordService
	assignment AssignmentService
	analytics  AnalyticsService
	identity   IdentityService
	export     ExportService
	audit      AuditService
}

func NewServiceManager(
	repo repositories.Repository,
	publisher events.EventPublisher,
	validator *validator.Validator,
	logger *slog.Logger,
	config ManagerConfig,
) ServiceManager {
	audit := NewAuditService(repo, logger)
	return &serviceManager{
		user:       NewUserService(repo, validator, audit, publisher, logger, config.Users),
		record:     NewRecordService(repo, validator, audit, publisher, logger),
		assignment: NewAssignmentService(repo, validator, audit, publisher, logger),
		analytics:  NewAnalyticsService(repo, logger),
		identity:   NewIdentityService(repo, audit, publisher, logger, config.DefaultRole),
		export:     NewExportService(repo, audit, logger),
		audit:      audit,
	}
}

func (m *serviceManager) User() UserService             { return m.user }
func (m *serviceManager) Record() RecordService         { return m.record }
func (m *serviceManager) Assignment() AssignmentService { return m.assignment }
func (m *serviceManager) Analytics() AnalyticsService   { return m.analytics }
func (m *serviceManager) Identity() IdentityService     { return m.identity }
func (m *serviceManager) Export() ExportService         { return m.export }
func (m *serviceManager) Audit() AuditService           { return m.audit }
