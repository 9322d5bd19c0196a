package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/repositories"
	"gorm.io/gorm"
)

type AuditPostgreSQL struct {
	db *gorm.DB
}

func NewAuditPostgreSQL(db *gorm.DB) repositories.AuditRepository {
	return &AuditPostgreSQL{db: db}
}

// Create stores an audit entry
func (a *AuditPostgreSQL) Create(ctx context.Context, entry *models.AuditLog) error {
	if err := a.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// List returns entries newest first
func (a *AuditPostgreSQL) List(ctx context.Context, filter models.AuditFilter) ([]*models.AuditLog, int64, error) {
	query := a.applyFilters(a.db.WithContext(ctx).Model(&models.AuditLog{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit)

	var logs []*models.AuditLog
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

func (a *AuditPostgreSQL) applyFilters(query *gorm.DB, filter models.AuditFilter) *gorm.DB {
	if filter.TargetID != "" {
		query = query.Where("target_id = ?", filter.TargetID)
	}
	if filter.ActorID != "" {
		query = query.Where("actor_id = ?", filter.ActorID)
	}
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	return query
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = models.DefaultPage
	}
	if limit < 1 {
		limit = models.DefaultPageSize
	}
	if limit > models.MaxPageSize {
		limit = models.MaxPageSize
	}
	return page, limit
}
