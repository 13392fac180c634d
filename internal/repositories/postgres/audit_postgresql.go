package postgres

import (
	"context"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type AuditPostgreSQL struct {
	db *gorm.DB
}

func NewAuditPostgreSQL(db *gorm.DB) repositories.AuditRepository {
	return &AuditPostgreSQL{db: db}
}

func (a *AuditPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AuditPostgreSQL) Create(ctx context.Context, tx *gorm.DB, entry *models.AuditLog) error {
	return a.getDB(tx).WithContext(ctx).Create(entry).Error
}

func (a *AuditPostgreSQL) ListByTarget(ctx context.Context, tx *gorm.DB, targetType string, targetID uint) ([]*models.AuditLog, error) {
	var entries []*models.AuditLog
	err := a.getDB(tx).WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
