package services

import (
	"encoding/json"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"gorm.io/datatypes"
)

func newAuditEntry(eventType models.AuditEventType, identity *models.Identity, targetType string, targetID uint, description string, metadata map[string]interface{}) *models.AuditLog {
	entry := &models.AuditLog{
		EventType:   eventType,
		UserID:      identity.UserID,
		UserRole:    identity.Role,
		TargetType:  targetType,
		TargetID:    &targetID,
		Description: description,
	}
	if len(metadata) > 0 {
		if raw, err := json.Marshal(metadata); err == nil {
			entry.Metadata = datatypes.JSON(raw)
		}
	}
	return entry
}
