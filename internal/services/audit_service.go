package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"myfund/internal/logger"
	"myfund/internal/models"
)

type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new audit service instance.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit entry. Audit failures are logged and swallowed; they
// never fail the operation being audited.
func (s *auditService) Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{}) {
	var encoded string
	if changes != nil {
		raw, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Warnw("failed to encode audit changes",
				"action", action,
				"error", err,
			)
		} else {
			encoded = string(raw)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      encoded,
	}
	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Warnw("failed to write audit log",
			"action", action,
			"user_id", userID,
			"error", err,
		)
	}
}
