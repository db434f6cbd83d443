package services

import (
	"database/sql"
	"encoding/json"

	"gelateria_backend/internal/models"
	"gelateria_backend/internal/repositories"
	"gelateria_backend/pkg/utils"
)

// AuditService records who did what to which row. Recording is fire-and-forget:
// a failed audit write is logged and swallowed so it can never fail the
// business operation it describes.
type AuditService interface {
	Record(actor models.Actor, action, tableName, recordID string, details interface{})
	GetEntries(filters repositories.AuditFilters, page, pageSize int) ([]models.AuditLogEntry, int, error)
}

type auditService struct {
	auditRepo repositories.AuditRepository
	db        *sql.DB
}

// NewAuditService creates a new instance of AuditService.
func NewAuditService(auditRepo repositories.AuditRepository, db *sql.DB) AuditService {
	return &auditService{auditRepo: auditRepo, db: db}
}

func (s *auditService) Record(actor models.Actor, action, tableName, recordID string, details interface{}) {
	entry := &models.AuditLogEntry{
		Action:    action,
		TableName: tableName,
		RecordID:  recordID,
	}
	if actor.UserID != 0 {
		entry.UserID = &actor.UserID
	}
	if actor.Username != "" {
		entry.UserName = &actor.Username
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			detailStr := string(raw)
			entry.Details = &detailStr
		}
	}

	if _, err := s.auditRepo.CreateEntry(s.db, entry); err != nil {
		utils.LogError(err, "audit: failed to record "+action+" on "+tableName+"/"+recordID)
	}
}

func (s *auditService) GetEntries(filters repositories.AuditFilters, page, pageSize int) ([]models.AuditLogEntry, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return s.auditRepo.GetEntries(filters, page, pageSize)
}
