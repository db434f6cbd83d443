package handlers

import (
	"gelateria_backend/internal/repositories"
	"gelateria_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// AuditHandler holds the audit service.
type AuditHandler struct {
	auditService services.AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(as services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: as}
}

// GetAuditLog lists the audit trail with filters.
func (h *AuditHandler) GetAuditLog(c *gin.Context) {
	page, pageSize := parsePagination(c)
	filters := repositories.AuditFilters{
		UserID:    queryInt64Ptr(c, "user_id"),
		Action:    queryStringPtr(c, "action"),
		TableName: queryStringPtr(c, "table_name"),
		StartDate: queryDatePtr(c, "start_date"),
		EndDate:   queryDatePtr(c, "end_date"),
	}

	entries, total, err := h.auditService.GetEntries(filters, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetAuditLog")
		return
	}
	paginatedResponse(c, entries, total, page, pageSize)
}
