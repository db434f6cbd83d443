package handlers

import (
	"net/http"

	"gelateria_backend/internal/models"
	"gelateria_backend/internal/services"
	"gelateria_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TemplateHandler holds the template service.
type TemplateHandler struct {
	templateService services.TemplateService
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(ts services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: ts}
}

// CreateTemplate handles creating a production template with its lines.
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var tpl models.ProductionTemplate
	if err := c.ShouldBindJSON(&tpl); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	created, err := h.templateService.CreateTemplate(currentActor(c), &tpl)
	if err != nil {
		respondServiceError(c, err, "CreateTemplate")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetTemplates handles listing templates with pagination.
func (h *TemplateHandler) GetTemplates(c *gin.Context) {
	page, pageSize := parsePagination(c)
	templates, total, err := h.templateService.GetTemplates(page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetTemplates")
		return
	}
	paginatedResponse(c, templates, total, page, pageSize)
}

// GetTemplateByID handles fetching one template with its lines.
func (h *TemplateHandler) GetTemplateByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tpl, err := h.templateService.GetTemplate(id)
	if err != nil {
		respondServiceError(c, err, "GetTemplateByID")
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// UpdateTemplate handles replacing a template and its lines.
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var tpl models.ProductionTemplate
	if err := c.ShouldBindJSON(&tpl); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	tpl.ID = id

	updated, err := h.templateService.UpdateTemplate(currentActor(c), &tpl)
	if err != nil {
		respondServiceError(c, err, "UpdateTemplate")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteTemplate handles deleting a template.
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.templateService.DeleteTemplate(currentActor(c), id); err != nil {
		respondServiceError(c, err, "DeleteTemplate")
		return
	}
	c.Status(http.StatusNoContent)
}

// ValidateTemplate checks a template against current data without writing.
func (h *TemplateHandler) ValidateTemplate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	findings, err := h.templateService.Validate(id)
	if err != nil {
		respondServiceError(c, err, "ValidateTemplate")
		return
	}
	c.JSON(http.StatusOK, gin.H{"findings": findings})
}

// ApplyTemplate generates batches from a template over a date range.
func (h *TemplateHandler) ApplyTemplate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.ApplyTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	result, err := h.templateService.Apply(currentActor(c), id, req)
	if err != nil {
		respondServiceError(c, err, "ApplyTemplate")
		return
	}
	c.JSON(http.StatusOK, result)
}
