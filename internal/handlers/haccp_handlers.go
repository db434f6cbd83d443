package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"gelateria_backend/internal/models"
	"gelateria_backend/internal/repositories"
	"gelateria_backend/internal/services"
	"gelateria_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// HaccpHandler holds the HACCP and export services.
type HaccpHandler struct {
	haccpService  services.HaccpService
	exportService services.ExportService
}

// NewHaccpHandler creates a new HaccpHandler.
func NewHaccpHandler(hs services.HaccpService, es services.ExportService) *HaccpHandler {
	return &HaccpHandler{haccpService: hs, exportService: es}
}

func haccpFiltersFromQuery(c *gin.Context) repositories.HaccpFilters {
	includeVoided, _ := strconv.ParseBool(c.DefaultQuery("include_voided", "false"))
	return repositories.HaccpFilters{
		StartDate:     queryDatePtr(c, "start_date"),
		EndDate:       queryDatePtr(c, "end_date"),
		IncludeVoided: includeVoided,
	}
}

// CreateTemperatureLog records one temperature check.
func (h *HaccpHandler) CreateTemperatureLog(c *gin.Context) {
	var log models.HaccpTemperatureLog
	if err := c.ShouldBindJSON(&log); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	created, err := h.haccpService.CreateTemperatureLog(currentActor(c), &log)
	if err != nil {
		respondServiceError(c, err, "CreateTemperatureLog")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetTemperatureLogs lists temperature checks.
func (h *HaccpHandler) GetTemperatureLogs(c *gin.Context) {
	page, pageSize := parsePagination(c)
	logs, total, err := h.haccpService.GetTemperatureLogs(haccpFiltersFromQuery(c), page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetTemperatureLogs")
		return
	}
	paginatedResponse(c, logs, total, page, pageSize)
}

// voidRequest carries the mandatory reason for voiding a register row.
type voidRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// VoidTemperatureLog marks a temperature check as voided.
func (h *HaccpHandler) VoidTemperatureLog(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req voidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	if err := h.haccpService.VoidTemperatureLog(currentActor(c), id, req.Reason); err != nil {
		respondServiceError(c, err, "VoidTemperatureLog")
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateCleaningLog records one cleaning task.
func (h *HaccpHandler) CreateCleaningLog(c *gin.Context) {
	var log models.HaccpCleaningLog
	if err := c.ShouldBindJSON(&log); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	created, err := h.haccpService.CreateCleaningLog(currentActor(c), &log)
	if err != nil {
		respondServiceError(c, err, "CreateCleaningLog")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetCleaningLogs lists cleaning task records.
func (h *HaccpHandler) GetCleaningLogs(c *gin.Context) {
	page, pageSize := parsePagination(c)
	logs, total, err := h.haccpService.GetCleaningLogs(haccpFiltersFromQuery(c), page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetCleaningLogs")
		return
	}
	paginatedResponse(c, logs, total, page, pageSize)
}

// VoidCleaningLog marks a cleaning record as voided.
func (h *HaccpHandler) VoidCleaningLog(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req voidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	if err := h.haccpService.VoidCleaningLog(currentActor(c), id, req.Reason); err != nil {
		respondServiceError(c, err, "VoidCleaningLog")
		return
	}
	c.Status(http.StatusNoContent)
}

// AutoFill pre-creates the day's register rows from the standard plan.
func (h *HaccpHandler) AutoFill(c *gin.Context) {
	var req services.AutoFillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	result, err := h.haccpService.AutoFill(currentActor(c), req)
	if err != nil {
		respondServiceError(c, err, "AutoFill")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportRegister streams both HACCP registers for a date range as a workbook.
func (h *HaccpHandler) ExportRegister(c *gin.Context) {
	start := queryDatePtr(c, "start_date")
	end := queryDatePtr(c, "end_date")
	if start == nil || end == nil {
		utils.RespondValidationFailed(c, "start_date and end_date are required (YYYY-MM-DD)")
		return
	}
	endOfDay := end.Add(24*time.Hour - time.Nanosecond)

	buf, filename, err := h.exportService.ExportHaccpRegister(*start, endOfDay)
	if err != nil {
		respondServiceError(c, err, "ExportRegister")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ExportBatchTraceability streams one batch's traceability sheet.
func (h *HaccpHandler) ExportBatchTraceability(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	buf, filename, err := h.exportService.ExportBatchTraceability(id)
	if err != nil {
		respondServiceError(c, err, "ExportBatchTraceability")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
