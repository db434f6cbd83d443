package handlers

import (
	"net/http"

	"gelateria_backend/internal/repositories"
	"gelateria_backend/internal/services"
	"gelateria_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ProductionHandler holds the production service.
type ProductionHandler struct {
	productionService services.ProductionService
}

// NewProductionHandler creates a new ProductionHandler.
func NewProductionHandler(ps services.ProductionService) *ProductionHandler {
	return &ProductionHandler{productionService: ps}
}

// CreateBatch records a production run: freezes line prices, deducts lots,
// and returns the batch with any non-fatal warnings.
func (h *ProductionHandler) CreateBatch(c *gin.Context) {
	var req services.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	result, err := h.productionService.CreateBatch(currentActor(c), req)
	if err != nil {
		respondServiceError(c, err, "CreateBatch")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetBatches lists production batches with filters.
func (h *ProductionHandler) GetBatches(c *gin.Context) {
	page, pageSize := parsePagination(c)
	filters := repositories.BatchFilters{
		ProductID:  queryInt64Ptr(c, "product_id"),
		TemplateID: queryInt64Ptr(c, "template_id"),
		StartDate:  queryDatePtr(c, "start_date"),
		EndDate:    queryDatePtr(c, "end_date"),
	}

	batches, total, err := h.productionService.GetBatches(filters, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetBatches")
		return
	}
	paginatedResponse(c, batches, total, page, pageSize)
}

// GetBatchByID fetches one batch with its frozen detail lines.
func (h *ProductionHandler) GetBatchByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	batch, err := h.productionService.GetBatch(id)
	if err != nil {
		respondServiceError(c, err, "GetBatchByID")
		return
	}
	c.JSON(http.StatusOK, batch)
}

// CancelBatch reverses a batch: lots are restocked, the batch is removed.
func (h *ProductionHandler) CancelBatch(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.productionService.CancelBatch(currentActor(c), id); err != nil {
		respondServiceError(c, err, "CancelBatch")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetIncompleteBatches lists batches whose costs were never frozen.
func (h *ProductionHandler) GetIncompleteBatches(c *gin.Context) {
	batches, err := h.productionService.GetIncompleteBatches()
	if err != nil {
		respondServiceError(c, err, "GetIncompleteBatches")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": batches})
}
