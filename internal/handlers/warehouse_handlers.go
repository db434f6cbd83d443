package handlers

import (
	"net/http"
	"strconv"

	"gelateria_backend/internal/models"
	"gelateria_backend/internal/repositories"
	"gelateria_backend/internal/services"
	"gelateria_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// WarehouseHandler holds the lot service.
type WarehouseHandler struct {
	lotService services.LotService
}

// NewWarehouseHandler creates a new WarehouseHandler.
func NewWarehouseHandler(ls services.LotService) *WarehouseHandler {
	return &WarehouseHandler{lotService: ls}
}

// CreateLot registers a delivered lot and its inbound movement.
func (h *WarehouseHandler) CreateLot(c *gin.Context) {
	var lot models.IngredientLot
	if err := c.ShouldBindJSON(&lot); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	created, err := h.lotService.CreateLot(currentActor(c), &lot)
	if err != nil {
		respondServiceError(c, err, "CreateLot")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetLots lists lots, optionally for one ingredient or only those with stock.
func (h *WarehouseHandler) GetLots(c *gin.Context) {
	page, pageSize := parsePagination(c)
	onlyAvailable, _ := strconv.ParseBool(c.DefaultQuery("available", "false"))

	lots, total, err := h.lotService.GetLots(queryInt64Ptr(c, "ingredient_id"), onlyAvailable, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetLots")
		return
	}
	paginatedResponse(c, lots, total, page, pageSize)
}

// GetLotByID fetches one lot.
func (h *WarehouseHandler) GetLotByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	lot, err := h.lotService.GetLot(id)
	if err != nil {
		respondServiceError(c, err, "GetLotByID")
		return
	}
	c.JSON(http.StatusOK, lot)
}

// GetAvailableLots suggests lots for an ingredient, earliest expiry first.
func (h *WarehouseHandler) GetAvailableLots(c *gin.Context) {
	ingredientID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	lots, err := h.lotService.AvailableLots(ingredientID)
	if err != nil {
		respondServiceError(c, err, "GetAvailableLots")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": lots})
}

// UpdateLot updates a lot's descriptive fields.
func (h *WarehouseHandler) UpdateLot(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var lot models.IngredientLot
	if err := c.ShouldBindJSON(&lot); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	lot.ID = id

	updated, err := h.lotService.UpdateLot(currentActor(c), &lot)
	if err != nil {
		respondServiceError(c, err, "UpdateLot")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteLot removes a lot that no batch references.
func (h *WarehouseHandler) DeleteLot(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.lotService.DeleteLot(currentActor(c), id); err != nil {
		respondServiceError(c, err, "DeleteLot")
		return
	}
	c.Status(http.StatusNoContent)
}

// adjustLotRequest carries a manual stock correction.
type adjustLotRequest struct {
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
	Reason   string  `json:"reason" binding:"required"`
}

// AdjustLot applies a manual correction: waste, breakage, or a counting fix.
// Direction comes from the route, quantity is always positive.
func (h *WarehouseHandler) AdjustLot(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req adjustLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	direction := c.Param("direction")
	var (
		lot *models.IngredientLot
		err error
	)
	switch direction {
	case "deduct":
		lot, err = h.lotService.Deduct(nil, id, req.Quantity, req.Reason)
	case "restock":
		lot, err = h.lotService.Restock(nil, id, req.Quantity, req.Reason)
	default:
		utils.RespondValidationFailed(c, "direction must be deduct or restock")
		return
	}
	if err != nil {
		respondServiceError(c, err, "AdjustLot")
		return
	}
	c.JSON(http.StatusOK, lot)
}

// GetMovements lists the inventory ledger with filters.
func (h *WarehouseHandler) GetMovements(c *gin.Context) {
	page, pageSize := parsePagination(c)
	filters := repositories.MovementFilters{
		IngredientID: queryInt64Ptr(c, "ingredient_id"),
		LotID:        queryInt64Ptr(c, "lot_id"),
		Direction:    queryStringPtr(c, "direction"),
		StartDate:    queryDatePtr(c, "start_date"),
		EndDate:      queryDatePtr(c, "end_date"),
	}

	movements, total, err := h.lotService.GetMovements(filters, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetMovements")
		return
	}
	paginatedResponse(c, movements, total, page, pageSize)
}
