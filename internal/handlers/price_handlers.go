package handlers

import (
	"net/http"

	"gelateria_backend/internal/models"
	"gelateria_backend/internal/services"
	"gelateria_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// PriceHandler holds the pricing service.
type PriceHandler struct {
	pricingService services.PricingService
}

// NewPriceHandler creates a new PriceHandler.
func NewPriceHandler(ps services.PricingService) *PriceHandler {
	return &PriceHandler{pricingService: ps}
}

// CreatePriceRecord appends a purchase price observation for an ingredient.
func (h *PriceHandler) CreatePriceRecord(c *gin.Context) {
	ingredientID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var rec models.PriceRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	rec.IngredientID = ingredientID

	created, err := h.pricingService.AddPriceRecord(currentActor(c), &rec)
	if err != nil {
		respondServiceError(c, err, "CreatePriceRecord")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetPriceHistory lists an ingredient's price records, newest first.
func (h *PriceHandler) GetPriceHistory(c *gin.Context) {
	ingredientID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)
	records, total, err := h.pricingService.GetPriceHistory(ingredientID, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetPriceHistory")
		return
	}
	paginatedResponse(c, records, total, page, pageSize)
}

// GetCurrentPrice returns the most recent price of an ingredient, if any.
func (h *PriceHandler) GetCurrentPrice(c *gin.Context) {
	ingredientID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	price, known, err := h.pricingService.CurrentPrice(ingredientID)
	if err != nil {
		respondServiceError(c, err, "GetCurrentPrice")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ingredient_id":  ingredientID,
		"price_per_unit": price,
		"price_known":    known,
	})
}

// DeletePriceRecord removes a mistaken price record.
func (h *PriceHandler) DeletePriceRecord(c *gin.Context) {
	id, ok := parseIDParam(c, "recordId")
	if !ok {
		return
	}
	if err := h.pricingService.DeletePriceRecord(currentActor(c), id); err != nil {
		respondServiceError(c, err, "DeletePriceRecord")
		return
	}
	c.Status(http.StatusNoContent)
}
