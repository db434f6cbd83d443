package handlers

import (
	"net/http"

	"gelateria_backend/internal/models"
	"gelateria_backend/internal/services"
	"gelateria_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CatalogHandler holds the catalog service.
type CatalogHandler struct {
	catalogService services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cs services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: cs}
}

// CreateIngredient handles the creation of a new ingredient.
func (h *CatalogHandler) CreateIngredient(c *gin.Context) {
	var ing models.Ingredient
	if err := c.ShouldBindJSON(&ing); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	created, err := h.catalogService.CreateIngredient(currentActor(c), &ing)
	if err != nil {
		respondServiceError(c, err, "CreateIngredient")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetIngredients handles listing ingredients with filters and pagination.
func (h *CatalogHandler) GetIngredients(c *gin.Context) {
	page, pageSize := parsePagination(c)
	ingredients, total, err := h.catalogService.GetIngredients(queryStringPtr(c, "category"), queryStringPtr(c, "search"), page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetIngredients")
		return
	}
	paginatedResponse(c, ingredients, total, page, pageSize)
}

// GetIngredientByID handles fetching one ingredient.
func (h *CatalogHandler) GetIngredientByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ing, err := h.catalogService.GetIngredient(id)
	if err != nil {
		respondServiceError(c, err, "GetIngredientByID")
		return
	}
	c.JSON(http.StatusOK, ing)
}

// UpdateIngredient handles updating an ingredient.
func (h *CatalogHandler) UpdateIngredient(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var ing models.Ingredient
	if err := c.ShouldBindJSON(&ing); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	ing.ID = id

	updated, err := h.catalogService.UpdateIngredient(currentActor(c), &ing)
	if err != nil {
		respondServiceError(c, err, "UpdateIngredient")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteIngredient handles deleting an unreferenced ingredient.
func (h *CatalogHandler) DeleteIngredient(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteIngredient(currentActor(c), id); err != nil {
		respondServiceError(c, err, "DeleteIngredient")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetStockLevels returns the computed on-hand quantity of every ingredient.
func (h *CatalogHandler) GetStockLevels(c *gin.Context) {
	levels, err := h.catalogService.GetStockLevels()
	if err != nil {
		respondServiceError(c, err, "GetStockLevels")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": levels})
}

// CreateProduct handles the creation of a new product.
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var p models.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	created, err := h.catalogService.CreateProduct(currentActor(c), &p)
	if err != nil {
		respondServiceError(c, err, "CreateProduct")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetProducts handles listing products with pagination.
func (h *CatalogHandler) GetProducts(c *gin.Context) {
	page, pageSize := parsePagination(c)
	products, total, err := h.catalogService.GetProducts(page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetProducts")
		return
	}
	paginatedResponse(c, products, total, page, pageSize)
}

// GetProductByID handles fetching one product.
func (h *CatalogHandler) GetProductByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	p, err := h.catalogService.GetProduct(id)
	if err != nil {
		respondServiceError(c, err, "GetProductByID")
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateProduct handles updating a product.
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var p models.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	p.ID = id

	updated, err := h.catalogService.UpdateProduct(currentActor(c), &p)
	if err != nil {
		respondServiceError(c, err, "UpdateProduct")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteProduct handles deleting an unreferenced product.
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteProduct(currentActor(c), id); err != nil {
		respondServiceError(c, err, "DeleteProduct")
		return
	}
	c.Status(http.StatusNoContent)
}
