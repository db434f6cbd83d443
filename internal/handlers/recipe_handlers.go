package handlers

import (
	"net/http"
	"strconv"

	"gelateria_backend/internal/models"
	"gelateria_backend/internal/services"
	"gelateria_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// RecipeHandler holds the recipe service.
type RecipeHandler struct {
	recipeService services.RecipeService
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(rs services.RecipeService) *RecipeHandler {
	return &RecipeHandler{recipeService: rs}
}

// CreateRecipe handles the creation of a recipe with its ingredient lines.
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var recipe models.Recipe
	if err := c.ShouldBindJSON(&recipe); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	created, err := h.recipeService.CreateRecipe(currentActor(c), &recipe)
	if err != nil {
		respondServiceError(c, err, "CreateRecipe")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetRecipes handles listing recipes with pagination.
func (h *RecipeHandler) GetRecipes(c *gin.Context) {
	page, pageSize := parsePagination(c)
	recipes, total, err := h.recipeService.GetRecipes(page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetRecipes")
		return
	}
	paginatedResponse(c, recipes, total, page, pageSize)
}

// GetRecipeByID handles fetching one recipe with its lines.
func (h *RecipeHandler) GetRecipeByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	recipe, err := h.recipeService.GetRecipe(id)
	if err != nil {
		respondServiceError(c, err, "GetRecipeByID")
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// UpdateRecipe handles replacing a recipe head and its lines.
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var recipe models.Recipe
	if err := c.ShouldBindJSON(&recipe); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	recipe.ID = id

	updated, err := h.recipeService.UpdateRecipe(currentActor(c), &recipe)
	if err != nil {
		respondServiceError(c, err, "UpdateRecipe")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteRecipe handles deleting a recipe no batch references.
func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.recipeService.DeleteRecipe(currentActor(c), id); err != nil {
		respondServiceError(c, err, "DeleteRecipe")
		return
	}
	c.Status(http.StatusNoContent)
}

// EstimateCost prices a recipe at today's prices for a given quantity.
func (h *RecipeHandler) EstimateCost(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	quantity, err := strconv.ParseFloat(c.DefaultQuery("quantity", "0"), 64)
	if err != nil || quantity <= 0 {
		utils.RespondValidationFailed(c, "quantity must be a positive number")
		return
	}

	estimate, err := h.recipeService.EstimateCost(id, quantity)
	if err != nil {
		respondServiceError(c, err, "EstimateCost")
		return
	}
	c.JSON(http.StatusOK, estimate)
}
