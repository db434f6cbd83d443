package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"gelateria_backend/internal/middleware"
	"gelateria_backend/internal/models"
	"gelateria_backend/internal/services"
	"gelateria_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

func currentActor(c *gin.Context) models.Actor {
	return middleware.CurrentActor(c)
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" parameter.", c.Param(name)))
		return 0, false
	}
	return id, true
}

func parsePagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return page, pageSize
}

func queryInt64Ptr(c *gin.Context, name string) *int64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func queryStringPtr(c *gin.Context, name string) *string {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	return &raw
}

func queryDatePtr(c *gin.Context, name string) *time.Time {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}

func paginatedResponse(c *gin.Context, data interface{}, total, page, pageSize int) {
	c.JSON(http.StatusOK, gin.H{
		"data":      data,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// respondServiceError maps service sentinel errors onto HTTP statuses. The
// fallthrough is a 500 with the detail withheld from the client.
func respondServiceError(c *gin.Context, err error, operation string) {
	utils.LogError(err, operation)
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
	case errors.Is(err, services.ErrIngredientNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrRecipeNotFound),
		errors.Is(err, services.ErrLotNotFound),
		errors.Is(err, services.ErrTemplateNotFound),
		errors.Is(err, services.ErrBatchNotFound),
		errors.Is(err, services.ErrRecordNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), ""))
	case errors.Is(err, services.ErrInsufficientStock):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, err.Error(), ""))
	case errors.Is(err, services.ErrInUse), errors.Is(err, services.ErrAlreadyVoided):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), ""))
	case errors.Is(err, services.ErrExtractionFailed):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadGateway, utils.ErrCodeExtractionFailed, err.Error(), ""))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Operation failed.", "Internal error"))
	}
}
