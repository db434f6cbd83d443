package router

import (
	"gelateria_backend/internal/handlers"
	"gelateria_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

func setupCatalogRoutes(rg *gin.RouterGroup, catalog *handlers.CatalogHandler, price *handlers.PriceHandler) {
	ingredients := rg.Group("/ingredients")
	{
		ingredients.POST("", catalog.CreateIngredient)
		ingredients.GET("", catalog.GetIngredients)
		ingredients.GET("/stock-levels", catalog.GetStockLevels)
		ingredients.GET("/:id", catalog.GetIngredientByID)
		ingredients.PUT("/:id", catalog.UpdateIngredient)
		ingredients.DELETE("/:id", middleware.RoleAuthMiddleware("admin"), catalog.DeleteIngredient)

		ingredients.POST("/:id/prices", price.CreatePriceRecord)
		ingredients.GET("/:id/prices", price.GetPriceHistory)
		ingredients.GET("/:id/prices/current", price.GetCurrentPrice)
	}
	rg.DELETE("/prices/:recordId", middleware.RoleAuthMiddleware("admin"), price.DeletePriceRecord)

	products := rg.Group("/products")
	{
		products.POST("", catalog.CreateProduct)
		products.GET("", catalog.GetProducts)
		products.GET("/:id", catalog.GetProductByID)
		products.PUT("/:id", catalog.UpdateProduct)
		products.DELETE("/:id", middleware.RoleAuthMiddleware("admin"), catalog.DeleteProduct)
	}
}

func setupWarehouseRoutes(rg *gin.RouterGroup, warehouse *handlers.WarehouseHandler) {
	lots := rg.Group("/lots")
	{
		lots.POST("", warehouse.CreateLot)
		lots.GET("", warehouse.GetLots)
		lots.GET("/:id", warehouse.GetLotByID)
		lots.PUT("/:id", warehouse.UpdateLot)
		lots.DELETE("/:id", middleware.RoleAuthMiddleware("admin"), warehouse.DeleteLot)
		lots.POST("/:id/:direction", warehouse.AdjustLot)
	}
	rg.GET("/ingredients/:id/available-lots", warehouse.GetAvailableLots)
	rg.GET("/movements", warehouse.GetMovements)
}

func setupRecipeRoutes(rg *gin.RouterGroup, recipe *handlers.RecipeHandler) {
	recipes := rg.Group("/recipes")
	{
		recipes.POST("", recipe.CreateRecipe)
		recipes.GET("", recipe.GetRecipes)
		recipes.GET("/:id", recipe.GetRecipeByID)
		recipes.PUT("/:id", recipe.UpdateRecipe)
		recipes.DELETE("/:id", middleware.RoleAuthMiddleware("admin"), recipe.DeleteRecipe)
		recipes.GET("/:id/cost-estimate", recipe.EstimateCost)
	}
}

func setupProductionRoutes(rg *gin.RouterGroup, production *handlers.ProductionHandler, template *handlers.TemplateHandler, haccp *handlers.HaccpHandler) {
	batches := rg.Group("/production-batches")
	{
		batches.POST("", production.CreateBatch)
		batches.GET("", production.GetBatches)
		batches.GET("/incomplete", production.GetIncompleteBatches)
		batches.GET("/:id", production.GetBatchByID)
		batches.DELETE("/:id", production.CancelBatch)
		batches.GET("/:id/traceability", haccp.ExportBatchTraceability)
	}

	templates := rg.Group("/production-templates")
	{
		templates.POST("", template.CreateTemplate)
		templates.GET("", template.GetTemplates)
		templates.GET("/:id", template.GetTemplateByID)
		templates.PUT("/:id", template.UpdateTemplate)
		templates.DELETE("/:id", middleware.RoleAuthMiddleware("admin"), template.DeleteTemplate)
		templates.GET("/:id/validate", template.ValidateTemplate)
		templates.POST("/:id/apply", template.ApplyTemplate)
	}
}

func setupHaccpRoutes(rg *gin.RouterGroup, haccp *handlers.HaccpHandler) {
	group := rg.Group("/haccp")
	{
		group.POST("/temperature-logs", haccp.CreateTemperatureLog)
		group.GET("/temperature-logs", haccp.GetTemperatureLogs)
		group.POST("/temperature-logs/:id/void", haccp.VoidTemperatureLog)

		group.POST("/cleaning-logs", haccp.CreateCleaningLog)
		group.GET("/cleaning-logs", haccp.GetCleaningLogs)
		group.POST("/cleaning-logs/:id/void", haccp.VoidCleaningLog)

		group.POST("/auto-fill", haccp.AutoFill)
		group.GET("/export", haccp.ExportRegister)
	}
}

func setupUploadRoutes(rg *gin.RouterGroup, upload *handlers.UploadHandler) {
	group := rg.Group("/uploads")
	{
		group.POST("/:kind", upload.UploadPhoto)
		group.POST("/extract-invoice", upload.ExtractInvoice)
	}
}
