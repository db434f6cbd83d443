package router

import (
	"database/sql"

	"gelateria_backend/internal/extraction"
	"gelateria_backend/internal/handlers"
	"gelateria_backend/internal/middleware"
	"gelateria_backend/internal/repositories"
	"gelateria_backend/internal/services"
	"gelateria_backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// Dependencies carries the externally configured clients the router cannot
// build itself.
type Dependencies struct {
	Uploader  storage.Uploader
	Extractor extraction.Extractor
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB, deps Dependencies) {
	// Repositories
	authRepo := repositories.NewAuthRepository(db)
	ingredientRepo := repositories.NewIngredientRepository(db)
	productRepo := repositories.NewProductRepository(db)
	priceRepo := repositories.NewPriceRepository(db)
	lotRepo := repositories.NewLotRepository(db)
	movementRepo := repositories.NewMovementRepository(db)
	recipeRepo := repositories.NewRecipeRepository(db)
	productionRepo := repositories.NewProductionRepository(db)
	templateRepo := repositories.NewTemplateRepository(db)
	haccpRepo := repositories.NewHaccpRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	// Services
	auditService := services.NewAuditService(auditRepo, db)
	authService := services.NewAuthService(authRepo, db)
	pricingService := services.NewPricingService(priceRepo, ingredientRepo, auditService, db)
	catalogService := services.NewCatalogService(ingredientRepo, productRepo, auditService, db)
	lotService := services.NewLotService(lotRepo, movementRepo, ingredientRepo, auditService, db)
	recipeService := services.NewRecipeService(recipeRepo, productRepo, pricingService, auditService, db)
	productionService := services.NewProductionService(productionRepo, recipeRepo, productRepo, pricingService, lotService, auditService, db)
	templateService := services.NewTemplateService(templateRepo, productionRepo, recipeRepo, lotRepo, productionService, auditService, db)
	haccpService := services.NewHaccpService(haccpRepo, auditService, db)
	exportService := services.NewExportService(haccpRepo, productionRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	priceHandler := handlers.NewPriceHandler(pricingService)
	warehouseHandler := handlers.NewWarehouseHandler(lotService)
	recipeHandler := handlers.NewRecipeHandler(recipeService)
	productionHandler := handlers.NewProductionHandler(productionService)
	templateHandler := handlers.NewTemplateHandler(templateService)
	haccpHandler := handlers.NewHaccpHandler(haccpService, exportService)
	auditHandler := handlers.NewAuditHandler(auditService)
	uploadHandler := handlers.NewUploadHandler(deps.Uploader, deps.Extractor)

	apiV1 := engine.Group("/api/v1")

	public := apiV1.Group("/auth")
	{
		public.POST("/login", authHandler.Login)
		public.POST("/refresh", authHandler.Refresh)
	}

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		authenticated.GET("/auth/me", authHandler.Profile)
		authenticated.POST("/auth/logout", authHandler.Logout)
		authenticated.POST("/auth/register", middleware.RoleAuthMiddleware("admin"), authHandler.Register)

		setupCatalogRoutes(authenticated, catalogHandler, priceHandler)
		setupWarehouseRoutes(authenticated, warehouseHandler)
		setupRecipeRoutes(authenticated, recipeHandler)
		setupProductionRoutes(authenticated, productionHandler, templateHandler, haccpHandler)
		setupHaccpRoutes(authenticated, haccpHandler)
		setupUploadRoutes(authenticated, uploadHandler)

		authenticated.GET("/audit-log", middleware.RoleAuthMiddleware("admin"), auditHandler.GetAuditLog)
	}
}
