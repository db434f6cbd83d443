package main

import (
	"os"
	"strings"

	"gelateria_backend/internal/database"
	"gelateria_backend/internal/extraction"
	"gelateria_backend/internal/router"
	"gelateria_backend/internal/storage"
	"gelateria_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is fine in containerized deployments.
	_ = godotenv.Load()

	utils.InitLogger()
	utils.SetJWTSecret(os.Getenv("JWT_SECRET"))

	dbHost := utils.Getenv("DB_HOST", "localhost")
	dbPort := utils.Getenv("DB_PORT", "5432")
	dbUser := utils.Getenv("DB_USER", "gelateria")
	dbPassword := utils.Getenv("DB_PASSWORD", "gelateria")
	dbName := utils.Getenv("DB_NAME", "gelateria_db")
	dbSSLMode := utils.Getenv("DB_SSLMODE", "disable")
	dbSchemaPath := utils.Getenv("DB_SCHEMA_PATH", "")

	database.InitDB(dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode, dbSchemaPath)
	utils.LogInfo("Database initialized")

	engine := gin.Default()
	engine.Use(utils.GinLogger())

	corsAllowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	var allowedOrigins []string
	if corsAllowedOriginsEnv != "" {
		allowedOrigins = strings.Split(corsAllowedOriginsEnv, ",")
	} else {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowCredentials = true
	engine.Use(cors.New(config))

	deps := router.Dependencies{
		Uploader:  storage.NewGCSUploader(os.Getenv("GCS_BUCKET"), os.Getenv("GCS_CREDENTIALS_JSON")),
		Extractor: extraction.NewExtractor(os.Getenv("OPENAI_API_KEY")),
	}
	router.Setup(engine, database.GetDB(), deps)

	port := utils.Getenv("PORT", "8080")
	utils.LogInfo("Starting server on port " + port)
	if err := engine.Run(":" + port); err != nil {
		utils.LogError(err, "Server failed to start")
		os.Exit(1)
	}
}
