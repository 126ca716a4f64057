package main

import (
	"context"
	"log"
	"os"
	"time"

	"stockledger/cmd"
	"stockledger/internal/core/container"
	"stockledger/internal/core/logger"
	"stockledger/internal/core/routes"
	"stockledger/internal/database"
	"stockledger/internal/inventory/allocations"
	"stockledger/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load .env file, but don't overwrite system environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, falling back to system environment variables.")
	}

	cmd.Execute(ctx)
}

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := database.NewPostgresConnection(dbURL)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer db.Close()

	log.Println("Connected to the database successfully!")

	appContainer := container.NewAppContainer(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scanner := allocations.NewOverdueScanner(appContainer.AllocationService, time.Hour, logger.NewLogger())
	scanner.Start(ctx)

	router := gin.Default()
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.TimeoutMiddleware(30 * time.Second))

	routes.RegisterPublicRoutes(router, appContainer)
	routes.RegisterProtectedRoutes(router, appContainer)
	routes.RegisterUtilityRoutes(router)

	if err := router.Run(os.Getenv("APP_HOST")); err != nil {
		panic(err)
	}
}
