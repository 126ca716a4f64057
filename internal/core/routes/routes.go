package routes

import (
	"log"
	"os"

	"stockledger/internal/core/container"
	"stockledger/internal/middleware"
	"stockledger/pkg/security"

	"github.com/gin-gonic/gin"
)

func RegisterPublicRoutes(router *gin.Engine, container *container.Container) {
	container.LoginHandler.RegisterRoutes(router)
	container.AssetHandler.RegisterRoutes(router)
	container.AllocationHandler.RegisterRoutes(router)
	container.IssueHandler.RegisterRoutes(router)
	container.DeletionHandler.RegisterRoutes(router)
	container.WarehouseHandler.RegisterRoutes(router)
}

func RegisterProtectedRoutes(router *gin.Engine, container *container.Container) {
	protectedRoutes := router.Group("")
	protectedRoutes.Use(security.JWTMiddleware())

	container.UserHandler.RegisterRoutes(protectedRoutes)
	if container.GoogleSheetsHandler != nil {
		container.GoogleSheetsHandler.RegisterRoutes(protectedRoutes)
	}
}

func RegisterUtilityRoutes(router *gin.Engine) {
	router.GET("/health", middleware.HealthCheckMiddleware())

	openapiFilePath := "./docs/index.html"
	if _, err := os.Stat(openapiFilePath); err == nil {
		router.GET("/openapi.html", func(c *gin.Context) {
			c.File(openapiFilePath)
		})
		log.Println("Route docs/index.html registered successfully.")
	} else {
		log.Printf("Warning: %s not found. Route /openapi.html will not be registered.\n", openapiFilePath)
	}
}
