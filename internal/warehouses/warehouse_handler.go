package warehouses

import (
	"net/http"
	"strconv"

	custom_error "stockledger/pkg/errors"
	"stockledger/pkg/models"
	"stockledger/pkg/security"

	"github.com/gin-gonic/gin"
)

type WarehouseHandler struct {
	Repository *WarehouseRepository
}

func NewWarehouseHandler(r *WarehouseRepository) *WarehouseHandler {
	return &WarehouseHandler{Repository: r}
}

func (h *WarehouseHandler) RegisterRoutes(router *gin.Engine) {
	protectedRoutes := router.Group("")
	protectedRoutes.Use(security.JWTMiddleware())
	{
		protectedRoutes.GET("/warehouses", h.GetWarehouses)
		protectedRoutes.GET("/warehouses/:id", h.GetWarehouse)
		protectedRoutes.POST("/warehouses", security.Authorize("moderator"), h.CreateWarehouse)
		protectedRoutes.DELETE("/warehouses/:id", security.Authorize("admin"), h.RemoveWarehouse)
	}
}

func (h *WarehouseHandler) GetWarehouses(c *gin.Context) {
	warehouses, err := h.Repository.GetWarehouses()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not list warehouses", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, warehouses)
}

func (h *WarehouseHandler) GetWarehouse(c *gin.Context) {
	warehouseID, err := strconv.Atoi(c.Param("id"))
	if err != nil || warehouseID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Warehouse ID must be an integer"})
		return
	}

	warehouse, err := h.Repository.GetWarehouse(warehouseID)
	if err != nil {
		if custom_error.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Warehouse not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not get warehouse", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, warehouse)
}

func (h *WarehouseHandler) CreateWarehouse(c *gin.Context) {
	var warehouse models.Warehouse
	if err := c.BindJSON(&warehouse); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	err := h.Repository.PersistWarehouse(&warehouse)
	if _, ok := err.(*custom_error.UniqueViolationError); ok {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Could not insert warehouse, name not unique", "details": err.Error()})
		return
	} else if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not insert warehouse"})
		return
	}

	c.JSON(http.StatusCreated, warehouse)
}

func (h *WarehouseHandler) RemoveWarehouse(c *gin.Context) {
	warehouseID, err := strconv.Atoi(c.Param("id"))
	if err != nil || warehouseID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Warehouse ID must be an integer"})
		return
	}

	err = h.Repository.RemoveWarehouse(warehouseID)
	if _, ok := err.(*custom_error.ForeignKeyViolationError); ok {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Could not delete warehouse", "details": err.Error()})
		return
	} else if err != nil {
		if custom_error.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Warehouse not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not delete warehouse", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Warehouse deleted successfully"})
}
