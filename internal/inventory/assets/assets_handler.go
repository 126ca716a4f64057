package assets

import (
	"net/http"
	"strconv"

	"stockledger/internal/auditlog"
	"stockledger/internal/repository"
	pkgauditlog "stockledger/pkg/auditlog"
	custom_error "stockledger/pkg/errors"
	"stockledger/pkg/models"
	"stockledger/pkg/security"

	"github.com/gin-gonic/gin"
)

type AssetHandler struct {
	r            *AssetsRepository
	service      *AssetService
	auditLogRepo *auditlog.AuditLogRepository
	AuditLog     *pkgauditlog.Auditlog
}

func NewAssetHandler(r *AssetsRepository, service *AssetService, auditLogRepo *auditlog.AuditLogRepository, a *pkgauditlog.Auditlog) *AssetHandler {
	return &AssetHandler{
		r:            r,
		service:      service,
		auditLogRepo: auditLogRepo,
		AuditLog:     a,
	}
}

func (h *AssetHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/assets/sku/:sku", h.GetAssetBySKU)

	protectedRoutes := router.Group("")
	protectedRoutes.Use(security.JWTMiddleware())
	{
		protectedRoutes.GET("/assets", h.GetAssetList)
		protectedRoutes.GET("/assets/:id", h.GetAsset)
		protectedRoutes.GET("/assets/:id/history", h.GetAssetHistory)
		protectedRoutes.POST("/assets", security.Authorize("moderator"), h.CreateAsset)
		protectedRoutes.POST("/assets/:id/receipts", security.Authorize("moderator"), h.ReceiveAsset)
	}
}

func (h *AssetHandler) GetAssetBySKU(c *gin.Context) {
	sku := c.Param("sku")
	if sku == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to bind SKU"})
		return
	}

	asset, err := h.r.GetAssetBySKU(sku)
	if err != nil {
		if custom_error.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unable to locate asset with given SKU"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to get asset", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, asset)
}

func (h *AssetHandler) GetAsset(c *gin.Context) {
	assetID, err := strconv.Atoi(c.Param("id"))
	if err != nil || assetID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Asset ID must be an integer"})
		return
	}

	asset, err := h.r.GetAsset(assetID)
	if err != nil {
		if custom_error.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to get asset", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, asset)
}

func (h *AssetHandler) GetAssetList(c *gin.Context) {
	conditions := repository.NewQueryBuilder()
	for _, key := range []string{"warehouse_id", "type", "status", "sku"} {
		if value := c.Query(key); value != "" {
			conditions.AddCondition(key, value)
		}
	}

	assets, err := h.r.GetAssetsBy(conditions)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to get assets", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, assets)
}

func (h *AssetHandler) GetAssetHistory(c *gin.Context) {
	assetID, err := strconv.Atoi(c.Param("id"))
	if err != nil || assetID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Asset ID must be an integer"})
		return
	}

	entries, err := h.auditLogRepo.GetResourceLog(assetID, "asset")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to get asset history", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *AssetHandler) CreateAsset(c *gin.Context) {
	var req models.AssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	asset, err := h.service.CreateAsset(req)
	if err != nil {
		switch err.(type) {
		case *custom_error.UniqueViolationError:
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Asset SKU already registered"})
			return
		default:
			if custom_error.IsValidation(err) {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid asset", "details": err.Error()})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create asset", "details": err.Error()})
			return
		}
	}

	go h.AuditLog.Log(
		"create",
		map[string]interface{}{
			"sku":          asset.SKU,
			"warehouse_id": asset.Warehouse.ID,
			"opening_qty":  asset.Balances.OpeningQuantity,
			"msg":          "Asset registered in ledger",
		},
		asset,
	)

	c.JSON(http.StatusCreated, asset)
}

func (h *AssetHandler) ReceiveAsset(c *gin.Context) {
	assetID, err := strconv.Atoi(c.Param("id"))
	if err != nil || assetID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Asset ID must be an integer"})
		return
	}

	var req models.ReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	asset, err := h.service.Receive(assetID, req)
	if err != nil {
		if custom_error.IsValidation(err) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Receipt rejected", "details": err.Error()})
			return
		}
		if custom_error.IsNotFound(err) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to book receipt", "details": err.Error()})
		return
	}

	go h.AuditLog.Log(
		"receive",
		map[string]interface{}{
			"quantity":  req.Quantity,
			"unit_cost": req.UnitCost,
			"note":      req.Note,
			"msg":       "Goods receipt booked",
		},
		asset,
	)

	c.JSON(http.StatusOK, asset)
}
