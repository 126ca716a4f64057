package deletions

import (
	"net/http"
	"strconv"

	pkgauditlog "stockledger/pkg/auditlog"
	custom_error "stockledger/pkg/errors"
	"stockledger/pkg/models"
	"stockledger/pkg/security"

	"github.com/gin-gonic/gin"
)

type DeletionHandler struct {
	r        *DeletionsRepository
	service  *DeletionService
	AuditLog *pkgauditlog.Auditlog
}

func NewDeletionHandler(r *DeletionsRepository, service *DeletionService, a *pkgauditlog.Auditlog) *DeletionHandler {
	return &DeletionHandler{
		r:        r,
		service:  service,
		AuditLog: a,
	}
}

func (h *DeletionHandler) RegisterRoutes(router *gin.Engine) {
	protectedRoutes := router.Group("")
	protectedRoutes.Use(security.JWTMiddleware())
	{
		protectedRoutes.GET("/deletions", h.GetDeletionList)
		protectedRoutes.GET("/deletions/:id", h.GetDeletionRecord)
		protectedRoutes.DELETE("/assets/:id", security.Authorize("moderator"), h.DeleteAsset)
		protectedRoutes.POST("/deletions/:id/restore", security.Authorize("moderator"), h.RestoreAsset)
	}
}

func (h *DeletionHandler) GetDeletionList(c *gin.Context) {
	records, err := h.r.GetDeletionList()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to get deletion records", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, records)
}

func (h *DeletionHandler) GetDeletionRecord(c *gin.Context) {
	recordID, err := strconv.Atoi(c.Param("id"))
	if err != nil || recordID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Record ID must be an integer"})
		return
	}

	record, err := h.r.GetDeletionRecord(recordID)
	if err != nil {
		if custom_error.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Deletion record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to get deletion record", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *DeletionHandler) DeleteAsset(c *gin.Context) {
	assetID, err := strconv.Atoi(c.Param("id"))
	if err != nil || assetID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Asset ID must be an integer"})
		return
	}

	var req models.DeleteAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	record, err := h.service.DeleteAsset(assetID, req, security.UsernameFromContext(c))
	if err != nil {
		switch {
		case custom_error.IsValidation(err):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Asset cannot be deleted", "details": err.Error()})
		case custom_error.IsNotFound(err):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete asset", "details": err.Error()})
		}
		return
	}

	go h.AuditLog.Log(
		"delete",
		map[string]interface{}{
			"sku":        record.AssetSKU,
			"quantity":   record.StockQuantity,
			"cost_basis": record.CostBasis,
			"reason":     record.Reason,
			"msg":        "Asset deleted into history",
		},
		record,
	)

	c.JSON(http.StatusOK, record)
}

func (h *DeletionHandler) RestoreAsset(c *gin.Context) {
	recordID, err := strconv.Atoi(c.Param("id"))
	if err != nil || recordID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Record ID must be an integer"})
		return
	}

	var req models.RestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	asset, err := h.service.Restore(recordID, req, security.UsernameFromContext(c))
	if err != nil {
		switch {
		case custom_error.IsValidation(err):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Restore rejected", "details": err.Error()})
		case custom_error.IsNotFound(err):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Deletion record not found"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to restore asset", "details": err.Error()})
		}
		return
	}

	go h.AuditLog.Log(
		"restore",
		map[string]interface{}{
			"sku":      asset.SKU,
			"quantity": req.Quantity,
			"msg":      "Asset restored from deletion history",
		},
		asset,
	)

	c.JSON(http.StatusOK, asset)
}
