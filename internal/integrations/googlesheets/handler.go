package googlesheets

import (
	"net/http"

	"stockledger/internal/inventory/assets"
	"stockledger/pkg/security"

	"github.com/gin-gonic/gin"
)

type GoogleSheetsHandler struct {
	service    *SheetsService
	assetsRepo *assets.AssetsRepository
}

func NewGoogleSheetsHandler(service *SheetsService, assetsRepo *assets.AssetsRepository) *GoogleSheetsHandler {
	return &GoogleSheetsHandler{
		service:    service,
		assetsRepo: assetsRepo,
	}
}

func (h *GoogleSheetsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/sheets/register", security.Authorize("moderator"), h.publishRegister)
	router.GET("/sheets/stocktake", security.Authorize("moderator"), h.getStocktake)
}

// publishRegister pushes the current asset register to the shared sheet.
func (h *GoogleSheetsHandler) publishRegister(c *gin.Context) {
	assetList, err := h.assetsRepo.GetAssetList()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to get assets", "details": err.Error()})
		return
	}

	rows := RegisterRows(*assetList)
	if err := h.service.PublishRegister(rows); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish asset register", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Asset register published", "rows": len(rows) - 1})
}

// getStocktake reads the physical count rows staff filled in on the sheet.
func (h *GoogleSheetsHandler) getStocktake(c *gin.Context) {
	values, err := h.service.ReadStocktake()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if values == nil {
		c.JSON(http.StatusOK, gin.H{"rows": []StocktakeRow{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rows": ParseStocktake(values)})
}
