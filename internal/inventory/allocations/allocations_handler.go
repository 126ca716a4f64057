package allocations

import (
	"net/http"
	"strconv"

	"stockledger/internal/repository"
	pkgauditlog "stockledger/pkg/auditlog"
	custom_error "stockledger/pkg/errors"
	"stockledger/pkg/models"
	"stockledger/pkg/security"

	"github.com/gin-gonic/gin"
)

type AllocationHandler struct {
	r        *AllocationsRepository
	service  *AllocationService
	AuditLog *pkgauditlog.Auditlog
}

func NewAllocationHandler(r *AllocationsRepository, service *AllocationService, a *pkgauditlog.Auditlog) *AllocationHandler {
	return &AllocationHandler{
		r:        r,
		service:  service,
		AuditLog: a,
	}
}

func (h *AllocationHandler) RegisterRoutes(router *gin.Engine) {
	protectedRoutes := router.Group("")
	protectedRoutes.Use(security.JWTMiddleware())
	{
		protectedRoutes.GET("/allocations", h.GetAllocationList)
		protectedRoutes.GET("/allocations/:id", h.GetAllocation)
		protectedRoutes.POST("/allocations", security.Authorize("user"), h.CreateAllocation)
		protectedRoutes.POST("/allocations/:id/return", security.Authorize("user"), h.ReturnAllocation)
		protectedRoutes.POST("/allocations/:id/consume", security.Authorize("user"), h.ConsumeAllocation)
	}
}

func (h *AllocationHandler) GetAllocationList(c *gin.Context) {
	conditions := repository.NewQueryBuilder()
	for _, key := range []string{"asset_id", "status", "allocated_to_id"} {
		if value := c.Query(key); value != "" {
			conditions.AddCondition(key, value)
		}
	}

	allocations, err := h.r.GetAllocationsBy(conditions)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to get allocations", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, allocations)
}

func (h *AllocationHandler) GetAllocation(c *gin.Context) {
	allocationID, err := strconv.Atoi(c.Param("id"))
	if err != nil || allocationID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Allocation ID must be an integer"})
		return
	}

	allocation, err := h.r.GetAllocation(allocationID)
	if err != nil {
		if custom_error.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Allocation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to get allocation", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, allocation)
}

func (h *AllocationHandler) CreateAllocation(c *gin.Context) {
	var req models.AllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	allocation, err := h.service.Allocate(req)
	if err != nil {
		h.respondWithLifecycleError(c, err, "Failed to allocate asset")
		return
	}

	go h.AuditLog.Log(
		"allocate",
		map[string]interface{}{
			"asset_id": allocation.AssetID,
			"quantity": allocation.Quantity,
			"to":       allocation.AllocatedToName,
			"msg":      "Asset allocated",
		},
		allocation,
	)

	c.JSON(http.StatusCreated, allocation)
}

// ReturnAllocation books a return. A request without a quantity closes the
// whole allocation; one with a quantity books a partial return.
func (h *AllocationHandler) ReturnAllocation(c *gin.Context) {
	allocationID, err := strconv.Atoi(c.Param("id"))
	if err != nil || allocationID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Allocation ID must be an integer"})
		return
	}

	var req models.ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	var allocation *models.Allocation
	if req.Quantity == nil {
		allocation, err = h.service.ReturnFull(allocationID, req)
	} else {
		allocation, err = h.service.ReturnPartial(allocationID, req)
	}
	if err != nil {
		h.respondWithLifecycleError(c, err, "Failed to return allocation")
		return
	}

	go h.AuditLog.Log(
		"return",
		map[string]interface{}{
			"asset_id":    allocation.AssetID,
			"quantity":    allocation.Quantity,
			"reusability": req.ReusabilityPct,
			"msg":         "Allocation returned",
		},
		allocation,
	)

	c.JSON(http.StatusOK, allocation)
}

func (h *AllocationHandler) ConsumeAllocation(c *gin.Context) {
	allocationID, err := strconv.Atoi(c.Param("id"))
	if err != nil || allocationID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Allocation ID must be an integer"})
		return
	}

	var req models.ConsumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	allocation, err := h.service.Consume(allocationID, req)
	if err != nil {
		h.respondWithLifecycleError(c, err, "Failed to consume allocation")
		return
	}

	go h.AuditLog.Log(
		"consume",
		map[string]interface{}{
			"asset_id": allocation.AssetID,
			"quantity": req.ConsumedQuantity,
			"msg":      "Consumable usage booked",
		},
		allocation,
	)

	c.JSON(http.StatusOK, allocation)
}

func (h *AllocationHandler) respondWithLifecycleError(c *gin.Context, err error, fallback string) {
	switch {
	case custom_error.IsValidation(err):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fallback, "details": err.Error()})
	case custom_error.IsNotFound(err):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": fallback, "details": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": fallback, "details": err.Error()})
	}
}
