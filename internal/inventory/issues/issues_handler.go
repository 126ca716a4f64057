package issues

import (
	"net/http"
	"strconv"

	pkgauditlog "stockledger/pkg/auditlog"
	custom_error "stockledger/pkg/errors"
	"stockledger/pkg/models"
	"stockledger/pkg/security"

	"github.com/gin-gonic/gin"
)

type IssueHandler struct {
	r        *IssuesRepository
	service  *IssueService
	AuditLog *pkgauditlog.Auditlog
}

func NewIssueHandler(r *IssuesRepository, service *IssueService, a *pkgauditlog.Auditlog) *IssueHandler {
	return &IssueHandler{
		r:        r,
		service:  service,
		AuditLog: a,
	}
}

func (h *IssueHandler) RegisterRoutes(router *gin.Engine) {
	protectedRoutes := router.Group("")
	protectedRoutes.Use(security.JWTMiddleware())
	{
		protectedRoutes.GET("/goods-issues", h.GetNoteList)
		protectedRoutes.GET("/goods-issues/:id", h.GetNote)
		protectedRoutes.POST("/goods-issues", security.Authorize("user"), h.CreateNote)
		protectedRoutes.POST("/goods-issues/items/:itemId/return", security.Authorize("user"), h.ReturnItem)
		protectedRoutes.DELETE("/goods-issues/:id", security.Authorize("moderator"), h.DeleteNote)
	}
}

func (h *IssueHandler) GetNoteList(c *gin.Context) {
	notes, err := h.r.GetNoteList()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to get goods issue notes", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, notes)
}

func (h *IssueHandler) GetNote(c *gin.Context) {
	noteID, err := strconv.Atoi(c.Param("id"))
	if err != nil || noteID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Note ID must be an integer"})
		return
	}

	note, err := h.r.GetNote(noteID)
	if err != nil {
		if custom_error.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Goods issue note not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to get goods issue note", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, note)
}

func (h *IssueHandler) CreateNote(c *gin.Context) {
	var req models.GoodsIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	note, err := h.service.CreateNote(req)
	if err != nil {
		switch {
		case custom_error.IsValidation(err):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Goods issue rejected", "details": err.Error()})
		case custom_error.IsNotFound(err):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Goods issue rejected", "details": err.Error()})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create goods issue note", "details": err.Error()})
		}
		return
	}

	go h.AuditLog.Log(
		"issue",
		map[string]interface{}{
			"code":      note.Code,
			"issued_to": note.IssuedTo,
			"items":     len(note.Items),
			"msg":       "Goods issue note created",
		},
		note,
	)

	c.JSON(http.StatusCreated, note)
}

func (h *IssueHandler) ReturnItem(c *gin.Context) {
	itemID, err := strconv.Atoi(c.Param("itemId"))
	if err != nil || itemID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Item ID must be an integer"})
		return
	}

	var req models.IssueReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	note, err := h.service.ReturnItem(itemID, req)
	if err != nil {
		switch {
		case custom_error.IsValidation(err):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Return rejected", "details": err.Error()})
		case custom_error.IsNotFound(err):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Goods issue item not found"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to return goods issue item", "details": err.Error()})
		}
		return
	}

	go h.AuditLog.Log(
		"issue_return",
		map[string]interface{}{
			"code":     note.Code,
			"item_id":  itemID,
			"quantity": req.Quantity,
			"msg":      "Goods issue item returned",
		},
		note,
	)

	c.JSON(http.StatusOK, note)
}

// DeleteNote removes the voucher only. The materials it issued stay issued;
// the response says so explicitly because the operation cannot be undone.
func (h *IssueHandler) DeleteNote(c *gin.Context) {
	noteID, err := strconv.Atoi(c.Param("id"))
	if err != nil || noteID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Note ID must be an integer"})
		return
	}

	note, err := h.r.GetNote(noteID)
	if err != nil {
		if custom_error.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Goods issue note not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to get goods issue note", "details": err.Error()})
		return
	}

	if err := h.service.DeleteNote(noteID); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete goods issue note", "details": err.Error()})
		return
	}

	go h.AuditLog.Log(
		"issue_delete",
		map[string]interface{}{
			"code": note.Code,
			"msg":  "Goods issue note deleted; issued stock not reversed",
		},
		note,
	)

	c.JSON(http.StatusOK, gin.H{
		"message": "Goods issue note deleted. The issued stock was not booked back; this cannot be undone.",
	})
}
