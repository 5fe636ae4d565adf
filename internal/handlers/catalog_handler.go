package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pricing-sync-service/internal/models"
	"pricing-sync-service/internal/repository"
	"pricing-sync-service/internal/services"
)

// CatalogHandler handles item and outlet HTTP requests
type CatalogHandler struct {
	catalogService *services.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// CreateItem registers a catalog entry
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	var req services.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Platform.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid platform"})
		return
	}

	item, err := h.catalogService.CreateItem(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, item)
}

// GetItem retrieves an item and its variant group
func (h *CatalogHandler) GetItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ID"})
		return
	}

	item, variants, err := h.catalogService.GetItem(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item":     item,
		"variants": variants,
	})
}

// ListItems pages through a platform's catalog
func (h *CatalogHandler) ListItems(c *gin.Context) {
	platform := models.Platform(c.Query("platform"))
	if !platform.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid platform"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, total, err := h.catalogService.ListItems(c.Request.Context(), platform, repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  items,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// SetLocks toggles the central price/status locks on an item
func (h *CatalogHandler) SetLocks(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ID"})
		return
	}

	var req services.LockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.catalogService.SetLocks(c.Request.Context(), id, &req)
	if err != nil {
		if err == repository.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, item)
}

// ResetBinding clears one (item, outlet) binding
func (h *CatalogHandler) ResetBinding(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item ID"})
		return
	}
	outletID, err := uuid.Parse(c.Param("outletId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid outlet ID"})
		return
	}

	if err := h.catalogService.ResetBinding(c.Request.Context(), itemID, outletID); err != nil {
		if err == repository.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "binding not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// CreateOutlet registers an outlet
func (h *CatalogHandler) CreateOutlet(c *gin.Context) {
	var req services.CreateOutletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Platform.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid platform"})
		return
	}

	outlet, err := h.catalogService.CreateOutlet(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, outlet)
}

// GetOutlet retrieves one outlet
func (h *CatalogHandler) GetOutlet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ID"})
		return
	}

	outlet, err := h.catalogService.GetOutlet(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "outlet not found"})
		return
	}

	c.JSON(http.StatusOK, outlet)
}

// ListOutlets returns a platform's active outlets
func (h *CatalogHandler) ListOutlets(c *gin.Context) {
	platform := models.Platform(c.Query("platform"))
	if !platform.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid platform"})
		return
	}

	outlets, err := h.catalogService.ListOutlets(c.Request.Context(), platform)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"outlets": outlets,
		"total":   len(outlets),
	})
}
