package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pricing-sync-service/internal/models"
	"pricing-sync-service/internal/services"
)

// RulesHandler handles margin and stock configuration updates
type RulesHandler struct {
	importService *services.ImportService
}

// NewRulesHandler creates a new rules handler
func NewRulesHandler(importService *services.ImportService) *RulesHandler {
	return &RulesHandler{
		importService: importService,
	}
}

type marginRulesRequest struct {
	Platform models.Platform          `json:"platform" binding:"required"`
	Rules    []services.MarginRuleRow `json:"rules" binding:"required,min=1"`
}

// ApplyMarginRules sets or clears per-item margin overrides
func (h *RulesHandler) ApplyMarginRules(c *gin.Context) {
	var req marginRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Platform.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid platform"})
		return
	}

	result, err := h.importService.ApplyMarginRules(c.Request.Context(), req.Platform, req.Rules)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

type stockRulesRequest struct {
	Platform models.Platform         `json:"platform" binding:"required"`
	Rules    []services.StockRuleRow `json:"rules" binding:"required,min=1"`
}

// ApplyStockRules updates weight, case and minimum-quantity configuration
func (h *RulesHandler) ApplyStockRules(c *gin.Context) {
	var req stockRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Platform.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid platform"})
		return
	}

	result, err := h.importService.ApplyStockRules(c.Request.Context(), req.Platform, req.Rules)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
