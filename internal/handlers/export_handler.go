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

// ExportHandler handles outbound feed requests
type ExportHandler struct {
	exportService    *services.ExportService
	erpExportService *services.ERPExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportService *services.ExportService, erpExportService *services.ERPExportService) *ExportHandler {
	return &ExportHandler{
		exportService:    exportService,
		erpExportService: erpExportService,
	}
}

// ExportOutlet produces the standard feed for one outlet. With
// download=true the CSV body is returned directly; otherwise the result
// metadata comes back as JSON.
func (h *ExportHandler) ExportOutlet(c *gin.Context) {
	outletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid outlet ID"})
		return
	}
	platform := models.Platform(c.Query("platform"))
	if !platform.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid platform"})
		return
	}

	result, err := h.exportService.Export(c.Request.Context(), outletID, platform, c.GetString("user"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if result.Record.Status != models.ExportStatusSuccess {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}

	if c.Query("download") == "true" {
		c.Header("Content-Disposition", "attachment; filename="+result.FileName)
		c.Data(http.StatusOK, "text/csv", result.Content)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportERP produces the reconciliation feed for a platform
func (h *ExportHandler) ExportERP(c *gin.Context) {
	platform := models.Platform(c.Query("platform"))
	if !platform.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid platform"})
		return
	}

	result, err := h.erpExportService.Export(c.Request.Context(), platform, c.GetString("user"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if result.Record.Status != models.ExportStatusSuccess {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}

	if c.Query("download") == "true" {
		c.Header("Content-Disposition", "attachment; filename="+result.FileName)
		c.Data(http.StatusOK, "text/csv", result.Content)
		return
	}

	c.JSON(http.StatusOK, result)
}

// History lists the export audit trail
func (h *ExportHandler) History(c *gin.Context) {
	platform := models.Platform(c.Query("platform"))
	if !platform.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid platform"})
		return
	}

	var outletID *uuid.UUID
	if raw := c.Query("outletId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid outlet ID"})
			return
		}
		outletID = &id
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, total, err := h.exportService.History(c.Request.Context(), outletID, platform, repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}
