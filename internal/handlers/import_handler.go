package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pricing-sync-service/internal/models"
	"pricing-sync-service/internal/services"
)

// maxUploadRows bounds one upload so a runaway file cannot monopolize the
// outlet's batch slot for hours.
const maxUploadRows = 100000

// ImportHandler handles inbound price/stock batch requests
type ImportHandler struct {
	importService *services.ImportService
}

// NewImportHandler creates a new import handler
func NewImportHandler(importService *services.ImportService) *ImportHandler {
	return &ImportHandler{
		importService: importService,
	}
}

type importBatchRequest struct {
	OutletID uuid.UUID                   `json:"outletId" binding:"required"`
	Platform models.Platform             `json:"platform" binding:"required"`
	Rows     []services.ProductUpdateRow `json:"rows" binding:"required"`
}

// CreateBatch runs an inbound JSON batch against one outlet
func (h *ImportHandler) CreateBatch(c *gin.Context) {
	var req importBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Platform.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid platform"})
		return
	}
	if len(req.Rows) == 0 || len(req.Rows) > maxUploadRows {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("row count must be between 1 and %d", maxUploadRows)})
		return
	}

	result, err := h.importService.ProcessBatch(c.Request.Context(), services.ImportRequest{
		OutletID:  req.OutletID,
		Platform:  req.Platform,
		Rows:      req.Rows,
		Source:    "api",
		CreatedBy: c.GetString("user"),
	})
	if err != nil {
		if strings.Contains(err.Error(), "timeout waiting") {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// UploadCSV runs an inbound CSV upload against one outlet
func (h *ImportHandler) UploadCSV(c *gin.Context) {
	outletID, err := uuid.Parse(c.PostForm("outletId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid outlet ID"})
		return
	}
	platform := models.Platform(c.PostForm("platform"))
	if !platform.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid platform"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	rows, err := parseProductCSV(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(rows) == 0 || len(rows) > maxUploadRows {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("row count must be between 1 and %d", maxUploadRows)})
		return
	}

	result, err := h.importService.ProcessBatch(c.Request.Context(), services.ImportRequest{
		OutletID:  outletID,
		Platform:  platform,
		Rows:      rows,
		Source:    "upload:" + header.Filename,
		CreatedBy: c.GetString("user"),
	})
	if err != nil {
		if strings.Contains(err.Error(), "timeout waiting") {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// parseProductCSV decodes an upload into rows. The header row names the
// columns; unknown columns are ignored so upstream can add fields without
// breaking older deployments.
func parseProductCSV(r io.Reader) ([]services.ProductUpdateRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["item_code"]; !ok {
		return nil, fmt.Errorf("missing required column item_code")
	}
	if _, ok := cols["units"]; !ok {
		return nil, fmt.Errorf("missing required column units")
	}

	field := func(record []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var rows []services.ProductUpdateRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row := services.ProductUpdateRow{
			ItemCode: field(record, "item_code"),
			Units:    field(record, "units"),
			SKU:      field(record, "sku"),
		}
		if row.ItemCode == "" || row.Units == "" {
			return nil, fmt.Errorf("line %d: item_code and units are required", line)
		}
		if v := field(record, "mrp"); v != "" {
			row.MRP = &v
		}
		if v := field(record, "cost"); v != "" {
			row.Cost = &v
		}
		if v := field(record, "stock"); v != "" {
			row.Stock = &v
		}
		rows = append(rows, row)

		if len(rows) > maxUploadRows {
			return nil, fmt.Errorf("upload exceeds %d rows", maxUploadRows)
		}
	}
	return rows, nil
}
