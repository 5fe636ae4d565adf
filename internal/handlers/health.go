package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"pricing-sync-service/internal/services"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db        *gorm.DB
	semaphore *services.OutletSemaphore
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB, semaphore *services.OutletSemaphore) *HealthHandler {
	return &HealthHandler{
		db:        db,
		semaphore: semaphore,
	}
}

// Health handles the health check endpoint
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pricing-sync-service",
	})
}

// Ready handles the readiness check endpoint
func (h *HealthHandler) Ready(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"service": "pricing-sync-service",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"service": "pricing-sync-service",
	})
}

// Stats exposes batch concurrency statistics
func (h *HealthHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.semaphore.GetStats())
}
