package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"marketplace-service/internal/rabbitmq"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, publisher rabbitmq.Publisher, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/publish-test", func(c *gin.Context) {
		if publisher == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "publisher not configured"})
			return
		}
		probeID := uuid.NewString()
		err := publisher.Publish(c.Request.Context(), "notifications.debug", gin.H{
			"event_type":  "debug_probe",
			"probe_id":    probeID,
			"occurred_at": time.Now().UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "publish failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "probe_id": probeID})
	})
}
