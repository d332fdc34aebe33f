package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness and which storage medium is serving requests.
type HealthHandler struct {
	driver   string
	degraded bool
}

// NewHealthHandler creates a HealthHandler. degraded is true when the
// configured store could not be opened and a non-persistent one is in use.
func NewHealthHandler(driver string, degraded bool) *HealthHandler {
	return &HealthHandler{
		driver:   driver,
		degraded: degraded,
	}
}

// Check returns the service status
func (h *HealthHandler) Check(c *gin.Context) {
	storage := "ok"
	if h.degraded {
		storage = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"storage":   storage,
		"driver":    h.driver,
		"timestamp": time.Now().UTC(),
	})
}
