package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sevcommerce/catalog-sync/app/tasks"
)

// StatsProvider exposes a consistent snapshot of sync cycle statistics
type StatsProvider interface {
	Snapshot() tasks.Snapshot
}

var _ StatsProvider = (*tasks.Stats)(nil)

type Handler struct {
	stats   StatsProvider
	version string
}

func NewHandler(stats StatsProvider, version string) *Handler {
	return &Handler{
		stats:   stats,
		version: version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.stats.Snapshot())
}
