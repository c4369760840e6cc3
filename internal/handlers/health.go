package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techupgradenow/edumanage/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports the state of the database and the optional Redis
// backed components.
type HealthHandler struct {
	db    *gorm.DB
	cache services.DropdownCache
	sink  services.ActivitySink
}

func NewHealthHandler(db *gorm.DB, cache services.DropdownCache, sink services.ActivitySink) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, sink: sink}
}

// CheckHealth
// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := http.StatusOK

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}
	if dbStatus != "ok" {
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	cacheBackend := "none"
	if h.cache != nil {
		cacheBackend = h.cache.Backend()
	}
	activityMode := "sync"
	if h.sink != nil && h.sink.IsAsync() {
		activityMode = "async (Redis)"
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "edumanage",
		"components": gin.H{
			"database":     dbStatus,
			"cache":        cacheBackend,
			"activity_log": activityMode,
		},
	})
}
