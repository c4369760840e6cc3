package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/techupgradenow/edumanage/internal/services"
	"github.com/techupgradenow/edumanage/pkg/response"
)

type ActivityLogHandler struct {
	activityLogService *services.ActivityLogService
}

func NewActivityLogHandler(activity *services.ActivityLogService) *ActivityLogHandler {
	return &ActivityLogHandler{activityLogService: activity}
}

// List
// GET /api/activity-logs
func (h *ActivityLogHandler) List(c *gin.Context) {
	var req services.ActivityLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	resp, err := h.activityLogService.List(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Activity logs fetched", resp)
}

// GetModules
// GET /api/activity-logs/modules
func (h *ActivityLogHandler) GetModules(c *gin.Context) {
	modules, err := h.activityLogService.Modules(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Modules fetched", gin.H{"modules": modules})
}
