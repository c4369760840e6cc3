package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/techupgradenow/edumanage/internal/middleware"
	"github.com/techupgradenow/edumanage/internal/services"
	"github.com/techupgradenow/edumanage/pkg/response"
)

type InstitutionHandler struct {
	institutionService *services.InstitutionService
}

func NewInstitutionHandler(institutions *services.InstitutionService) *InstitutionHandler {
	return &InstitutionHandler{institutionService: institutions}
}

// Get dispatches GET /api/institution?action=settings|types|current_type.
func (h *InstitutionHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	switch c.DefaultQuery("action", "settings") {
	case "settings":
		settings, err := h.institutionService.Settings(ctx)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, "Settings fetched successfully", settings)
	case "types":
		types, err := h.institutionService.ListTypes(ctx)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, "Institution types fetched successfully", types)
	case "current_type":
		current, err := h.institutionService.CurrentType(ctx)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, "Current institution type fetched", current)
	default:
		response.BadRequest(c, "Invalid action")
	}
}

type institutionPostRequest struct {
	Action   string                 `json:"action"`
	Settings map[string]interface{} `json:"settings"`
	Type     string                 `json:"type"`
}

// Post dispatches POST /api/institution on the body's action, update by
// default.
func (h *InstitutionHandler) Post(c *gin.Context) {
	var req institutionPostRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		response.BindError(c, err)
		return
	}
	action := req.Action
	if action == "" {
		action = c.DefaultQuery("action", "update")
	}
	c.Set(middleware.ContextAction, action)

	ctx := c.Request.Context()
	switch action {
	case "update":
		if err := h.institutionService.UpdateSettings(ctx, req.Settings); err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, "Settings updated successfully", nil)
	case "set_type":
		resp, err := h.institutionService.SetType(ctx, req.Type)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, "Institution type set to "+resp.Type, resp)
	default:
		response.BadRequest(c, "Invalid action")
	}
}
