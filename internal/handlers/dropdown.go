package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/techupgradenow/edumanage/internal/middleware"
	"github.com/techupgradenow/edumanage/internal/services"
	"github.com/techupgradenow/edumanage/pkg/response"
)

type DropdownHandler struct {
	dropdownService    *services.DropdownService
	institutionService *services.InstitutionService
}

func NewDropdownHandler(dropdowns *services.DropdownService, institutions *services.InstitutionService) *DropdownHandler {
	return &DropdownHandler{
		dropdownService:    dropdowns,
		institutionService: institutions,
	}
}

// actionBody picks the dispatch action out of a JSON body.
type actionBody struct {
	Action string `json:"action"`
}

// resolve returns the institution type named by ?institution_type=, or the
// configured one.
func (h *DropdownHandler) resolve(c *gin.Context) (*services.Institution, bool) {
	inst, err := h.institutionService.Resolve(c.Request.Context(), c.Query("institution_type"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return inst, true
}

// Get dispatches GET /api/dropdowns?action=values|categories|all|by_category.
func (h *DropdownHandler) Get(c *gin.Context) {
	switch c.DefaultQuery("action", "values") {
	case "values":
		h.values(c)
	case "categories":
		h.categories(c)
	case "all":
		h.all(c)
	case "by_category":
		h.byCategory(c)
	default:
		response.BadRequest(c, "Invalid action")
	}
}

func (h *DropdownHandler) values(c *gin.Context) {
	filter := &services.ValueFilter{
		CategoryKey: c.Query("category"),
		ActiveOnly:  true,
	}
	if raw := c.Query("active_only"); raw != "" {
		filter.ActiveOnly = parseBool(raw)
	}
	if raw := c.Query("parent_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			response.Error(c, response.NewValidation("Invalid parent_id"))
			return
		}
		parentID := uint(id)
		filter.ParentID = &parentID
	}

	inst, ok := h.resolve(c)
	if !ok {
		return
	}
	listing, err := h.dropdownService.ListValues(c.Request.Context(), inst, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	if listing.Grouped() {
		response.Success(c, "Dropdown values fetched", listing.Groups)
		return
	}
	response.Success(c, "Dropdown values fetched", listing.Values)
}

func (h *DropdownHandler) categories(c *gin.Context) {
	inst, ok := h.resolve(c)
	if !ok {
		return
	}
	cats, err := h.dropdownService.ListCategories(c.Request.Context(), inst)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Categories fetched", cats)
}

func (h *DropdownHandler) all(c *gin.Context) {
	inst, ok := h.resolve(c)
	if !ok {
		return
	}
	all, err := h.dropdownService.BulkFetchAll(c.Request.Context(), inst)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "All dropdowns fetched", all)
}

func (h *DropdownHandler) byCategory(c *gin.Context) {
	inst, ok := h.resolve(c)
	if !ok {
		return
	}
	result, err := h.dropdownService.ByCategory(c.Request.Context(), inst, c.Query("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Dropdown fetched", result)
}

// Post dispatches POST /api/dropdowns on the body's action, add_value by
// default. ?action= is accepted as well.
func (h *DropdownHandler) Post(c *gin.Context) {
	var body actionBody
	if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
		response.BindError(c, err)
		return
	}
	action := body.Action
	if action == "" {
		action = c.DefaultQuery("action", "add_value")
	}
	c.Set(middleware.ContextAction, action)

	switch action {
	case "add_value":
		h.addValue(c)
	case "add_category":
		h.addCategory(c)
	default:
		response.BadRequest(c, "Invalid action")
	}
}

func (h *DropdownHandler) addValue(c *gin.Context) {
	var req services.AddValueRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		response.BindError(c, err)
		return
	}

	inst, ok := h.resolve(c)
	if !ok {
		return
	}
	resp, err := h.dropdownService.AddValue(c.Request.Context(), inst, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fmt.Sprintf("Added '%s' to %s", resp.Value, resp.CategoryName), resp)
}

func (h *DropdownHandler) addCategory(c *gin.Context) {
	var req services.AddCategoryRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		response.BindError(c, err)
		return
	}

	cat, err := h.dropdownService.AddCategory(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fmt.Sprintf("Category '%s' created", cat.CategoryName), gin.H{
		"id":            cat.ID,
		"category_key":  cat.CategoryKey,
		"category_name": cat.CategoryName,
	})
}

// Update handles PUT /api/dropdowns.
func (h *DropdownHandler) Update(c *gin.Context) {
	c.Set(middleware.ContextAction, "update_value")

	var req services.UpdateValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	row, err := h.dropdownService.UpdateValue(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Value updated successfully", row)
}

// Delete handles DELETE /api/dropdowns?id=&type=value|category.
func (h *DropdownHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Query("id"), 10, 64)

	if c.DefaultQuery("type", "value") == "category" {
		c.Set(middleware.ContextAction, "delete_category")
		if err := h.dropdownService.DeleteCategory(c.Request.Context(), uint(id)); err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, "Category deleted successfully", nil)
		return
	}

	c.Set(middleware.ContextAction, "delete_value")
	if err := h.dropdownService.DeleteValue(c.Request.Context(), uint(id)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Value deleted successfully", nil)
}

func parseBool(s string) bool {
	switch s {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	}
	return false
}
