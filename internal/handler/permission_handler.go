package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type PermissionHandler struct {
	permissionService service.PermissionService
	auth              *middleware.AuthMiddleware
}

func NewPermissionHandler(permissionService service.PermissionService, auth *middleware.AuthMiddleware) *PermissionHandler {
	return &PermissionHandler{permissionService: permissionService, auth: auth}
}

func (h *PermissionHandler) RegisterRoutes(router *gin.RouterGroup) {
	perms := router.Group("/api/permissions")
	perms.Use(h.auth.Protect())
	{
		perms.GET("", middleware.RequirePermission("read_permission"), h.ListPermissions)
		perms.GET("/category/:category", middleware.RequirePermission("read_permission"), h.ListByCategory)
		perms.POST("", middleware.RequirePermission("create_permission"), h.CreatePermission)
		perms.PUT("/:id", middleware.RequirePermission("update_permission"), h.UpdatePermission)
		perms.DELETE("/:id", middleware.RequirePermission("delete_permission"), h.DeletePermission)
	}
}

// ListPermissions returns the full permission catalog
// @Summary      List permissions
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.PermissionResponse}
// @Router       /api/permissions [get]
func (h *PermissionHandler) ListPermissions(c *gin.Context) {
	perms, err := h.permissionService.ListPermissions(c.Request.Context())
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// ListByCategory returns the active permissions of one category
func (h *PermissionHandler) ListByCategory(c *gin.Context) {
	perms, err := h.permissionService.FindByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// CreatePermission adds a permission to the catalog
func (h *PermissionHandler) CreatePermission(c *gin.Context) {
	var req service.CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	perm, err := h.permissionService.CreatePermission(c.Request.Context(), middleware.ActorID(c), req)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, perm))
}

// UpdatePermission updates a permission; the name follows action/resource changes
func (h *PermissionHandler) UpdatePermission(c *gin.Context) {
	var req service.UpdatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	perm, err := h.permissionService.UpdatePermission(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, perm))
}

// DeletePermission removes a non-system, unreferenced permission
func (h *PermissionHandler) DeletePermission(c *gin.Context) {
	if err := h.permissionService.DeletePermission(c.Request.Context(), middleware.ActorID(c), c.Param("id")); err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Permission deleted successfully"}))
}
