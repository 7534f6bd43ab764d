package category

import (
	"net/http"
	"strconv"

	"github.com/abduss/forum/internal/middleware"
	"github.com/abduss/forum/internal/response"
	"github.com/abduss/forum/internal/user"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts category endpoints onto the router.
func RegisterRoutes(router *gin.RouterGroup, service *Service, requireAuth, optionalAuth gin.HandlerFunc) {
	handler := &httpHandler{service: service}
	categories := router.Group("/categories")
	{
		categories.GET("", optionalAuth, handler.list)
		categories.GET("/paginated", optionalAuth, handler.listPaginated)
		categories.GET("/:categoryID", optionalAuth, handler.get)
		categories.POST("", requireAuth, handler.create)
		categories.PUT("/:categoryID", requireAuth, handler.update)
		categories.DELETE("/:categoryID", requireAuth, handler.delete)
	}
}

type httpHandler struct {
	service *Service
}

type categoryRequest struct {
	Name        string `json:"name" binding:"max=128"`
	Description string `json:"description" binding:"max=1000"`
	Role        int    `json:"role"`
}

func (r categoryRequest) input() Input {
	return Input{Name: r.Name, Description: r.Description, Role: user.Role(r.Role)}
}

func callerRole(c *gin.Context) user.Role {
	return user.Role(middleware.Role(c))
}

func (h *httpHandler) list(c *gin.Context) {
	categories, err := h.service.List(c.Request.Context(), callerRole(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, categories)
}

func (h *httpHandler) listPaginated(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	result, err := h.service.ListPaginated(c.Request.Context(), callerRole(c), page)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, result)
}

func (h *httpHandler) get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("categoryID"))
	if err != nil {
		response.Fail(c, ErrCategoryNotFound)
		return
	}
	category, err := h.service.Get(c.Request.Context(), id, callerRole(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, category)
}

func (h *httpHandler) create(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	category, err := h.service.Create(c.Request.Context(), callerRole(c), req.input())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusCreated, category)
}

func (h *httpHandler) update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("categoryID"))
	if err != nil {
		response.Fail(c, ErrCategoryNotFound)
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if err := h.service.Update(c.Request.Context(), callerRole(c), id, req.input()); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func (h *httpHandler) delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("categoryID"))
	if err != nil {
		response.Fail(c, ErrCategoryNotFound)
		return
	}
	if err := h.service.Delete(c.Request.Context(), callerRole(c), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}
