package comment

import (
	"net/http"
	"strconv"

	"github.com/abduss/forum/internal/middleware"
	"github.com/abduss/forum/internal/response"
	"github.com/abduss/forum/internal/user"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts comment endpoints under /comments.
func RegisterRoutes(router *gin.RouterGroup, service *Service, requireAuth, optionalAuth gin.HandlerFunc) {
	handler := &httpHandler{service: service}
	comments := router.Group("/comments")
	{
		comments.GET("", optionalAuth, handler.listByPost)
		comments.GET("/:commentID", optionalAuth, handler.get)
		comments.POST("", requireAuth, handler.create)
		comments.PUT("/:commentID", requireAuth, handler.edit)
		comments.DELETE("/:commentID", requireAuth, handler.delete)
	}
}

type httpHandler struct {
	service *Service
}

type commentRequest struct {
	Post int    `json:"post"`
	Body string `json:"body" binding:"max=10000"`
}

func commentID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("commentID"))
	if err != nil {
		response.Fail(c, ErrCommentNotFound)
		return 0, false
	}
	return id, true
}

func (h *httpHandler) listByPost(c *gin.Context) {
	postID, _ := strconv.Atoi(c.Query("post"))
	comments, err := h.service.ListByPost(c.Request.Context(), postID, user.Role(middleware.Role(c)))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, comments)
}

func (h *httpHandler) get(c *gin.Context) {
	id, ok := commentID(c)
	if !ok {
		return
	}
	comment, err := h.service.Get(c.Request.Context(), id, user.Role(middleware.Role(c)))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, comment)
}

func (h *httpHandler) create(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	comment, err := h.service.Create(c.Request.Context(), middleware.Username(c), req.Post, req.Body)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusCreated, comment)
}

func (h *httpHandler) edit(c *gin.Context) {
	id, ok := commentID(c)
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if err := h.service.Edit(c.Request.Context(), middleware.Username(c), id, req.Body); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func (h *httpHandler) delete(c *gin.Context) {
	id, ok := commentID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.Username(c), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}
