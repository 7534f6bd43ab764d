package post

import (
	"net/http"
	"strconv"

	"github.com/abduss/forum/internal/image"
	"github.com/abduss/forum/internal/middleware"
	"github.com/abduss/forum/internal/response"
	"github.com/abduss/forum/internal/user"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts post endpoints under /posts.
func RegisterRoutes(router *gin.RouterGroup, service *Service, requireAuth, optionalAuth gin.HandlerFunc) {
	handler := &httpHandler{service: service}
	router.GET("/index", optionalAuth, handler.index)

	posts := router.Group("/posts")
	{
		posts.GET("", optionalAuth, handler.listByCategory)
		posts.GET("/:postID", optionalAuth, handler.get)
		posts.POST("", requireAuth, handler.create)
		posts.PUT("/:postID", requireAuth, handler.update)
		posts.DELETE("/:postID", requireAuth, handler.delete)
		posts.PUT("/:postID/lock", requireAuth, handler.setLocked)
		posts.POST("/:postID/image", requireAuth, handler.attachImage)
		posts.DELETE("/:postID/image", requireAuth, handler.deleteImage)
	}
}

type httpHandler struct {
	service *Service
}

type postRequest struct {
	Category int    `json:"category"`
	Title    string `json:"title" binding:"max=256"`
	Body     string `json:"body"`
}

type lockRequest struct {
	Locked bool `json:"locked"`
}

func postID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("postID"))
	if err != nil {
		response.Fail(c, ErrPostNotFound)
		return 0, false
	}
	return id, true
}

func (h *httpHandler) listByCategory(c *gin.Context) {
	categoryID, _ := strconv.Atoi(c.Query("category"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	result, err := h.service.ListByCategory(c.Request.Context(), categoryID, user.Role(middleware.Role(c)), page)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, result)
}

func (h *httpHandler) index(c *gin.Context) {
	sections, err := h.service.Index(c.Request.Context(), user.Role(middleware.Role(c)))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, sections)
}

func (h *httpHandler) get(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	p, err := h.service.Get(c.Request.Context(), id, user.Role(middleware.Role(c)))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, p)
}

func (h *httpHandler) create(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	p, err := h.service.Create(c.Request.Context(), middleware.Username(c), Input{
		Category: req.Category,
		Title:    req.Title,
		Body:     req.Body,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusCreated, p)
}

func (h *httpHandler) update(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if err := h.service.Update(c.Request.Context(), middleware.Username(c), id, Input{Title: req.Title, Body: req.Body}); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func (h *httpHandler) delete(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.Username(c), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func (h *httpHandler) setLocked(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	var req lockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if err := h.service.SetLocked(c.Request.Context(), middleware.Username(c), id, req.Locked); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func (h *httpHandler) attachImage(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile(image.FormField)
	if err != nil {
		response.Fail(c, image.ErrFileCannotBeNull)
		return
	}
	up, closer, err := image.OpenUpload(fileHeader)
	if err != nil {
		response.Fail(c, err)
		return
	}
	defer closer.Close()

	path, err := h.service.AttachImage(c.Request.Context(), middleware.Username(c), id, up)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusCreated, gin.H{"path": path})
}

func (h *httpHandler) deleteImage(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteImage(c.Request.Context(), middleware.Username(c), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}
