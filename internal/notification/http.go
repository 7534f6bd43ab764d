package notification

import (
	"net/http"
	"strconv"

	"github.com/abduss/forum/internal/middleware"
	"github.com/abduss/forum/internal/response"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts notification endpoints. All of them need a bearer token.
func RegisterRoutes(router *gin.RouterGroup, service *Service, requireAuth gin.HandlerFunc) {
	handler := &httpHandler{service: service}
	notifications := router.Group("/notifications", requireAuth)
	{
		notifications.GET("", handler.list)
		notifications.PUT("/read", handler.markAllRead)
		notifications.DELETE("/:notificationID", handler.delete)
	}
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) list(c *gin.Context) {
	notifications, err := h.service.ListForUser(c.Request.Context(), middleware.Username(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, notifications)
}

func (h *httpHandler) markAllRead(c *gin.Context) {
	if err := h.service.MarkAllRead(c.Request.Context(), middleware.Username(c)); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func (h *httpHandler) delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("notificationID"))
	if err != nil {
		response.Fail(c, ErrNotificationNotFound)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, middleware.Username(c)); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}
