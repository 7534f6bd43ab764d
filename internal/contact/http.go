package contact

import (
	"net/http"

	"github.com/abduss/forum/internal/response"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the anonymous contact endpoint.
func RegisterRoutes(router *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	router.POST("/contact", handler.send)
}

type httpHandler struct {
	service *Service
}

type contactRequest struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (h *httpHandler) send(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if err := h.service.Send(c.Request.Context(), req.Email, req.Message); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}
