package conversation

import (
	"net/http"
	"strconv"

	"github.com/abduss/forum/internal/middleware"
	"github.com/abduss/forum/internal/response"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the private messaging endpoints. All of them need a bearer token.
func RegisterRoutes(router *gin.RouterGroup, service *Service, requireAuth gin.HandlerFunc) {
	handler := &httpHandler{service: service}
	router.GET("/conversations", requireAuth, handler.listConversations)
	router.GET("/conversations/:conversationID/messages", requireAuth, handler.listMessages)
	router.POST("/messages", requireAuth, handler.send)
	router.DELETE("/messages/:messageID", requireAuth, handler.deleteMessage)
}

type httpHandler struct {
	service *Service
}

type messageRequest struct {
	ReceiverID   string `json:"receiverId"`
	Conversation int    `json:"conversation"`
	Content      string `json:"content" binding:"max=5000"`
}

func (h *httpHandler) listConversations(c *gin.Context) {
	conversations, err := h.service.ListConversations(c.Request.Context(), middleware.Username(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, conversations)
}

func (h *httpHandler) listMessages(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("conversationID"))
	if err != nil {
		response.Fail(c, ErrConversationNotFound)
		return
	}
	messages, err := h.service.ListMessages(c.Request.Context(), id, middleware.Username(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, messages)
}

func (h *httpHandler) send(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	conversationID, err := h.service.SendMessage(c.Request.Context(), middleware.Username(c), SendInput{
		ReceiverID:   req.ReceiverID,
		Conversation: req.Conversation,
		Content:      req.Content,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusCreated, conversationID)
}

func (h *httpHandler) deleteMessage(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("messageID"))
	if err != nil {
		response.Fail(c, ErrMessageNotFound)
		return
	}
	if err := h.service.DeleteMessage(c.Request.Context(), id, middleware.Username(c)); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}
