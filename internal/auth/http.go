package auth

import (
	"net/http"
	"strings"

	"github.com/abduss/forum/internal/logger"
	"github.com/abduss/forum/internal/middleware"
	"github.com/abduss/forum/internal/response"
	"github.com/abduss/forum/internal/token"
	"github.com/abduss/forum/internal/user"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterRoutes mounts session endpoints under /auth.
func RegisterRoutes(router *gin.RouterGroup, service *Service, requireAuth gin.HandlerFunc) {
	handler := &httpHandler{service: service}
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signin", handler.signIn)
		authGroup.POST("/renew", handler.renew)
		authGroup.POST("/disconnect", requireAuth, handler.disconnect)
		authGroup.DELETE("/tokens", requireAuth, middleware.RequireRole(int(user.RoleAdmin)), handler.purgeAll)
	}
}

type httpHandler struct {
	service *Service
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type renewRequest struct {
	Username     string `json:"username"`
	RefreshToken string `json:"refreshToken"`
}

func (h *httpHandler) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	result, err := h.service.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, result)
}

// renew accepts the username in the body or, failing that, from the
// (possibly expired) access token in the Authorization header.
func (h *httpHandler) renew(c *gin.Context) {
	var req renewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	header := c.GetHeader("Authorization")
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = token.ReadUsername(header)
	}

	result, err := h.service.RenewToken(c.Request.Context(), username, req.RefreshToken)
	if err != nil {
		response.Fail(c, err)
		return
	}
	logger.For(c).Debug("session renewed",
		zap.String("username", username),
		zap.String("previous_role", token.ReadRole(header)))
	response.OK(c, http.StatusOK, result)
}

func (h *httpHandler) disconnect(c *gin.Context) {
	if err := h.service.Disconnect(c.Request.Context(), middleware.Username(c)); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func (h *httpHandler) purgeAll(c *gin.Context) {
	if err := h.service.PurgeAll(c.Request.Context()); err != nil {
		response.Fail(c, err)
		return
	}
	logger.For(c).Info("refresh tokens purged", zap.String("by", middleware.Username(c)))
	response.OK(c, http.StatusOK, nil)
}
