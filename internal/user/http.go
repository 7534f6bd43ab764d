package user

import (
	"net/http"
	"strconv"

	"github.com/abduss/forum/internal/middleware"
	"github.com/abduss/forum/internal/response"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the account endpoints under /users.
func RegisterRoutes(router *gin.RouterGroup, service *Service, requireAuth, optionalAuth gin.HandlerFunc) {
	handler := &httpHandler{service: service}
	users := router.Group("/users")
	{
		users.POST("/register", handler.register)
		users.POST("/confirm", handler.confirmEmail)
		users.POST("/recovery", handler.askRecovery)
		users.POST("/recovery/reset", handler.recoverPassword)
		users.GET("/search", requireAuth, handler.search)
		users.GET("/me", requireAuth, handler.selfProfile)
		users.GET("/:username", optionalAuth, handler.profile)
		users.PUT("/me/password", requireAuth, handler.updatePassword)
		users.DELETE("/me", requireAuth, handler.deleteAccount)
		users.PUT("/:username", requireAuth, handler.updateProfile)
		users.PUT("/:username/ban", requireAuth, handler.updateBan)
		users.GET("", requireAuth, middleware.RequireRole(int(RoleAdmin)), handler.list)
	}
}

type httpHandler struct {
	service *Service
}

type registerRequest struct {
	Email    string `json:"email" binding:"max=256"`
	Username string `json:"username" binding:"max=64"`
	Password string `json:"password"`
}

type confirmRequest struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

type recoveryRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	UserID   string `json:"userId"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

type passwordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type profileRequest struct {
	Email       string `json:"email" binding:"omitempty,email"`
	Description string `json:"description" binding:"max=1000"`
	Username    string `json:"username" binding:"max=64"`
	Role        Role   `json:"role"`
	IsBanned    *bool  `json:"isBanned"`
}

type deleteRequest struct {
	Password string `json:"password"`
}

type banRequest struct {
	IsBanned bool `json:"isBanned"`
}

func (h *httpHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	err := h.service.Register(c.Request.Context(), RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusCreated, nil)
}

func (h *httpHandler) confirmEmail(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if err := h.service.ConfirmEmail(c.Request.Context(), req.UserID, req.Token); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func (h *httpHandler) askRecovery(c *gin.Context) {
	var req recoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if err := h.service.AskPasswordRecovery(c.Request.Context(), req.Email); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func (h *httpHandler) recoverPassword(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if err := h.service.RecoverPassword(c.Request.Context(), req.UserID, req.Token, req.Password); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func (h *httpHandler) profile(c *gin.Context) {
	profile, err := h.service.GetProfile(c.Request.Context(), c.Param("username"), middleware.Username(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, profile)
}

func (h *httpHandler) selfProfile(c *gin.Context) {
	username := middleware.Username(c)
	profile, err := h.service.GetProfile(c.Request.Context(), username, username)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, profile)
}

func (h *httpHandler) updatePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	err := h.service.UpdatePassword(c.Request.Context(), middleware.Username(c), req.OldPassword, req.NewPassword)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func (h *httpHandler) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	err := h.service.UpdateProfile(c.Request.Context(), middleware.Username(c), c.Param("username"), ProfileUpdate{
		Email:       req.Email,
		Description: req.Description,
		Username:    req.Username,
		Role:        req.Role,
		IsBanned:    req.IsBanned,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func (h *httpHandler) deleteAccount(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if err := h.service.DeleteAccount(c.Request.Context(), middleware.Username(c), req.Password); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func (h *httpHandler) search(c *gin.Context) {
	profiles, err := h.service.Search(c.Request.Context(), c.Query("q"), middleware.Username(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, profiles)
}

func (h *httpHandler) updateBan(c *gin.Context) {
	var req banRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	err := h.service.UpdateBan(c.Request.Context(), middleware.Username(c), c.Param("username"), req.IsBanned)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func (h *httpHandler) list(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	filter, _ := strconv.Atoi(c.DefaultQuery("filter", "0"))

	result, err := h.service.ListUsers(c.Request.Context(), middleware.Username(c), ListQuery{
		Page:   page,
		Filter: BanFilter(filter),
		Search: c.Query("search"),
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, result)
}
