package server

import (
	"github.com/abduss/forum/internal/auth"
	"github.com/abduss/forum/internal/category"
	"github.com/abduss/forum/internal/chat"
	"github.com/abduss/forum/internal/comment"
	"github.com/abduss/forum/internal/config"
	"github.com/abduss/forum/internal/contact"
	"github.com/abduss/forum/internal/conversation"
	"github.com/abduss/forum/internal/image"
	"github.com/abduss/forum/internal/logger"
	"github.com/abduss/forum/internal/metrics"
	"github.com/abduss/forum/internal/middleware"
	"github.com/abduss/forum/internal/notification"
	"github.com/abduss/forum/internal/post"
	"github.com/abduss/forum/internal/token"
	"github.com/abduss/forum/internal/user"
	"github.com/gin-gonic/gin"
)

// Dependencies groups the services required by the HTTP router.
// Nil services leave their routes unmounted.
type Dependencies struct {
	Config   config.Config
	Health   []Checker
	Tokens   *token.Issuer
	Accounts *user.Manager

	AuthService         *auth.Service
	UserService         *user.Service
	ImageService        *image.Service
	CategoryService     *category.Service
	PostService         *post.Service
	CommentService      *comment.Service
	NotificationService *notification.Service
	ConversationService *conversation.Service
	ContactService      *contact.Service
	ChatHub             *chat.Hub
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	metrics.InitMetrics()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps.Health)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/v1")
	if deps.ContactService != nil {
		contact.RegisterRoutes(api, deps.ContactService)
	}
	if deps.Tokens == nil {
		return router
	}

	requireAuth := middleware.AuthMiddleware(deps.Tokens)
	optionalAuth := middleware.OptionalAuth(deps.Tokens)

	if deps.AuthService != nil {
		auth.RegisterRoutes(api, deps.AuthService, requireAuth)
	}
	if deps.UserService != nil {
		user.RegisterRoutes(api, deps.UserService, requireAuth, optionalAuth)
	}
	if deps.ImageService != nil && deps.Accounts != nil {
		image.RegisterRoutes(api, deps.ImageService, deps.Accounts, requireAuth)
	}
	if deps.CategoryService != nil {
		category.RegisterRoutes(api, deps.CategoryService, requireAuth, optionalAuth)
	}
	if deps.PostService != nil {
		post.RegisterRoutes(api, deps.PostService, requireAuth, optionalAuth)
	}
	if deps.CommentService != nil {
		comment.RegisterRoutes(api, deps.CommentService, requireAuth, optionalAuth)
	}
	if deps.NotificationService != nil {
		notification.RegisterRoutes(api, deps.NotificationService, requireAuth)
	}
	if deps.ConversationService != nil {
		conversation.RegisterRoutes(api, deps.ConversationService, requireAuth)
	}
	if deps.ChatHub != nil {
		chat.RegisterRoutes(api, deps.ChatHub, deps.Config.Chat, requireAuth)
	}

	return router
}
