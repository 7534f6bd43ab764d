// Package middleware authenticates requests from their bearer access token.
package middleware

import (
	"strings"

	"github.com/abduss/forum/internal/response"
	"github.com/abduss/forum/internal/token"
	"github.com/gin-gonic/gin"
)

const userContextKey = "forumUser"

// accessTokenParam carries the token on websocket upgrades, where browsers cannot set headers.
const accessTokenParam = "access_token"

type tokenValidator interface {
	Validate(raw string) (token.Claims, error)
}

// ContextUser is the authenticated principal stored in the request context.
type ContextUser struct {
	Username string
	Role     int
	IsBanned bool
}

// AuthMiddleware rejects requests without a valid access token.
func AuthMiddleware(validator tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c)
		if raw == "" {
			response.Unauthorized(c, "MissingToken")
			return
		}

		claims, err := validator.Validate(raw)
		if err != nil {
			response.Unauthorized(c, "InvalidToken")
			return
		}

		setUser(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches the principal when a valid token is present and
// lets anonymous requests through as guests.
func OptionalAuth(validator tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := extractToken(c); raw != "" {
			if claims, err := validator.Validate(raw); err == nil {
				setUser(c, claims)
			}
		}
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(min int) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Unauthorized(c, "MissingToken")
			return
		}
		if user.Role < min {
			response.Forbidden(c, "UserNotAuthorized")
			return
		}
		c.Next()
	}
}

// CurrentUser extracts the authenticated user from the context.
func CurrentUser(c *gin.Context) (ContextUser, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return ContextUser{}, false
	}
	user, ok := value.(ContextUser)
	return user, ok
}

// Username returns the caller's username, or "" for guests.
func Username(c *gin.Context) string {
	user, _ := CurrentUser(c)
	return user.Username
}

// Role returns the caller's role claim, or 0 for guests.
func Role(c *gin.Context) int {
	user, _ := CurrentUser(c)
	return user.Role
}

func setUser(c *gin.Context, claims token.Claims) {
	c.Set(userContextKey, ContextUser{
		Username: claims.Username,
		Role:     claims.RoleValue(),
		IsBanned: claims.Banned(),
	})
}

func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		return extractBearerToken(header)
	}
	return strings.TrimSpace(c.Query(accessTokenParam))
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
