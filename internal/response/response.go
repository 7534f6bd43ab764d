// Package response writes the uniform result envelope returned by every endpoint.
package response

import (
	"net/http"

	"github.com/abduss/forum/internal/apperr"
	"github.com/abduss/forum/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Envelope is the body shape shared by all endpoints.
type Envelope struct {
	Succeeded bool     `json:"succeeded"`
	Messages  []string `json:"messages"`
	Result    any      `json:"result"`
}

// OK writes a successful envelope.
func OK(c *gin.Context, status int, result any) {
	c.JSON(status, Envelope{Succeeded: true, Messages: []string{}, Result: result})
}

// Fail maps err onto a status code and writes a failed envelope.
// Errors outside the domain taxonomy are logged and hidden behind a 500.
func Fail(c *gin.Context, err error) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		logger.For(c).Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Envelope{Succeeded: false, Messages: []string{"InternalError"}})
		return
	}
	c.JSON(StatusFor(kind), Envelope{Succeeded: false, Messages: apperr.Codes(err)})
}

// BadRequest reports a malformed payload.
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Envelope{Succeeded: false, Messages: []string{"InvalidRequest"}, Result: err.Error()})
}

// Unauthorized aborts the request with a 401 envelope.
func Unauthorized(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{Succeeded: false, Messages: []string{code}})
}

// Forbidden aborts the request with a 403 envelope.
func Forbidden(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusForbidden, Envelope{Succeeded: false, Messages: []string{code}})
}

// StatusFor returns the HTTP status used for an error kind.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidInput, apperr.KindFailed:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden, apperr.KindAccountState:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
