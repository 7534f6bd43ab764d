package image

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/abduss/forum/internal/middleware"
	"github.com/abduss/forum/internal/response"
	"github.com/abduss/forum/internal/user"
	"github.com/gin-gonic/gin"
)

// FormField is the multipart field carrying an uploaded picture.
const FormField = "file"

type accountLookup interface {
	FindByUsername(ctx context.Context, username string) (user.User, error)
}

// RegisterRoutes mounts picture upload and serving endpoints.
func RegisterRoutes(router *gin.RouterGroup, service *Service, accounts accountLookup, requireAuth gin.HandlerFunc) {
	handler := &httpHandler{service: service, accounts: accounts}
	router.POST("/users/me/picture", requireAuth, handler.saveProfilePicture)
	router.GET("/images/:name", handler.serve)
}

type httpHandler struct {
	service  *Service
	accounts accountLookup
}

func (h *httpHandler) saveProfilePicture(c *gin.Context) {
	u, err := h.accounts.FindByUsername(c.Request.Context(), middleware.Username(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	fileHeader, err := c.FormFile(FormField)
	if err != nil {
		response.Fail(c, ErrFileCannotBeNull)
		return
	}
	up, closer, err := OpenUpload(fileHeader)
	if err != nil {
		response.Fail(c, err)
		return
	}
	defer closer.Close()

	path, err := h.service.SaveProfilePicture(c.Request.Context(), u.ID, up)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusCreated, gin.H{"path": path})
}

func (h *httpHandler) serve(c *gin.Context) {
	target, err := h.service.PresignedURL(c.Request.Context(), PathPrefix+c.Param("name"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, target)
}

// OpenUpload opens a multipart file as an Upload. The caller closes the returned Closer.
func OpenUpload(fileHeader *multipart.FileHeader) (Upload, io.Closer, error) {
	if fileHeader == nil {
		return Upload{}, nil, ErrFileCannotBeNull
	}
	file, err := fileHeader.Open()
	if err != nil {
		return Upload{}, nil, err
	}
	return Upload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	}, file, nil
}
