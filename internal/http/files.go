package http

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tazhibayda/townboat/internal/domain"
)

var imageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Upload godoc
// @Summary Upload an image
// @Description Stores the multipart field "file" under uploads/<uid>/ and returns its durable URL.
// @Tags files
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Router /api/files [post]
func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.UploadMaxBytes+1<<10)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	if fh.Size > h.UploadMaxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	ct := fh.Header.Get("Content-Type")
	ext, ok := imageTypes[ct]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, err)
		return
	}
	defer f.Close()

	p := path.Join(viewer(c).ID, uuid.NewString()+ext)
	url, err := h.Store.Upload(reqCtx(c), p, ct, f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url, "path": p})
}

// File streams a stored object.
func (h *Handler) File(c *gin.Context) {
	rc, ct, err := h.Store.Open(c.Request.Context(), c.Param("path"))
	if err != nil {
		fail(c, err)
		return
	}
	defer rc.Close()
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Status(http.StatusOK)
	c.Header("Content-Type", ct)
	_, _ = io.Copy(c.Writer, rc)
}

// DeleteFile removes an object under the caller's own prefix.
func (h *Handler) DeleteFile(c *gin.Context) {
	who := viewer(c)
	p := strings.TrimPrefix(c.Param("path"), "/")
	if !who.Admin && !strings.HasPrefix(p, who.ID+"/") {
		fail(c, domain.ErrForbidden)
		return
	}
	if err := h.Store.DeleteFile(reqCtx(c), p); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
