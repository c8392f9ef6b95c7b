package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/johnallens/content-platform/internal/content"
	"github.com/johnallens/content-platform/internal/content/service"
	"github.com/johnallens/content-platform/internal/identity"
	"github.com/johnallens/content-platform/pkg/logger"
)

// maxUploadBytes caps a single media upload.
const maxUploadBytes = 64 << 20

// ObjectStorage is the slice of the media store the handlers need.
// Satisfied by *storage.MediaStorage.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}

// MediaHandler accepts multipart uploads: the binary goes to object
// storage, the metadata becomes a media entry whose url and object_key
// point back at the stored object.
type MediaHandler struct {
	svc     *service.Service
	storage ObjectStorage
	ids     identity.Generator
}

func NewMediaHandler(svc *service.Service, st ObjectStorage, ids identity.Generator) *MediaHandler {
	return &MediaHandler{svc: svc, storage: st, ids: ids}
}

// Register mounts POST /media/upload. Uploads always require auth.
func (h *MediaHandler) Register(rg *gin.RouterGroup, authRequired gin.HandlerFunc) {
	g := rg.Group("/media")
	if authRequired != nil {
		g.POST("/upload", authRequired, h.Upload)
	} else {
		g.POST("/upload", h.Upload)
	}
}

func (h *MediaHandler) Upload(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "media storage not configured"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "video/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only image and video uploads are allowed"})
		return
	}

	fields := content.Fields{
		"title":       c.PostForm("title"),
		"description": c.PostForm("description"),
		"category":    c.PostForm("category"),
	}
	if tags := c.PostForm("tags"); tags != "" {
		var list []string
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				list = append(list, t)
			}
		}
		fields["tags"] = list
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return
	}
	defer f.Close()

	key := fmt.Sprintf("%s/%s%s", h.svc.Kind(), h.ids.NewID(), path.Ext(fileHeader.Filename))
	url, err := h.storage.Upload(c.Request.Context(), key, f, fileHeader.Size, contentType)
	if err != nil {
		logger.Errorf("media upload failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "upload failed"})
		return
	}

	fields["url"] = url
	fields["object_key"] = key
	fields["content_type"] = contentType

	doc, err := h.svc.Create(c.Request.Context(), fields)
	if err != nil {
		// the entry never landed; don't leak the object
		if rmErr := h.storage.Remove(c.Request.Context(), key); rmErr != nil {
			logger.Warnf("orphaned media object %s: %v", key, rmErr)
		}
		writeContentError(c, err)
		return
	}
	c.JSON(http.StatusCreated, renderDocument(doc))
}

// Cleanup drops the stored binary after its entry is deleted. Removal
// is best-effort: a leftover object costs storage, not correctness.
func (h *MediaHandler) Cleanup(ctx context.Context, doc *content.Document) {
	if h.storage == nil {
		return
	}
	key, ok := doc.Fields.Str("object_key")
	if !ok || key == "" {
		return
	}
	if err := h.storage.Remove(ctx, key); err != nil {
		logger.Warnf("orphaned media object %s: %v", key, err)
	}
}
