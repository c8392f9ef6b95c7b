package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/johnallens/content-platform/internal/content"
	"github.com/johnallens/content-platform/internal/content/query"
	"github.com/johnallens/content-platform/internal/content/service"
)

// ContentHandler exposes the CRUD+search surface for one content kind.
// The same handler serves catalog items, media entries and award
// listings; only the injected service differs.
type ContentHandler struct {
	svc     *service.Service
	cleanup CleanupFunc
}

// CleanupFunc runs after a successful delete with the document as it
// was before removal. The media kind uses it to drop the stored binary.
type CleanupFunc func(ctx context.Context, doc *content.Document)

func NewContentHandler(svc *service.Service) *ContentHandler {
	return &ContentHandler{svc: svc}
}

// WithCleanup installs a post-delete hook.
func (h *ContentHandler) WithCleanup(fn CleanupFunc) *ContentHandler {
	h.cleanup = fn
	return h
}

// Register mounts the kind's routes under rg at the given path segment,
// e.g. Register(v1, "awards") serves /api/v1/awards. The auth
// middleware guards writes; reads are public.
func (h *ContentHandler) Register(rg *gin.RouterGroup, path string, authRequired gin.HandlerFunc) {
	g := rg.Group("/" + path)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	if authRequired != nil {
		g.POST("", authRequired, h.Create)
		g.PATCH("/:id", authRequired, h.Update)
		g.DELETE("/:id", authRequired, h.Delete)
	} else {
		g.POST("", h.Create)
		g.PATCH("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	}
}

func (h *ContentHandler) Create(c *gin.Context) {
	var fields content.Fields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	doc, err := h.svc.Create(c.Request.Context(), fields)
	if err != nil {
		writeContentError(c, err)
		return
	}
	c.JSON(http.StatusCreated, renderDocument(doc))
}

func (h *ContentHandler) Get(c *gin.Context) {
	doc, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeContentError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderDocument(doc))
}

func (h *ContentHandler) Update(c *gin.Context) {
	var fields content.Fields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	doc, err := h.svc.Update(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		writeContentError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderDocument(doc))
}

func (h *ContentHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	// snapshot the document first when a cleanup hook needs its fields
	var prior *content.Document
	if h.cleanup != nil {
		if doc, err := h.svc.GetByID(c.Request.Context(), id); err == nil {
			prior = doc
		}
	}

	deleted, err := h.svc.Delete(c.Request.Context(), id)
	if err != nil {
		writeContentError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if h.cleanup != nil && prior != nil {
		h.cleanup(c.Request.Context(), prior)
	}
	c.Status(http.StatusNoContent)
}

func (h *ContentHandler) List(c *gin.Context) {
	params, err := listParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		writeContentError(c, err)
		return
	}
	items := make([]gin.H, 0, len(page.Items))
	for _, d := range page.Items {
		items = append(items, renderDocument(d))
	}
	c.JSON(http.StatusOK, gin.H{
		"items":    items,
		"total":    page.Total,
		"page":     params.Page,
		"pageSize": params.PageSize,
	})
}

// listParams maps query-string values onto the service's listing
// parameters. Unknown filter params pass through; the query builder
// ignores the ones the kind's schema doesn't declare.
func listParams(c *gin.Context) (query.Params, error) {
	p := query.Params{Page: 1, PageSize: 20}
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, errors.New("page must be an integer")
		}
		p.Page = n
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, errors.New("limit must be an integer")
		}
		p.PageSize = n
	}
	p.Query = c.Query("q")

	p.Filters = map[string][]string{}
	for key, values := range c.Request.URL.Query() {
		switch key {
		case "page", "limit", "q":
			continue
		}
		p.Filters[key] = values
	}
	return p, nil
}

func renderDocument(d *content.Document) gin.H {
	out := gin.H{}
	for k, v := range d.Fields {
		// the envelope owns these keys
		switch k {
		case "id", "createdAt", "updatedAt":
			continue
		}
		out[k] = v
	}
	out["id"] = d.ID
	out["createdAt"] = d.CreatedAt
	out["updatedAt"] = d.UpdatedAt
	return out
}

// writeContentError maps service errors onto HTTP statuses. Index
// propagation failures never reach here; only hard backend errors do.
func writeContentError(c *gin.Context, err error) {
	var verr *content.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.FieldErrors})
	case errors.Is(err, content.ErrInvalidPagination):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, content.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, content.ErrBackendUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backend unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
