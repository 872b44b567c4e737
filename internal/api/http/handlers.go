package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/visualjsx/studio/backend/internal/compiler"
	"github.com/visualjsx/studio/backend/internal/domain/component"
	"github.com/visualjsx/studio/backend/internal/infrastructure/logging"
	"github.com/visualjsx/studio/backend/internal/surface"
)

// Handlers bundles the HTTP endpoints over the component store.
type Handlers struct {
	store    *component.Store
	compiler *compiler.Compiler
	logger   *logging.Logger

	surfaceWidth int
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(store *component.Store, c *compiler.Compiler, logger *logging.Logger, surfaceWidth int) *Handlers {
	return &Handlers{
		store:        store,
		compiler:     c,
		logger:       logger.Named("http"),
		surfaceWidth: surfaceWidth,
	}
}

// Root identifies the service.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "visualjsx-studio",
		"status":  "running",
	})
}

// Health reports liveness and store size.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"components": h.store.Count(),
	})
}

// ListComponents returns all records, most recently updated first.
func (h *Handlers) ListComponents(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.List(c.Request.Context()))
}

// CreateComponent stores a new component from {code}.
func (h *Handlers) CreateComponent(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	rec, err := h.store.Create(c.Request.Context(), req.Code)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// GetComponent returns one record by id.
func (h *Handlers) GetComponent(c *gin.Context) {
	rec, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// UpdateComponent replaces a record's code.
func (h *Handlers) UpdateComponent(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	rec, err := h.store.Update(c.Request.Context(), c.Param("id"), req.Code)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// PreviewComponent compiles and renders a stored component, returning
// sanitized HTML. Each preview uses a throwaway surface.
func (h *Handlers) PreviewComponent(c *gin.Context) {
	rec, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	srf := surface.New(surface.Config{Width: h.surfaceWidth}, h.compiler, h.logger)
	if err := srf.Render(rec.Code); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	out, err := srf.ExportHTML()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
}

// respondError maps domain errors to status codes.
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, component.ErrBlankCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, component.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
