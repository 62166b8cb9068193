package editor

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/fieldkit/internal/modules/schema/builder"
	"github.com/mx-space/fieldkit/internal/modules/schema/contenttype"
	"github.com/mx-space/fieldkit/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/builder")
	g.GET("/catalog", h.catalog)

	s := g.Group("/sessions")
	s.POST("", h.open)
	s.GET("/:id", h.get)
	s.PATCH("/:id", h.update)
	s.DELETE("/:id", h.close)
	s.POST("/:id/input", h.input)
	s.POST("/:id/submit", h.submit)
	s.PATCH("/:id/fields/:fieldId", h.updateField)
	s.POST("/:id/fields/:fieldId/toggle-required", h.toggleRequired)
	s.DELETE("/:id/fields/:fieldId", h.removeField)
}

func (h *Handler) catalog(c *gin.Context) {
	response.OK(c, h.svc.Catalog().List())
}

func (h *Handler) open(c *gin.Context) {
	var req OpenRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}
	v, err := h.svc.Open(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, v)
}

func (h *Handler) get(c *gin.Context) {
	v, err := h.svc.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, v)
}

func (h *Handler) update(c *gin.Context) {
	var patch SessionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	v, err := h.svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, v)
}

func (h *Handler) close(c *gin.Context) {
	if err := h.svc.Close(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) input(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.svc.Input(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, res)
}

func (h *Handler) submit(c *gin.Context) {
	res, err := h.svc.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, res)
}

func (h *Handler) updateField(c *gin.Context) {
	var patch FieldPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	v, err := h.svc.UpdateField(c.Request.Context(), c.Param("id"), c.Param("fieldId"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, v)
}

func (h *Handler) toggleRequired(c *gin.Context) {
	v, err := h.svc.ToggleRequired(c.Request.Context(), c.Param("id"), c.Param("fieldId"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, v)
}

func (h *Handler) removeField(c *gin.Context) {
	v, err := h.svc.Remove(c.Request.Context(), c.Param("id"), c.Param("fieldId"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, v)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrFieldNotFound):
		response.NotFoundMsg(c, err.Error())
	case errors.Is(err, ErrFieldBusy):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, builder.ErrUnknownKind):
		response.BadRequest(c, err.Error())
	default:
		contenttype.WriteError(c, err)
	}
}
