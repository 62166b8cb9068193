package contenttype

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/fieldkit/internal/modules/schema/builder"
	"github.com/mx-space/fieldkit/internal/pkg/pagination"
	"github.com/mx-space/fieldkit/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/content-types")
	g.GET("", h.list)
	g.GET("/:query", h.getByQuery)
	g.POST("", h.create)
	g.PUT("/:query", h.update)
	g.PATCH("/:query", h.update)
	g.DELETE("/:query", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	items, pag, err := h.svc.List(c.Request.Context(), pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, items, pag)
}

func (h *Handler) getByQuery(c *gin.Context) {
	ct, err := h.svc.GetByQuery(c.Request.Context(), c.Param("query"))
	if err != nil {
		WriteError(c, err)
		return
	}
	response.OK(c, ct)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateContentTypeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ct, err := h.svc.Create(c.Request.Context(), &dto)
	if err != nil {
		WriteError(c, err)
		return
	}
	response.Created(c, ct)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateContentTypeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ct, err := h.svc.Update(c.Request.Context(), c.Param("query"), &dto)
	if err != nil {
		WriteError(c, err)
		return
	}
	response.OK(c, ct)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("query")); err != nil {
		WriteError(c, err)
		return
	}
	response.NoContent(c)
}

// WriteError maps service errors onto response envelopes. The builder
// session handler uses it for submissions.
func WriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrContentTypeNotFound):
		response.NotFoundMsg(c, err.Error())
	case errors.Is(err, ErrDuplicateIdentifier):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrInvalidField), errors.Is(err, ErrNameRequired), errors.Is(err, builder.ErrUnknownKind):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
