package editor

import (
	"context"
	"errors"
	"time"

	"github.com/mx-space/fieldkit/internal/models"
	"github.com/mx-space/fieldkit/internal/modules/schema/builder"
	"github.com/mx-space/fieldkit/internal/modules/schema/contenttype"
)

var (
	ErrSessionNotFound = errors.New("builder session not found")
	ErrFieldNotFound   = errors.New("field not found")
	ErrFieldBusy       = errors.New("field is being dragged")
	ErrInvalidInput    = errors.New("invalid input")
)

// Events pushed to a session's room.
const (
	EventFieldsChanged    = "BUILDER_FIELDS_CHANGED"
	EventSessionUpdated   = "BUILDER_SESSION_UPDATED"
	EventSessionSubmitted = "BUILDER_SESSION_SUBMITTED"
	EventSessionClosed    = "BUILDER_SESSION_CLOSED"
)

// Surfaces that accept pointer and key input.
const (
	SurfacePalette = "palette"
	SurfaceList    = "list"
)

// Notifier pushes session events to connected clients.
type Notifier interface {
	BroadcastSession(sessionID, event string, payload interface{})
}

// ContentTypes is the persistence API a session submits to.
type ContentTypes interface {
	GetByID(ctx context.Context, id string) (*models.ContentTypeModel, error)
	Create(ctx context.Context, dto *contenttype.CreateContentTypeDTO) (*models.ContentTypeModel, error)
	Update(ctx context.Context, id string, dto *contenttype.UpdateContentTypeDTO) (*models.ContentTypeModel, error)
}

// Snapshot is the persisted state of a session. Drag state is never part of
// it; a restored session starts idle.
type Snapshot struct {
	ID            string                    `json:"id"`
	ContentTypeID string                    `json:"contentTypeId,omitempty"`
	Name          string                    `json:"name"`
	Description   string                    `json:"description"`
	Fields        []builder.FieldDefinition `json:"fields"`
	UpdatedAt     time.Time                 `json:"updatedAt"`
}

type OpenRequest struct {
	ContentTypeID string `json:"contentTypeId"`
	Name          string `json:"name"`
}

// View is what clients render for a session.
type View struct {
	ID            string                    `json:"id"`
	ContentTypeID string                    `json:"contentTypeId,omitempty"`
	Name          string                    `json:"name"`
	Description   string                    `json:"description"`
	State         builder.State             `json:"state"`
	Drag          *builder.DragSession      `json:"drag,omitempty"`
	Fields        []builder.FieldDefinition `json:"fields"`
	Palette       []builder.PaletteEntry    `json:"palette"`
	List          builder.ListView          `json:"list"`
}

// Input is one gesture step. Exactly one of Pointer, Key or Event is set;
// Pointer and Key also name the surface that reported them.
type Input struct {
	Surface string                `json:"surface"`
	Pointer *builder.PointerInput `json:"pointer,omitempty"`
	Key     *builder.KeyInput     `json:"key,omitempty"`
	Event   *builder.Event        `json:"event,omitempty"`
}

type InputResult struct {
	Outcome builder.Outcome `json:"outcome"`
	View    View            `json:"view"`
}

// FieldPatch edits one field's properties. Nil members are left alone.
type FieldPatch struct {
	Label         *string `json:"label"`
	APIIdentifier *string `json:"apiIdentifier"`
	Kind          *string `json:"kind"`
	IsRequired    *bool   `json:"isRequired"`
}

type SessionPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type SubmitResult struct {
	ContentType *models.ContentTypeModel `json:"contentType"`
	View        View                     `json:"view"`
}

type fieldsChangedPayload struct {
	SessionID string                    `json:"sessionId"`
	Fields    []builder.FieldDefinition `json:"fields"`
}

type sessionPayload struct {
	SessionID     string `json:"sessionId"`
	ContentTypeID string `json:"contentTypeId,omitempty"`
	Name          string `json:"name,omitempty"`
	Description   string `json:"description,omitempty"`
}
