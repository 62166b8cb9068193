package editor

import (
	"sync"
	"time"

	"github.com/mx-space/fieldkit/internal/models"
	"github.com/mx-space/fieldkit/internal/modules/schema/builder"
	"go.uber.org/zap"
)

// session is the form hosting one controller. mu serializes every input and
// edit, so the controller only ever sees one event at a time.
type session struct {
	mu sync.Mutex

	id            string
	contentTypeID string
	name          string
	description   string

	ctrl    *builder.Controller
	palette *builder.PaletteSurface
	list    *builder.SortableListSurface

	lastActive time.Time
	// dirty is set by the controller's change callback and cleared once the
	// change has been persisted and broadcast.
	dirty  bool
	closed bool
}

func newSession(snap Snapshot, catalog *builder.Catalog, opts Options, log *zap.Logger) *session {
	fields := builder.NewCollection(snap.Fields...)
	fields.SetPolicy(opts.Policy)

	s := &session{
		id:            snap.ID,
		contentTypeID: snap.ContentTypeID,
		name:          snap.Name,
		description:   snap.Description,
	}
	s.ctrl = builder.NewController(catalog, fields,
		builder.WithPlaceholderLabel(opts.PlaceholderLabel),
		builder.WithLogger(log.With(zap.String("session", snap.ID))),
		builder.OnChange(func([]builder.FieldDefinition) { s.dirty = true }),
	)
	s.palette = builder.NewPaletteSurface(s.ctrl)
	s.list = builder.NewSortableListSurface(s.ctrl)
	return s
}

func (s *session) snapshot(now time.Time) Snapshot {
	return Snapshot{
		ID:            s.id,
		ContentTypeID: s.contentTypeID,
		Name:          s.name,
		Description:   s.description,
		Fields:        s.ctrl.Fields().Fields(),
		UpdatedAt:     now,
	}
}

func (s *session) view() View {
	v := View{
		ID:            s.id,
		ContentTypeID: s.contentTypeID,
		Name:          s.name,
		Description:   s.description,
		State:         s.ctrl.State(),
		Fields:        s.ctrl.Fields().Fields(),
		Palette:       s.palette.Entries(),
		List:          s.list.View(),
	}
	if drag, ok := s.ctrl.Session(); ok {
		v.Drag = &drag
	}
	return v
}

func (s *session) hasField(id string) bool {
	return s.ctrl.Fields().IndexOf(id) >= 0
}

func (s *session) dragging(fieldID string) bool {
	drag, ok := s.ctrl.Session()
	return ok && drag.Origin.Type == builder.OriginField && drag.Origin.FieldID == fieldID
}

// fieldsFromModels seeds a session from stored records. An identifier that
// differs from the one its label derives was typed by hand.
func fieldsFromModels(records []models.ContentFieldModel) []builder.FieldDefinition {
	out := make([]builder.FieldDefinition, 0, len(records))
	for _, r := range records {
		out = append(out, builder.FieldDefinition{
			ID:               r.ID,
			Label:            r.Label,
			APIIdentifier:    r.APIIdentifier,
			Kind:             builder.Kind(r.Kind),
			IsRequired:       r.IsRequired,
			ManualIdentifier: r.APIIdentifier != builder.Derive(r.Label),
		})
	}
	return out
}
