package builder

import "go.uber.org/zap"

// DefaultPlaceholderLabel is the label of a field created by a drop.
const DefaultPlaceholderLabel = "New Field"

// EventType is one of the input events the controller consumes.
type EventType string

const (
	EventGestureStart EventType = "gesture-start"
	EventHover        EventType = "hover"
	EventDrop         EventType = "drop"
	EventCancel       EventType = "cancel"
)

// Event is one step of the gesture stream.
type Event struct {
	Type   EventType   `json:"type"`
	Origin Origin      `json:"origin,omitempty"`
	Target HoverTarget `json:"target,omitempty"`
}

// Outcome reports what handling an event did.
type Outcome struct {
	// Accepted is false when the event did not apply in the current state.
	Accepted bool     `json:"accepted"`
	State    State    `json:"state"`
	Mutation Mutation `json:"mutation"`
	// Field is the created or moved field when Mutation changed the list.
	Field *FieldDefinition `json:"field,omitempty"`
}

// ChangeFunc receives the full ordered list after every effective change.
type ChangeFunc func(fields []FieldDefinition)

// Option configures a Controller.
type Option func(*Controller)

// WithPlaceholderLabel sets the label given to dropped fields.
func WithPlaceholderLabel(label string) Option {
	return func(c *Controller) {
		if label != "" {
			c.placeholder = label
		}
	}
}

// WithLogger attaches a logger for ignored and applied events.
func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// OnChange registers the owner's change callback.
func OnChange(fn ChangeFunc) Option {
	return func(c *Controller) { c.onChange = fn }
}

// Controller drives one drag gesture at a time over a Collection.
//
// All calls must come from a single goroutine (or be serialized by the owner).
type Controller struct {
	catalog     *Catalog
	fields      *Collection
	session     *DragSession
	placeholder string
	onChange    ChangeFunc
	log         *zap.Logger
}

// NewController returns an idle controller over fields.
func NewController(catalog *Catalog, fields *Collection, opts ...Option) *Controller {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if fields == nil {
		fields = NewCollection()
	}
	c := &Controller{
		catalog:     catalog,
		fields:      fields,
		placeholder: DefaultPlaceholderLabel,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Catalog returns the blueprint registry.
func (c *Controller) Catalog() *Catalog { return c.catalog }

// Fields returns the collection being edited.
func (c *Controller) Fields() *Collection { return c.fields }

// State returns the state machine position.
func (c *Controller) State() State {
	if c.session == nil {
		return StateIdle
	}
	if c.session.Origin.Type == OriginPalette {
		return StateDraggingFromPalette
	}
	return StateDraggingExistingField
}

// Session returns a copy of the active drag, if any.
func (c *Controller) Session() (DragSession, bool) {
	if c.session == nil {
		return DragSession{}, false
	}
	return *c.session, true
}

// Handle consumes one event.
func (c *Controller) Handle(ev Event) Outcome {
	switch ev.Type {
	case EventGestureStart:
		return c.Start(ev.Origin)
	case EventHover:
		return c.Hover(ev.Target)
	case EventDrop:
		return c.Drop()
	case EventCancel:
		return c.Cancel()
	default:
		c.log.Debug("builder: unknown event ignored", zap.String("type", string(ev.Type)))
		return c.ignored()
	}
}

// Start begins a gesture. It is ignored while another gesture is active, for
// unknown blueprint kinds and for field ids not in the collection.
func (c *Controller) Start(origin Origin) Outcome {
	if c.session != nil {
		c.log.Debug("builder: gesture start while dragging ignored")
		return c.ignored()
	}
	switch origin.Type {
	case OriginPalette:
		if !c.catalog.Has(origin.Kind) {
			c.log.Warn("builder: palette drag for unknown kind ignored", zap.String("kind", string(origin.Kind)))
			return c.ignored()
		}
		origin.FieldID = ""
	case OriginField:
		if c.fields.IndexOf(origin.FieldID) < 0 {
			c.log.Debug("builder: drag of unknown field ignored", zap.String("field", origin.FieldID))
			return c.ignored()
		}
		origin.Kind = ""
	default:
		return c.ignored()
	}

	c.session = &DragSession{Origin: origin, Hover: NoTarget()}
	return c.accepted(noMutation, nil)
}

// Hover records the zone under the pointer.
func (c *Controller) Hover(target HoverTarget) Outcome {
	if c.session == nil {
		return c.ignored()
	}
	if target.Type == "" {
		target.Type = HoverNone
	}
	c.session.Hover = target
	return c.accepted(noMutation, nil)
}

// Drop resolves and applies the gesture, then returns to Idle. A drop over
// nothing is a cancellation.
func (c *Controller) Drop() Outcome {
	if c.session == nil {
		return c.ignored()
	}
	s := *c.session
	c.session = nil

	m := Resolve(s.Origin, s.Hover, c.fields)
	f, changed := m.Apply(c.fields, c.placeholder)
	if !changed {
		return c.accepted(noMutation, nil)
	}

	c.log.Debug("builder: drop applied",
		zap.String("mutation", string(m.Type)),
		zap.String("field", f.ID),
		zap.Int("len", c.fields.Len()),
	)
	c.notify()
	return c.accepted(m, &f)
}

// Cancel abandons the gesture without touching the collection.
func (c *Controller) Cancel() Outcome {
	if c.session == nil {
		return c.ignored()
	}
	c.session = nil
	return c.accepted(noMutation, nil)
}

// Rename sets a field's label; the identifier follows per the collection's
// policy.
func (c *Controller) Rename(id, label string) bool {
	return c.edit(c.fields.SetLabel(id, label))
}

// SetIdentifier stores an operator-typed identifier.
func (c *Controller) SetIdentifier(id, identifier string) bool {
	return c.edit(c.fields.SetIdentifier(id, identifier))
}

// ChangeKind switches a field to another catalog kind.
func (c *Controller) ChangeKind(id string, kind Kind) bool {
	if !c.catalog.Has(kind) {
		return false
	}
	return c.edit(c.fields.SetKind(id, kind))
}

// SetRequired sets a field's required flag.
func (c *Controller) SetRequired(id string, required bool) bool {
	return c.edit(c.fields.SetRequired(id, required))
}

// Remove deletes the field with the given id. A field being dragged cannot be
// removed until its gesture ends.
func (c *Controller) Remove(id string) bool {
	if c.session != nil && c.session.Origin.FieldID == id {
		return false
	}
	return c.edit(c.fields.RemoveAt(c.fields.IndexOf(id)))
}

func (c *Controller) edit(changed bool) bool {
	if changed {
		c.notify()
	}
	return changed
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange(c.fields.Fields())
	}
}

func (c *Controller) accepted(m Mutation, f *FieldDefinition) Outcome {
	return Outcome{Accepted: true, State: c.State(), Mutation: m, Field: f}
}

func (c *Controller) ignored() Outcome {
	return Outcome{Accepted: false, State: c.State(), Mutation: noMutation}
}
