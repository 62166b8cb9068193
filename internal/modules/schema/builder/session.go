package builder

// OriginType says where a drag gesture began.
type OriginType string

const (
	OriginNone    OriginType = "none"
	OriginPalette OriginType = "palette"
	OriginField   OriginType = "field"
)

// Origin is the start point of a drag.
type Origin struct {
	Type    OriginType `json:"type"`
	Kind    Kind       `json:"kind,omitempty"`
	FieldID string     `json:"fieldId,omitempty"`
}

// FromPalette is the origin of a drag that starts on a palette blueprint.
func FromPalette(kind Kind) Origin { return Origin{Type: OriginPalette, Kind: kind} }

// FromField is the origin of a drag that starts on an existing field row.
func FromField(id string) Origin { return Origin{Type: OriginField, FieldID: id} }

// HoverType names the kind of drop zone under the pointer.
type HoverType string

const (
	HoverNone        HoverType = "none"
	HoverEmptyZone   HoverType = "empty-zone"
	HoverPlaceholder HoverType = "placeholder"
	HoverField       HoverType = "field"
)

// HoverTarget is the drop zone currently under the pointer.
type HoverTarget struct {
	Type    HoverType `json:"type"`
	Index   int       `json:"index,omitempty"`
	FieldID string    `json:"fieldId,omitempty"`
}

// NoTarget is the hover of a drag over nothing droppable.
func NoTarget() HoverTarget { return HoverTarget{Type: HoverNone} }

// EmptyZone is the hover over the empty-list drop zone.
func EmptyZone() HoverTarget { return HoverTarget{Type: HoverEmptyZone} }

// PlaceholderAt is the hover over the insertion slot before index.
func PlaceholderAt(index int) HoverTarget {
	return HoverTarget{Type: HoverPlaceholder, Index: index}
}

// OverField is the hover over the row of field id.
func OverField(id string) HoverTarget { return HoverTarget{Type: HoverField, FieldID: id} }

// IsNone reports whether the target resolves to a cancelled drop.
func (h HoverTarget) IsNone() bool { return h.Type == "" || h.Type == HoverNone }

// DragSession is the state of the one gesture in flight.
type DragSession struct {
	Origin Origin      `json:"origin"`
	Hover  HoverTarget `json:"hover"`
}

// State is the controller's state machine position.
type State string

const (
	StateIdle                  State = "idle"
	StateDraggingFromPalette   State = "dragging-from-palette"
	StateDraggingExistingField State = "dragging-existing-field"
)
