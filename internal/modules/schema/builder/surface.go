package builder

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
)

// Zone prefixes used by surfaces to name drag handles and drop zones.
const (
	zonePalette     = "palette:"
	zoneField       = "field:"
	zonePlaceholder = "placeholder:"
	zoneEmpty       = "empty-zone"
)

// PaletteZone names the drag handle of a palette entry.
func PaletteZone(kind Kind) string { return zonePalette + string(kind) }

// FieldZone names the row of a field.
func FieldZone(id string) string { return zoneField + id }

// PlaceholderZone names the insertion slot before index.
func PlaceholderZone(index int) string { return zonePlaceholder + strconv.Itoa(index) }

// EmptyZoneName names the drop zone shown when the list is empty.
const EmptyZoneName = zoneEmpty

// ParseZone maps a zone name to a drop target. Palette handles and unknown
// names are not droppable and map to NoTarget.
func ParseZone(zone string) HoverTarget {
	zone = strings.TrimSpace(zone)
	switch {
	case zone == zoneEmpty:
		return EmptyZone()
	case strings.HasPrefix(zone, zoneField):
		if id := zone[len(zoneField):]; id != "" {
			return OverField(id)
		}
	case strings.HasPrefix(zone, zonePlaceholder):
		if i, err := strconv.Atoi(zone[len(zonePlaceholder):]); err == nil && i >= 0 {
			return PlaceholderAt(i)
		}
	}
	return NoTarget()
}

// PointerPhase is the stage of a raw pointer gesture.
type PointerPhase string

const (
	PointerDown  PointerPhase = "down"
	PointerMove  PointerPhase = "move"
	PointerUp    PointerPhase = "up"
	PointerLeave PointerPhase = "leave"
)

// PointerInput is a raw pointer event over a named zone.
type PointerInput struct {
	Phase PointerPhase `json:"phase"`
	Zone  string       `json:"zone"`
}

// Key is a keyboard input understood by the surfaces.
type Key string

const (
	KeySpace     Key = "space"
	KeyEnter     Key = "enter"
	KeyArrowUp   Key = "arrow-up"
	KeyArrowDown Key = "arrow-down"
	KeyEscape    Key = "escape"
)

// KeyInput is a key press while Zone has focus.
type KeyInput struct {
	Key  Key    `json:"key"`
	Zone string `json:"zone"`
}

// surface holds the gesture handling shared by both views: once a drag is
// active it does not matter which view reports the pointer or key.
type surface struct {
	ctrl *Controller
}

func (s surface) track(in PointerInput) Outcome {
	switch in.Phase {
	case PointerMove:
		return s.ctrl.Hover(ParseZone(in.Zone))
	case PointerUp:
		if in.Zone != "" {
			s.ctrl.Hover(ParseZone(in.Zone))
		}
		return s.ctrl.Drop()
	case PointerLeave:
		return s.ctrl.Cancel()
	default:
		return s.ctrl.ignored()
	}
}

func (s surface) steer(in KeyInput) Outcome {
	switch in.Key {
	case KeySpace, KeyEnter:
		return s.ctrl.Drop()
	case KeyEscape:
		return s.ctrl.Cancel()
	case KeyArrowUp:
		return s.step(-1)
	case KeyArrowDown:
		return s.step(1)
	default:
		return s.ctrl.ignored()
	}
}

// step moves the hover one stop along the keyboard drop sequence.
func (s surface) step(delta int) Outcome {
	session, ok := s.ctrl.Session()
	if !ok {
		return s.ctrl.ignored()
	}
	stops := s.stops(session.Origin)
	if len(stops) == 0 {
		return s.ctrl.Hover(NoTarget())
	}

	pos := -1
	for i, t := range stops {
		if t == session.Hover {
			pos = i
			break
		}
	}
	switch {
	case pos < 0 && delta > 0:
		pos = 0
	case pos < 0:
		pos = len(stops) - 1
	default:
		pos = clamp(pos+delta, 0, len(stops)-1)
	}
	return s.ctrl.Hover(stops[pos])
}

func (s surface) stops(origin Origin) []HoverTarget {
	fields := s.ctrl.Fields()
	if origin.Type == OriginPalette && fields.Len() == 0 {
		return []HoverTarget{EmptyZone()}
	}
	stops := make([]HoverTarget, 0, fields.Len()+1)
	if origin.Type == OriginPalette {
		stops = append(stops, PlaceholderAt(0))
	}
	for _, id := range fields.IDs() {
		stops = append(stops, OverField(id))
	}
	return stops
}

// PaletteEntry is one rendered palette item.
type PaletteEntry struct {
	Blueprint
	Zone            string `json:"zone"`
	DescriptionHTML string `json:"descriptionHtml"`
	Active          bool   `json:"active"`
}

// PaletteSurface originates drags of new fields from the catalog.
type PaletteSurface struct {
	surface
	rendered map[Kind]string
}

// NewPaletteSurface renders the catalog descriptions once; they never change.
func NewPaletteSurface(ctrl *Controller) *PaletteSurface {
	p := &PaletteSurface{surface: surface{ctrl: ctrl}, rendered: make(map[Kind]string)}
	for _, bp := range ctrl.Catalog().List() {
		p.rendered[bp.Kind] = renderMarkdown(bp.Description)
	}
	return p
}

// Entries returns the palette in catalog order.
func (p *PaletteSurface) Entries() []PaletteEntry {
	session, dragging := p.ctrl.Session()
	blueprints := p.ctrl.Catalog().List()
	out := make([]PaletteEntry, 0, len(blueprints))
	for _, bp := range blueprints {
		out = append(out, PaletteEntry{
			Blueprint:       bp,
			Zone:            PaletteZone(bp.Kind),
			DescriptionHTML: p.rendered[bp.Kind],
			Active:          dragging && session.Origin.Type == OriginPalette && session.Origin.Kind == bp.Kind,
		})
	}
	return out
}

// Pointer handles a pointer event reported by the palette.
func (p *PaletteSurface) Pointer(in PointerInput) Outcome {
	if in.Phase == PointerDown {
		kind, ok := paletteKind(in.Zone)
		if !ok {
			return p.ctrl.ignored()
		}
		return p.ctrl.Start(FromPalette(kind))
	}
	return p.track(in)
}

// Key handles a key press on the palette. Picking up an entry hovers the end
// of the list so an immediate drop appends.
func (p *PaletteSurface) Key(in KeyInput) Outcome {
	if _, dragging := p.ctrl.Session(); dragging {
		return p.steer(in)
	}
	if in.Key != KeySpace && in.Key != KeyEnter {
		return p.ctrl.ignored()
	}
	kind, ok := paletteKind(in.Zone)
	if !ok {
		return p.ctrl.ignored()
	}
	out := p.ctrl.Start(FromPalette(kind))
	if !out.Accepted {
		return out
	}
	fields := p.ctrl.Fields()
	if last, ok := fields.At(fields.Len() - 1); ok {
		return p.ctrl.Hover(OverField(last.ID))
	}
	return p.ctrl.Hover(EmptyZone())
}

func paletteKind(zone string) (Kind, bool) {
	zone = strings.TrimSpace(zone)
	if !strings.HasPrefix(zone, zonePalette) {
		return "", false
	}
	kind, err := ParseKind(zone[len(zonePalette):])
	if err != nil {
		return "", false
	}
	return kind, true
}

// Row is one rendered field row.
type Row struct {
	Field    FieldDefinition `json:"field"`
	Index    int             `json:"index"`
	Zone     string          `json:"zone"`
	Dragging bool            `json:"dragging"`
	Hovered  bool            `json:"hovered"`
}

// ListView is the rendered state of the sortable list.
type ListView struct {
	Rows          []Row `json:"rows"`
	ShowEmptyZone bool  `json:"showEmptyZone"`
	// Placeholder is the insertion slot under the pointer, if any.
	Placeholder *int `json:"placeholder,omitempty"`
}

// SortableListSurface shows the collection and originates reorder drags.
type SortableListSurface struct {
	surface
}

// NewSortableListSurface returns the list view over ctrl's collection.
func NewSortableListSurface(ctrl *Controller) *SortableListSurface {
	return &SortableListSurface{surface: surface{ctrl: ctrl}}
}

// View renders the rows with drag decorations.
func (l *SortableListSurface) View() ListView {
	session, dragging := l.ctrl.Session()
	fields := l.ctrl.Fields().Fields()
	view := ListView{
		Rows:          make([]Row, 0, len(fields)),
		ShowEmptyZone: len(fields) == 0,
	}
	for i, f := range fields {
		view.Rows = append(view.Rows, Row{
			Field:    f,
			Index:    i,
			Zone:     FieldZone(f.ID),
			Dragging: dragging && session.Origin.FieldID == f.ID,
			Hovered:  dragging && session.Hover.Type == HoverField && session.Hover.FieldID == f.ID,
		})
	}
	if dragging && session.Hover.Type == HoverPlaceholder {
		i := session.Hover.Index
		view.Placeholder = &i
	}
	return view
}

// Pointer handles a pointer event reported by the list.
func (l *SortableListSurface) Pointer(in PointerInput) Outcome {
	if in.Phase == PointerDown {
		target := ParseZone(in.Zone)
		if target.Type != HoverField {
			return l.ctrl.ignored()
		}
		return l.ctrl.Start(FromField(target.FieldID))
	}
	return l.track(in)
}

// Key handles a key press on a row. Picking up a row hovers the row itself so
// an immediate drop is a no-op.
func (l *SortableListSurface) Key(in KeyInput) Outcome {
	if _, dragging := l.ctrl.Session(); dragging {
		return l.steer(in)
	}
	if in.Key != KeySpace && in.Key != KeyEnter {
		return l.ctrl.ignored()
	}
	target := ParseZone(in.Zone)
	if target.Type != HoverField {
		return l.ctrl.ignored()
	}
	out := l.ctrl.Start(FromField(target.FieldID))
	if !out.Accepted {
		return out
	}
	return l.ctrl.Hover(target)
}

func renderMarkdown(src string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return src
	}
	return buf.String()
}
