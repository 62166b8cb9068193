package builder

// MutationType names the collection operation a drop resolves to.
type MutationType string

const (
	MutationNone   MutationType = "none"
	MutationAppend MutationType = "append"
	MutationInsert MutationType = "insert"
	MutationMove   MutationType = "move"
)

// Mutation is the concrete change computed for a drop.
type Mutation struct {
	Type MutationType `json:"type"`
	// Kind is the blueprint for append and insert.
	Kind Kind `json:"kind,omitempty"`
	// Index is the insert position.
	Index int `json:"index,omitempty"`
	From  int `json:"from,omitempty"`
	To    int `json:"to,omitempty"`
}

var noMutation = Mutation{Type: MutationNone}

// Resolve computes the mutation for a drop of origin onto hover against the
// current collection. It never mutates fields.
//
// A palette drop on a field inserts after that field, never before it.
func Resolve(origin Origin, hover HoverTarget, fields *Collection) Mutation {
	if hover.IsNone() {
		return noMutation
	}

	switch origin.Type {
	case OriginPalette:
		return resolvePalette(origin.Kind, hover, fields)
	case OriginField:
		return resolveField(origin.FieldID, hover, fields)
	default:
		return noMutation
	}
}

func resolvePalette(kind Kind, hover HoverTarget, fields *Collection) Mutation {
	appendNew := Mutation{Type: MutationAppend, Kind: kind, Index: fields.Len()}
	if hover.Type == HoverEmptyZone || fields.Len() == 0 {
		return appendNew
	}

	switch hover.Type {
	case HoverPlaceholder:
		return Mutation{Type: MutationInsert, Kind: kind, Index: clamp(hover.Index, 0, fields.Len())}
	case HoverField:
		i := fields.IndexOf(hover.FieldID)
		if i < 0 {
			return appendNew
		}
		return Mutation{Type: MutationInsert, Kind: kind, Index: i + 1}
	default:
		return noMutation
	}
}

func resolveField(id string, hover HoverTarget, fields *Collection) Mutation {
	from := fields.IndexOf(id)
	if from < 0 {
		return noMutation
	}

	to := -1
	switch hover.Type {
	case HoverField:
		if hover.FieldID == id {
			return noMutation
		}
		to = fields.IndexOf(hover.FieldID)
	case HoverPlaceholder:
		to = clamp(hover.Index, 0, fields.Len()-1)
	}
	if to < 0 || to == from {
		return noMutation
	}
	return Mutation{Type: MutationMove, From: from, To: to}
}

// Apply performs m on fields. New fields take placeholder as their label and
// an identifier derived from it. Apply returns the affected field and whether
// anything changed.
func (m Mutation) Apply(fields *Collection, placeholder string) (FieldDefinition, bool) {
	switch m.Type {
	case MutationAppend:
		f := NewField(m.Kind, placeholder)
		fields.Append(f)
		return f, true
	case MutationInsert:
		f := NewField(m.Kind, placeholder)
		fields.InsertAt(m.Index, f)
		return f, true
	case MutationMove:
		f, ok := fields.At(m.From)
		if !ok || !fields.Move(m.From, m.To) {
			return FieldDefinition{}, false
		}
		return f, true
	default:
		return FieldDefinition{}, false
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
