package builder

import "github.com/google/uuid"

// FieldDefinition is one entry of the schema being edited.
type FieldDefinition struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	APIIdentifier string `json:"apiIdentifier"`
	Kind          Kind   `json:"kind"`
	IsRequired    bool   `json:"isRequired"`
	// ManualIdentifier is set when APIIdentifier was typed by the operator
	// rather than derived from Label.
	ManualIdentifier bool `json:"manualIdentifier,omitempty"`
}

// NewField builds a field of the given kind with a fresh id and an
// identifier derived from label.
func NewField(kind Kind, label string) FieldDefinition {
	return FieldDefinition{
		ID:            newFieldID(),
		Label:         label,
		APIIdentifier: Derive(label),
		Kind:          kind,
	}
}

func newFieldID() string { return uuid.New().String() }

// Collection is the ordered field list. Order is the schema's field order.
//
// A Collection is not safe for concurrent use; its owner serializes access.
type Collection struct {
	fields []FieldDefinition
	policy IdentifierPolicy
}

// NewCollection seeds a collection, in order, from existing records. Records
// with an empty or repeated id get a fresh one so ids stay unique.
func NewCollection(fields ...FieldDefinition) *Collection {
	c := &Collection{fields: make([]FieldDefinition, 0, len(fields))}
	for _, f := range fields {
		c.Append(f)
	}
	return c
}

// SetPolicy selects how label edits treat manual identifiers.
func (c *Collection) SetPolicy(p IdentifierPolicy) { c.policy = p }

// Policy returns the active identifier policy.
func (c *Collection) Policy() IdentifierPolicy { return c.policy }

// Len returns the number of fields.
func (c *Collection) Len() int { return len(c.fields) }

// At returns the field at index i.
func (c *Collection) At(i int) (FieldDefinition, bool) {
	if i < 0 || i >= len(c.fields) {
		return FieldDefinition{}, false
	}
	return c.fields[i], true
}

// Fields returns a copy of the ordered list.
func (c *Collection) Fields() []FieldDefinition {
	out := make([]FieldDefinition, len(c.fields))
	copy(out, c.fields)
	return out
}

// IDs returns field ids in order.
func (c *Collection) IDs() []string {
	out := make([]string, len(c.fields))
	for i, f := range c.fields {
		out[i] = f.ID
	}
	return out
}

// IndexOf returns the position of the field with the given id, or -1.
func (c *Collection) IndexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, f := range c.fields {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// Append places def at the end.
func (c *Collection) Append(def FieldDefinition) {
	c.InsertAt(len(c.fields), def)
}

// InsertAt places def at index, clamped to [0, Len()].
func (c *Collection) InsertAt(index int, def FieldDefinition) {
	if def.ID == "" || c.IndexOf(def.ID) >= 0 {
		def.ID = newFieldID()
	}
	if index < 0 {
		index = 0
	}
	if index > len(c.fields) {
		index = len(c.fields)
	}
	c.fields = append(c.fields, FieldDefinition{})
	copy(c.fields[index+1:], c.fields[index:])
	c.fields[index] = def
}

// RemoveAt drops the field at index. Out-of-range indices are ignored.
func (c *Collection) RemoveAt(index int) bool {
	if index < 0 || index >= len(c.fields) {
		return false
	}
	c.fields = append(c.fields[:index], c.fields[index+1:]...)
	return true
}

// Move splices the field at from out and back in at to, where to indexes the
// already-shortened list. Invalid or equal indices are ignored.
func (c *Collection) Move(from, to int) bool {
	n := len(c.fields)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return false
	}
	f := c.fields[from]
	if from < to {
		copy(c.fields[from:to], c.fields[from+1:to+1])
	} else {
		copy(c.fields[to+1:from+1], c.fields[to:from])
	}
	c.fields[to] = f
	return true
}

// SetLabel changes a field's label and resynchronizes its identifier.
func (c *Collection) SetLabel(id, label string) bool {
	i := c.IndexOf(id)
	if i < 0 {
		return false
	}
	f := &c.fields[i]
	f.Label = label
	if c.policy == PreserveManual && f.ManualIdentifier {
		return true
	}
	f.APIIdentifier = Derive(label)
	f.ManualIdentifier = false
	return true
}

// SetIdentifier stores an operator-typed identifier. An empty value returns
// the field to its derived identifier.
func (c *Collection) SetIdentifier(id, identifier string) bool {
	i := c.IndexOf(id)
	if i < 0 {
		return false
	}
	f := &c.fields[i]
	if identifier == "" {
		f.APIIdentifier = Derive(f.Label)
		f.ManualIdentifier = false
		return true
	}
	f.APIIdentifier = identifier
	f.ManualIdentifier = true
	return true
}

// SetKind changes a field's kind.
func (c *Collection) SetKind(id string, kind Kind) bool {
	i := c.IndexOf(id)
	if i < 0 {
		return false
	}
	c.fields[i].Kind = kind
	return true
}

// SetRequired changes a field's required flag.
func (c *Collection) SetRequired(id string, required bool) bool {
	i := c.IndexOf(id)
	if i < 0 {
		return false
	}
	c.fields[i].IsRequired = required
	return true
}
