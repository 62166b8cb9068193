package builder

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned when a wire value names no catalog entry.
var ErrUnknownKind = errors.New("unknown field kind")

// Kind identifies one of the closed set of field types.
type Kind string

const (
	KindShortText Kind = "short-text"
	KindRichText  Kind = "rich-text"
	KindNumber    Kind = "number"
	KindBoolean   Kind = "boolean"
	KindDate      Kind = "date"
	KindMedia     Kind = "media"
)

// Blueprint describes a selectable field kind in the palette.
type Blueprint struct {
	Kind        Kind   `json:"kind"`
	Label       string `json:"label"`
	Description string `json:"description"`
	VisualTag   string `json:"visualTag"`
}

// Catalog is the static registry of field blueprints. It is never mutated
// after construction.
type Catalog struct {
	entries []Blueprint
	index   map[Kind]int
}

var defaultBlueprints = []Blueprint{
	{
		Kind:        KindShortText,
		Label:       "Short text",
		Description: "Titles, names and other **single-line** values.",
		VisualTag:   "type",
	},
	{
		Kind:        KindRichText,
		Label:       "Rich text",
		Description: "Long-form content with *formatting*, links and lists.",
		VisualTag:   "align-left",
	},
	{
		Kind:        KindNumber,
		Label:       "Number",
		Description: "Integers or decimals such as prices, durations or counts.",
		VisualTag:   "hash",
	},
	{
		Kind:        KindBoolean,
		Label:       "Boolean",
		Description: "A yes/no toggle.",
		VisualTag:   "toggle-left",
	},
	{
		Kind:        KindDate,
		Label:       "Date",
		Description: "A calendar date, optionally with a time of day.",
		VisualTag:   "calendar",
	},
	{
		Kind:        KindMedia,
		Label:       "Media",
		Description: "Images, video or files from the media library.",
		VisualTag:   "image",
	},
}

// DefaultCatalog returns the six built-in blueprints in palette order.
func DefaultCatalog() *Catalog {
	return newCatalog(defaultBlueprints)
}

func newCatalog(entries []Blueprint) *Catalog {
	c := &Catalog{
		entries: make([]Blueprint, len(entries)),
		index:   make(map[Kind]int, len(entries)),
	}
	copy(c.entries, entries)
	for i, bp := range c.entries {
		c.index[bp.Kind] = i
	}
	return c
}

// List returns the blueprints in palette order.
func (c *Catalog) List() []Blueprint {
	out := make([]Blueprint, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup returns the blueprint for kind.
func (c *Catalog) Lookup(kind Kind) (Blueprint, bool) {
	i, ok := c.index[kind]
	if !ok {
		return Blueprint{}, false
	}
	return c.entries[i], true
}

// MustLookup is Lookup for callers that already validated kind. A miss means
// the catalog and its callers disagree, which is a configuration error.
func (c *Catalog) MustLookup(kind Kind) Blueprint {
	bp, ok := c.Lookup(kind)
	if !ok {
		panic(fmt.Sprintf("builder: kind %q missing from catalog", kind))
	}
	return bp
}

// Has reports whether kind is part of the catalog.
func (c *Catalog) Has(kind Kind) bool {
	_, ok := c.index[kind]
	return ok
}

// ParseKind validates a wire value against the default catalog.
func ParseKind(raw string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(raw)))
	for _, bp := range defaultBlueprints {
		if bp.Kind == kind {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
}
