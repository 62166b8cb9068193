package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		ids    []string
		origin Origin
		hover  HoverTarget
		want   Mutation
	}{
		{
			name:   "palette onto empty zone appends",
			ids:    []string{"a"},
			origin: FromPalette(KindNumber),
			hover:  EmptyZone(),
			want:   Mutation{Type: MutationAppend, Kind: KindNumber, Index: 1},
		},
		{
			name:   "palette onto empty list appends whatever the target",
			origin: FromPalette(KindDate),
			hover:  OverField("ghost"),
			want:   Mutation{Type: MutationAppend, Kind: KindDate},
		},
		{
			name:   "palette onto placeholder inserts there",
			ids:    []string{"a", "b"},
			origin: FromPalette(KindMedia),
			hover:  PlaceholderAt(1),
			want:   Mutation{Type: MutationInsert, Kind: KindMedia, Index: 1},
		},
		{
			name:   "palette placeholder clamps",
			ids:    []string{"a", "b"},
			origin: FromPalette(KindMedia),
			hover:  PlaceholderAt(40),
			want:   Mutation{Type: MutationInsert, Kind: KindMedia, Index: 2},
		},
		{
			name:   "palette onto field inserts after it",
			ids:    []string{"a", "b", "c"},
			origin: FromPalette(KindNumber),
			hover:  OverField("a"),
			want:   Mutation{Type: MutationInsert, Kind: KindNumber, Index: 1},
		},
		{
			name:   "palette onto unknown field falls back to append",
			ids:    []string{"a", "b"},
			origin: FromPalette(KindBoolean),
			hover:  OverField("zz"),
			want:   Mutation{Type: MutationAppend, Kind: KindBoolean, Index: 2},
		},
		{
			name:   "field onto other field moves",
			ids:    []string{"a", "b", "c"},
			origin: FromField("a"),
			hover:  OverField("c"),
			want:   Mutation{Type: MutationMove, From: 0, To: 2},
		},
		{
			name:   "field onto itself is a no-op",
			ids:    []string{"a", "b"},
			origin: FromField("b"),
			hover:  OverField("b"),
			want:   Mutation{Type: MutationNone},
		},
		{
			name:   "field onto unknown field is a no-op",
			ids:    []string{"a", "b"},
			origin: FromField("a"),
			hover:  OverField("zz"),
			want:   Mutation{Type: MutationNone},
		},
		{
			name:   "unknown dragged field is a no-op",
			ids:    []string{"a", "b"},
			origin: FromField("zz"),
			hover:  OverField("a"),
			want:   Mutation{Type: MutationNone},
		},
		{
			name:   "field onto placeholder moves to clamped slot",
			ids:    []string{"a", "b", "c"},
			origin: FromField("a"),
			hover:  PlaceholderAt(9),
			want:   Mutation{Type: MutationMove, From: 0, To: 2},
		},
		{
			name:   "field onto empty zone is a no-op",
			ids:    []string{"a"},
			origin: FromField("a"),
			hover:  EmptyZone(),
			want:   Mutation{Type: MutationNone},
		},
		{
			name:   "palette with no target is cancelled",
			ids:    []string{"a"},
			origin: FromPalette(KindShortText),
			hover:  NoTarget(),
			want:   Mutation{Type: MutationNone},
		},
		{
			name:   "empty list with no target is still cancelled",
			origin: FromPalette(KindShortText),
			hover:  NoTarget(),
			want:   Mutation{Type: MutationNone},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := seeded(tt.ids...)
			before := c.IDs()

			assert.Equal(t, tt.want, Resolve(tt.origin, tt.hover, c))
			assert.Equal(t, before, c.IDs(), "Resolve must not mutate")
		})
	}
}

func TestMutationApply_NewFieldUsesPlaceholder(t *testing.T) {
	c := seeded("a")
	f, changed := Mutation{Type: MutationInsert, Kind: KindNumber, Index: 0}.Apply(c, "Untitled Field")

	assert.True(t, changed)
	assert.Equal(t, "Untitled Field", f.Label)
	assert.Equal(t, "untitledField", f.APIIdentifier)
	assert.Equal(t, KindNumber, f.Kind)
	assert.False(t, f.IsRequired)
	assert.Equal(t, []string{f.ID, "a"}, c.IDs())
}

func TestMutationApply_None(t *testing.T) {
	c := seeded("a")
	_, changed := Mutation{Type: MutationNone}.Apply(c, DefaultPlaceholderLabel)
	assert.False(t, changed)
	assert.Equal(t, 1, c.Len())
}
