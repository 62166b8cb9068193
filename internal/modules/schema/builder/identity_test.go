package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"New Field", "newField"},
		{"Título del Día", "tituloDelDia"},
		{"  hello   world  ", "helloWorld"},
		{"first_name", "firstName"},
		{"Hero Image URL", "heroImageUrl"},
		{"title", "title"},
		{"", ""},
		{"   ", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, Derive(tt.label))
		})
	}
}

func TestDerive_Deterministic(t *testing.T) {
	labels := []string{"Título del Día", "Price (EUR)", "über cool", "x"}
	for _, l := range labels {
		assert.Equal(t, Derive(l), Derive(l), l)
	}
}

func TestIdentifierPolicy_String(t *testing.T) {
	assert.Equal(t, "overwrite", OverwriteOnLabelChange.String())
	assert.Equal(t, "preserve-manual", PreserveManual.String())
}
