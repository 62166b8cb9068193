package contenttype

import (
	"errors"

	"github.com/mx-space/fieldkit/internal/models"
)

var (
	ErrContentTypeNotFound = errors.New("content type not found")
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
	ErrInvalidField        = errors.New("invalid field")
	ErrNameRequired        = errors.New("name must contain a letter or digit")
)

type FieldDTO struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	APIIdentifier string `json:"apiIdentifier"`
	Kind          string `json:"kind"          binding:"required"`
	IsRequired    bool   `json:"isRequired"`
}

type CreateContentTypeDTO struct {
	Name        string     `json:"name"        binding:"required"`
	Description string     `json:"description"`
	Fields      []FieldDTO `json:"fields"`
}

type UpdateContentTypeDTO struct {
	Name        *string     `json:"name"`
	Description *string     `json:"description"`
	Fields      *[]FieldDTO `json:"fields"`
}

// FieldsFromModels converts stored field records into DTOs, keeping order.
func FieldsFromModels(fields []models.ContentFieldModel) []FieldDTO {
	out := make([]FieldDTO, 0, len(fields))
	for _, f := range fields {
		out = append(out, FieldDTO{
			ID:            f.ID,
			Label:         f.Label,
			APIIdentifier: f.APIIdentifier,
			Kind:          f.Kind,
			IsRequired:    f.IsRequired,
		})
	}
	return out
}
