package contenttype

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mx-space/fieldkit/internal/models"
	"github.com/mx-space/fieldkit/internal/modules/schema/builder"
	"github.com/mx-space/fieldkit/internal/pkg/pagination"
	"github.com/mx-space/fieldkit/internal/pkg/response"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	catalog *builder.Catalog
}

func NewService(db *gorm.DB, catalog *builder.Catalog) *Service {
	if catalog == nil {
		catalog = builder.DefaultCatalog()
	}
	return &Service{db: db, catalog: catalog}
}

func (s *Service) List(ctx context.Context, q pagination.Query) ([]models.ContentTypeModel, response.Pagination, error) {
	tx := s.db.WithContext(ctx).Model(&models.ContentTypeModel{}).Order("created_at ASC")
	var items []models.ContentTypeModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

// GetByID returns ErrContentTypeNotFound when no row matches.
func (s *Service) GetByID(ctx context.Context, id string) (*models.ContentTypeModel, error) {
	var ct models.ContentTypeModel
	if err := s.db.WithContext(ctx).First(&ct, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContentTypeNotFound
		}
		return nil, err
	}
	return &ct, nil
}

// GetByQuery resolves an id first, then an API identifier.
func (s *Service) GetByQuery(ctx context.Context, query string) (*models.ContentTypeModel, error) {
	ct, err := s.GetByID(ctx, query)
	if err == nil || !errors.Is(err, ErrContentTypeNotFound) {
		return ct, err
	}

	var byIdent models.ContentTypeModel
	if err := s.db.WithContext(ctx).First(&byIdent, "api_identifier = ?", query).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContentTypeNotFound
		}
		return nil, err
	}
	return &byIdent, nil
}

func (s *Service) Create(ctx context.Context, dto *CreateContentTypeDTO) (*models.ContentTypeModel, error) {
	name, ident, err := nameAndIdentifier(dto.Name)
	if err != nil {
		return nil, err
	}
	fields, err := s.normalizeFields(dto.Fields)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := s.ensureIdentifierFree(db, ident, ""); err != nil {
		return nil, err
	}

	ct := models.ContentTypeModel{
		Name:          name,
		APIIdentifier: ident,
		Description:   strings.TrimSpace(dto.Description),
		Fields:        fields,
	}
	if err := db.Create(&ct).Error; err != nil {
		return nil, fmt.Errorf("create content type: %w", err)
	}
	return &ct, nil
}

func (s *Service) Update(ctx context.Context, id string, dto *UpdateContentTypeDTO) (*models.ContentTypeModel, error) {
	ct, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if dto.Name != nil {
		name, ident, err := nameAndIdentifier(*dto.Name)
		if err != nil {
			return nil, err
		}
		if ident != ct.APIIdentifier {
			if err := s.ensureIdentifierFree(db, ident, ct.ID); err != nil {
				return nil, err
			}
		}
		ct.Name = name
		ct.APIIdentifier = ident
	}
	if dto.Description != nil {
		ct.Description = strings.TrimSpace(*dto.Description)
	}
	if dto.Fields != nil {
		fields, err := s.normalizeFields(*dto.Fields)
		if err != nil {
			return nil, err
		}
		ct.Fields = fields
	}

	if err := db.Save(ct).Error; err != nil {
		return nil, fmt.Errorf("update content type: %w", err)
	}
	return ct, nil
}

// Delete removes the row outright so its identifier can be reused.
func (s *Service) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Unscoped().Delete(&models.ContentTypeModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrContentTypeNotFound
	}
	return nil
}

func (s *Service) ensureIdentifierFree(db *gorm.DB, ident, exceptID string) error {
	tx := db.Model(&models.ContentTypeModel{}).Where("api_identifier = ?", ident)
	if exceptID != "" {
		tx = tx.Where("id <> ?", exceptID)
	}
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: content type %q already exists", ErrDuplicateIdentifier, ident)
	}
	return nil
}

// normalizeFields validates an ordered field list. Field ids must be unique,
// kinds must be in the catalog and API identifiers must be non-empty and
// unique within the content type. Empty ids are minted and empty identifiers
// are derived from the label.
func (s *Service) normalizeFields(in []FieldDTO) ([]models.ContentFieldModel, error) {
	out := make([]models.ContentFieldModel, 0, len(in))
	ids := make(map[string]struct{}, len(in))
	idents := make(map[string]struct{}, len(in))

	for i, f := range in {
		id := strings.TrimSpace(f.ID)
		if id == "" {
			id = uuid.New().String()
		}
		if _, dup := ids[id]; dup {
			return nil, fmt.Errorf("%w: field %d repeats id %q", ErrInvalidField, i, id)
		}
		ids[id] = struct{}{}

		kind, err := builder.ParseKind(f.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: field %d: %w", ErrInvalidField, i, err)
		}
		if !s.catalog.Has(kind) {
			return nil, fmt.Errorf("%w: field %d: %w: %q", ErrInvalidField, i, builder.ErrUnknownKind, kind)
		}

		label := strings.TrimSpace(f.Label)
		ident := strings.TrimSpace(f.APIIdentifier)
		if ident == "" {
			ident = builder.Derive(label)
		}
		if ident == "" {
			return nil, fmt.Errorf("%w: field %d has no api identifier", ErrInvalidField, i)
		}
		if _, dup := idents[ident]; dup {
			return nil, fmt.Errorf("%w: field api identifier %q is used twice", ErrDuplicateIdentifier, ident)
		}
		idents[ident] = struct{}{}

		out = append(out, models.ContentFieldModel{
			ID:            id,
			Label:         label,
			APIIdentifier: ident,
			Kind:          string(kind),
			IsRequired:    f.IsRequired,
		})
	}
	return out, nil
}

func nameAndIdentifier(raw string) (string, string, error) {
	name := strings.TrimSpace(raw)
	ident := builder.Derive(name)
	if ident == "" {
		return "", "", ErrNameRequired
	}
	return name, ident, nil
}
