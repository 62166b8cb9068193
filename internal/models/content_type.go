package models

// ContentFieldModel is one field of a content type, stored in order inside
// the owning row.
type ContentFieldModel struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	APIIdentifier string `json:"apiIdentifier"`
	Kind          string `json:"kind"`
	IsRequired    bool   `json:"isRequired"`
}

// ContentTypeModel is a schema assembled in the builder.
type ContentTypeModel struct {
	Base
	Name          string              `json:"name"          gorm:"not null"`
	APIIdentifier string              `json:"apiIdentifier" gorm:"size:191;uniqueIndex;not null"`
	Description   string              `json:"description"   gorm:"type:text"`
	Fields        []ContentFieldModel `json:"fields"        gorm:"serializer:json;type:longtext"`
}

func (ContentTypeModel) TableName() string { return "content_types" }
