package contenttype

import (
	"context"
	"testing"

	"github.com/mx-space/fieldkit/internal/config"
	"github.com/mx-space/fieldkit/internal/database"
	"github.com/mx-space/fieldkit/internal/modules/schema/builder"
	"github.com/mx-space/fieldkit/internal/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := database.Open(config.DriverSQLite, ":memory:", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return NewService(db, nil)
}

func blogPost() *CreateContentTypeDTO {
	return &CreateContentTypeDTO{
		Name:        "Blog Post",
		Description: "  Articles  ",
		Fields: []FieldDTO{
			{ID: "f1", Label: "Title", Kind: "short-text", IsRequired: true},
			{ID: "f2", Label: "Hero Image", APIIdentifier: "cover", Kind: "media"},
		},
	}
}

func TestService_CreateAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ct, err := svc.Create(ctx, blogPost())
	require.NoError(t, err)
	assert.Equal(t, "blogPost", ct.APIIdentifier)
	assert.Equal(t, "Articles", ct.Description)
	require.Len(t, ct.Fields, 2)
	assert.Equal(t, "title", ct.Fields[0].APIIdentifier)
	assert.Equal(t, "cover", ct.Fields[1].APIIdentifier)
	assert.True(t, ct.Fields[0].IsRequired)

	got, err := svc.GetByID(ctx, ct.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2"}, []string{got.Fields[0].ID, got.Fields[1].ID})

	byIdent, err := svc.GetByQuery(ctx, "blogPost")
	require.NoError(t, err)
	assert.Equal(t, ct.ID, byIdent.ID)

	_, err = svc.GetByQuery(ctx, "nothing")
	assert.ErrorIs(t, err, ErrContentTypeNotFound)
}

func TestService_CreateMintsMissingFieldIDs(t *testing.T) {
	svc := newTestService(t)
	ct, err := svc.Create(context.Background(), &CreateContentTypeDTO{
		Name:   "Event",
		Fields: []FieldDTO{{Label: "Starts At", Kind: "DATE"}},
	})
	require.NoError(t, err)
	require.Len(t, ct.Fields, 1)
	assert.NotEmpty(t, ct.Fields[0].ID)
	assert.Equal(t, string(builder.KindDate), ct.Fields[0].Kind)
	assert.Equal(t, "startsAt", ct.Fields[0].APIIdentifier)
}

func TestService_Validation(t *testing.T) {
	tests := []struct {
		name string
		dto  CreateContentTypeDTO
		want error
	}{
		{
			name: "symbol-only name",
			dto:  CreateContentTypeDTO{Name: "???"},
			want: ErrNameRequired,
		},
		{
			name: "unknown kind",
			dto:  CreateContentTypeDTO{Name: "X", Fields: []FieldDTO{{Label: "A", Kind: "relation"}}},
			want: builder.ErrUnknownKind,
		},
		{
			name: "repeated field id",
			dto: CreateContentTypeDTO{Name: "X", Fields: []FieldDTO{
				{ID: "a", Label: "A", Kind: "number"},
				{ID: "a", Label: "B", Kind: "number"},
			}},
			want: ErrInvalidField,
		},
		{
			name: "no identifier",
			dto:  CreateContentTypeDTO{Name: "X", Fields: []FieldDTO{{Label: "", Kind: "number"}}},
			want: ErrInvalidField,
		},
		{
			name: "duplicate field identifier",
			dto: CreateContentTypeDTO{Name: "X", Fields: []FieldDTO{
				{Label: "New Field", Kind: "short-text"},
				{Label: "New Field", Kind: "number"},
			}},
			want: ErrDuplicateIdentifier,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t)
			_, err := svc.Create(context.Background(), &tt.dto)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestService_DuplicateContentTypeIdentifier(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, blogPost())
	require.NoError(t, err)

	_, err = svc.Create(ctx, &CreateContentTypeDTO{Name: "blog post"})
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)
}

func TestService_Update(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ct, err := svc.Create(ctx, blogPost())
	require.NoError(t, err)
	other, err := svc.Create(ctx, &CreateContentTypeDTO{Name: "Author"})
	require.NoError(t, err)

	name := "Article"
	fields := []FieldDTO{{ID: "f2", Label: "Cover", Kind: "media"}}
	updated, err := svc.Update(ctx, ct.ID, &UpdateContentTypeDTO{Name: &name, Fields: &fields})
	require.NoError(t, err)
	assert.Equal(t, "article", updated.APIIdentifier)
	require.Len(t, updated.Fields, 1)
	assert.Equal(t, "cover", updated.Fields[0].APIIdentifier)

	clash := "author"
	_, err = svc.Update(ctx, ct.ID, &UpdateContentTypeDTO{Name: &clash})
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)

	same := "Author"
	_, err = svc.Update(ctx, other.ID, &UpdateContentTypeDTO{Name: &same})
	assert.NoError(t, err)

	_, err = svc.Update(ctx, "missing", &UpdateContentTypeDTO{Name: &name})
	assert.ErrorIs(t, err, ErrContentTypeNotFound)
}

func TestService_DeleteFreesIdentifier(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ct, err := svc.Create(ctx, blogPost())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, ct.ID))
	assert.ErrorIs(t, svc.Delete(ctx, ct.ID), ErrContentTypeNotFound)

	_, err = svc.Create(ctx, blogPost())
	assert.NoError(t, err)
}

func TestService_List(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for _, name := range []string{"One", "Two", "Three"} {
		_, err := svc.Create(ctx, &CreateContentTypeDTO{Name: name})
		require.NoError(t, err)
	}

	items, pag, err := svc.List(ctx, pagination.Query{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, int64(3), pag.Total)
	assert.Equal(t, 2, pag.TotalPage)
	assert.True(t, pag.HasNextPage)
}
