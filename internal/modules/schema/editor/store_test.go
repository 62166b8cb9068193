package editor

import (
	"context"
	"testing"
	"time"

	"github.com/mx-space/fieldkit/internal/modules/schema/builder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() Snapshot {
	return Snapshot{
		ID:            "s1",
		ContentTypeID: "ct1",
		Name:          "Blog Post",
		Description:   "Articles",
		Fields: []builder.FieldDefinition{
			{ID: "f1", Label: "Title", APIIdentifier: "title", Kind: builder.KindShortText, IsRequired: true},
			{ID: "f2", Label: "Cover", APIIdentifier: "hero", Kind: builder.KindMedia, ManualIdentifier: true},
		},
		UpdatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStore_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	snap := sampleSnapshot()
	require.NoError(t, store.Save(ctx, snap, time.Minute))

	snap.Fields[0].Label = "mutated"
	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Title", got.Fields[0].Label)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, sampleSnapshot(), time.Minute))

	now = now.Add(50 * time.Second)
	require.NoError(t, store.Touch(ctx, "s1", time.Minute))

	now = now.Add(50 * time.Second)
	_, err := store.Load(ctx, "s1")
	require.NoError(t, err, "touch should have extended the expiry")

	now = now.Add(time.Minute)
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, sampleSnapshot(), 0))
	now = now.Add(24 * time.Hour)
	_, err := store.Load(ctx, "s1")
	assert.NoError(t, err)
}

func TestSnapshotCodec(t *testing.T) {
	snap := sampleSnapshot()
	data, err := encodeSnapshot(snap)
	require.NoError(t, err)

	got, err := decodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)
	assert.Equal(t, snap.Fields, got.Fields)
	assert.True(t, snap.UpdatedAt.Equal(got.UpdatedAt))

	_, err = decodeSnapshot([]byte{0xc1})
	assert.Error(t, err)
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "fieldkit:builder:session:abc", sessionKey("abc"))
}
