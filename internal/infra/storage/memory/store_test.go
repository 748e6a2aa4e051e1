package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "babiloc/internal/app/outbox"
	"babiloc/internal/app/uow"
	domainproperty "babiloc/internal/domain/property"
)

func newProperty(t *testing.T, id string) *domainproperty.Property {
	t.Helper()
	p, err := domainproperty.New(domainproperty.CreateParams{
		ID:        domainproperty.ID(id),
		OwnerID:   "owner-1",
		Title:     "Studio",
		CreatedAt: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return p
}

func TestRollbackDiscardsWritesAndStagedEvents(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	box := NewOutbox(store)

	unit, err := store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	uctx := uow.Bind(ctx, unit)
	require.NoError(t, unit.Properties().Save(uctx, newProperty(t, "p-1")))
	require.NoError(t, box.Add(uctx, appoutbox.EventRecord{ID: "e-1", Name: "property.created"}))
	require.NoError(t, unit.Rollback(uctx))

	reader, err := store.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	_, err = reader.Properties().ByID(ctx, "p-1")
	assert.ErrorIs(t, err, domainproperty.ErrNotFound)
	assert.Empty(t, store.Pending())
}

func TestCommitPublishesStagedEvents(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	box := NewOutbox(store)

	unit, err := store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	uctx := uow.Bind(ctx, unit)
	require.NoError(t, unit.Properties().Save(uctx, newProperty(t, "p-1")))
	require.NoError(t, box.Add(uctx, appoutbox.EventRecord{ID: "e-1", Name: "property.created"}))
	assert.Empty(t, store.Pending())

	require.NoError(t, unit.Commit(uctx))
	pending := store.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "e-1", pending[0].ID)

	assert.ErrorIs(t, unit.Commit(uctx), ErrUnitClosed)
}

func TestReadOnlyUnitSeesSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	reader, err := store.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)

	writer, err := store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, writer.Properties().Save(ctx, newProperty(t, "p-1")))
	require.NoError(t, writer.Commit(ctx))

	_, err = reader.Properties().ByID(ctx, "p-1")
	assert.ErrorIs(t, err, domainproperty.ErrNotFound)
	assert.Error(t, reader.Properties().Save(ctx, newProperty(t, "p-2")))
}

func TestStaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	unit, err := store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Properties().Save(ctx, newProperty(t, "p-1")))
	require.NoError(t, unit.Commit(ctx))

	first, err := store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	loaded, err := first.Properties().ByID(ctx, "p-1")
	require.NoError(t, err)
	stale := *loaded
	loaded.Verify(time.Now())
	require.NoError(t, first.Properties().Save(ctx, loaded))
	assert.ErrorIs(t, first.Properties().Save(ctx, &stale), uow.ErrConflict)
	require.NoError(t, first.Rollback(ctx))
}

func TestRelayRetriesFailedRecords(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	box := NewOutbox(store)
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "e-1"}))

	rec, err := store.Claim(ctx, "w")
	require.NoError(t, err)
	require.NotNil(t, rec)

	again, err := store.Claim(ctx, "w")
	require.NoError(t, err)
	assert.Nil(t, again)

	require.NoError(t, store.MarkFailed(ctx, rec.ID, time.Now().Add(-time.Second), "broker down"))
	retry, err := store.Claim(ctx, "w")
	require.NoError(t, err)
	require.NotNil(t, retry)
	assert.Equal(t, 1, retry.Attempts)

	require.NoError(t, store.MarkSent(ctx, retry.ID))
	assert.Empty(t, store.Pending())
}
