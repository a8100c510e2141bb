package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crisis-alert-service/internal/domain"
	"crisis-alert-service/pkg/xerrors"
)

func TestMemoryAlertRepoIsolatesStoredRecords(t *testing.T) {
	repo := NewMemoryAlertRepository()
	ctx := context.Background()

	a := &domain.Alert{ID: "a1", UserID: "u1", Status: domain.StatusPending, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, a))

	// Mutating the caller's copy must not reach the stored record.
	a.Status = domain.StatusDismissed
	got, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)

	// And mutating a read copy must not either.
	got.Status = domain.StatusRead
	again, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, again.Status)
}

func TestMemoryAlertRepoUpdateUnknown(t *testing.T) {
	repo := NewMemoryAlertRepository()
	err := repo.Update(context.Background(), &domain.Alert{ID: "missing"})
	assert.ErrorIs(t, err, xerrors.ErrAlertNotFound)
}

func TestMemoryAlertRepoDeleteRemovesDeliveries(t *testing.T) {
	repo := NewMemoryAlertRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Alert{ID: "a1", UserID: "u1", CreatedAt: time.Now()}))
	require.NoError(t, repo.AddChannelResults(ctx, []domain.ChannelResult{
		{AlertID: "a1", Channel: domain.ChannelPush, OK: true, AttemptedAt: time.Now()},
	}))
	require.NoError(t, repo.Delete(ctx, "a1"))

	results, err := repo.ListChannelResults(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryPreferenceRepoSetsTimestamps(t *testing.T) {
	repo := NewMemoryPreferenceRepository()
	ctx := context.Background()

	saved, err := repo.Upsert(ctx, &domain.NotificationPreferences{UserID: "u1"})
	require.NoError(t, err)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.False(t, saved.UpdatedAt.IsZero())

	created := saved.CreatedAt
	time.Sleep(time.Millisecond)
	saved.Channels.Push = true
	updated, err := repo.Upsert(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, created, updated.CreatedAt, "create time survives updates")
	assert.True(t, updated.UpdatedAt.After(created))
}
