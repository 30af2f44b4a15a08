package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opendesk/helpdesk-service/internal/domain"
	"github.com/opendesk/helpdesk-service/internal/repository"
)

// fakeCatalogCache records interactions so tests can assert on cache-first
// reads and mutation invalidation.
type fakeCatalogCache struct {
	entry       []domain.Service
	hits        int
	sets        int
	invalidates int
}

func (f *fakeCatalogCache) Get(context.Context) ([]domain.Service, bool) {
	if f.entry == nil {
		return nil, false
	}
	f.hits++
	return f.entry, true
}

func (f *fakeCatalogCache) Set(_ context.Context, services []domain.Service) {
	f.sets++
	f.entry = services
}

func (f *fakeCatalogCache) Invalidate(context.Context) {
	f.invalidates++
	f.entry = nil
}

func newCatalogFixture(cache CatalogCache) (*CatalogService, *repository.MemoryServiceRepository) {
	repo := repository.NewMemoryServiceRepository()
	return NewCatalogService(repo, cache, zap.NewNop()), repo
}

func TestDeactivateKeepsRowOutOfListing(t *testing.T) {
	svc, repo := newCatalogFixture(nil)
	ctx := context.Background()

	cleaning, err := svc.CreateService(ctx, "Cleaning", "40.00")
	require.NoError(t, err)
	repairs, err := svc.CreateService(ctx, "Repairs", "60.00")
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateService(ctx, cleaning.ID))

	listed, err := svc.ListServices(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, repairs.ID, listed[0].ID)

	// The row itself survives for ticket history.
	stored, err := repo.GetByID(ctx, cleaning.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)

	got, err := svc.GetService(ctx, cleaning.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cleaning", got.Title)
}

func TestUpdateServiceOverwritesTitleAndPrice(t *testing.T) {
	svc, _ := newCatalogFixture(nil)
	ctx := context.Background()

	created, err := svc.CreateService(ctx, "Cleaning", "40.00")
	require.NoError(t, err)

	updated, err := svc.UpdateService(ctx, created.ID, "Deep cleaning", "55.00")
	require.NoError(t, err)
	assert.Equal(t, "Deep cleaning", updated.Title)
	assert.Equal(t, "55.00", updated.Price)
	assert.True(t, updated.Active)

	_, err = svc.UpdateService(ctx, "ffffffff-0000-0000-0000-000000000000", "Nope", "1.00")
	assert.Error(t, err)
}

func TestListServicesIsCacheFirst(t *testing.T) {
	cache := &fakeCatalogCache{}
	svc, _ := newCatalogFixture(cache)
	ctx := context.Background()

	_, err := svc.CreateService(ctx, "Cleaning", "40.00")
	require.NoError(t, err)

	first, err := svc.ListServices(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 0, cache.hits)

	second, err := svc.ListServices(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, 1, cache.sets)
}

func TestMutationsInvalidateCache(t *testing.T) {
	cache := &fakeCatalogCache{}
	svc, _ := newCatalogFixture(cache)
	ctx := context.Background()

	created, err := svc.CreateService(ctx, "Cleaning", "40.00")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidates)

	_, err = svc.UpdateService(ctx, created.ID, "Cleaning", "45.00")
	require.NoError(t, err)
	assert.Equal(t, 2, cache.invalidates)

	require.NoError(t, svc.DeactivateService(ctx, created.ID))
	assert.Equal(t, 3, cache.invalidates)
}
