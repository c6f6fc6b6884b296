package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/miqaat-rms-api/internal/models"
	appErrors "github.com/noah-isme/miqaat-rms-api/pkg/errors"
)

type referenceRepoStub struct {
	calls     int
	citiesErr error
}

func (r *referenceRepoStub) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	r.calls++
	return []models.Permission{{Code: string(models.RequestTypePass), Description: "Pass"}}, nil
}

func (r *referenceRepoStub) ListCities(ctx context.Context) ([]models.City, error) {
	r.calls++
	if r.citiesErr != nil {
		return nil, r.citiesErr
	}
	return []models.City{{ID: 1, Name: "Mumbai"}}, nil
}

func (r *referenceRepoStub) ListZones(ctx context.Context) ([]models.Zone, error) {
	r.calls++
	return nil, nil
}

func TestReferenceServiceCachesLists(t *testing.T) {
	repo := &referenceRepoStub{}
	cache := newMemoryCache()
	svc := NewReferenceService(repo, cache, time.Minute, nil)

	perms, hit, err := svc.Permissions(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, perms, 1)

	perms, hit, err = svc.Permissions(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "pass_request", perms[0].Code)
	assert.Equal(t, 1, repo.calls)
}

func TestReferenceServiceWithoutCache(t *testing.T) {
	repo := &referenceRepoStub{}
	svc := NewReferenceService(repo, nil, time.Minute, nil)

	zones, hit, err := svc.Zones(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotNil(t, zones)
	assert.Empty(t, zones)

	var disabled *CacheService
	svc = NewReferenceService(repo, disabled, time.Minute, nil)
	cities, hit, err := svc.Cities(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "Mumbai", cities[0].Name)
}

func TestReferenceServiceLoadFailure(t *testing.T) {
	svc := NewReferenceService(&referenceRepoStub{citiesErr: errors.New("boom")}, newMemoryCache(), time.Minute, nil)

	_, _, err := svc.Cities(context.Background())
	require.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Equal(t, "failed to load cities", appErrors.FromError(err).Message)
}
