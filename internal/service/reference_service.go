package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/miqaat-rms-api/internal/models"
	appErrors "github.com/noah-isme/miqaat-rms-api/pkg/errors"
)

const (
	cacheKeyPermissions = "reference:permissions"
	cacheKeyCities      = "reference:cities"
	cacheKeyZones       = "reference:zones"
)

type referenceStore interface {
	ListPermissions(ctx context.Context) ([]models.Permission, error)
	ListCities(ctx context.Context) ([]models.City, error)
	ListZones(ctx context.Context) ([]models.Zone, error)
}

// ReferenceService serves the lookup lists behind the request form. The
// returned bool reports a cache hit.
type ReferenceService struct {
	repo   referenceStore
	cache  cacheStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewReferenceService constructs the service. cache may be nil.
func NewReferenceService(repo referenceStore, cache cacheStore, ttl time.Duration, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Permissions lists the permission codes usable as request types.
func (s *ReferenceService) Permissions(ctx context.Context) ([]models.Permission, bool, error) {
	list, hit, err := cached(ctx, s.cache, cacheKeyPermissions, s.ttl, s.repo.ListPermissions)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load permissions")
	}
	if list == nil {
		list = []models.Permission{}
	}
	return list, hit, nil
}

// Cities lists every city.
func (s *ReferenceService) Cities(ctx context.Context) ([]models.City, bool, error) {
	list, hit, err := cached(ctx, s.cache, cacheKeyCities, s.ttl, s.repo.ListCities)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cities")
	}
	if list == nil {
		list = []models.City{}
	}
	return list, hit, nil
}

// Zones lists every zone.
func (s *ReferenceService) Zones(ctx context.Context) ([]models.Zone, bool, error) {
	list, hit, err := cached(ctx, s.cache, cacheKeyZones, s.ttl, s.repo.ListZones)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load zones")
	}
	if list == nil {
		list = []models.Zone{}
	}
	return list, hit, nil
}
