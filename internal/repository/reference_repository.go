package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/miqaat-rms-api/internal/models"
)

// ReferenceRepository reads the lookup tables backing the request form.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs the repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// ListPermissions returns the permission codes usable as request types.
func (r *ReferenceRepository) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	var permissions []models.Permission
	if err := r.db.SelectContext(ctx, &permissions, `SELECT code, description FROM permissions ORDER BY code`); err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return permissions, nil
}

// ListCities returns every city ordered by name.
func (r *ReferenceRepository) ListCities(ctx context.Context) ([]models.City, error) {
	var cities []models.City
	if err := r.db.SelectContext(ctx, &cities, `SELECT id, name FROM cities ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	return cities, nil
}

// ListZones returns every zone ordered by name.
func (r *ReferenceRepository) ListZones(ctx context.Context) ([]models.Zone, error) {
	var zones []models.Zone
	if err := r.db.SelectContext(ctx, &zones, `SELECT id, name FROM zones ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	return zones, nil
}
