package regions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/validate"
)

// ErrNotFound is returned for lookups and edits on a missing region.
var ErrNotFound = errors.New("region not found")

// Querier defines what the repository needs from the database layer
type Querier interface {
	CreateRegion(ctx context.Context, title string) (models.Region, error)
	GetRegion(ctx context.Context, id int32) (models.Region, error)
	ListRegions(ctx context.Context) ([]models.Region, error)
	UpdateRegionTitle(ctx context.Context, id int32, title string) (models.Region, error)
	DeleteRegion(ctx context.Context, id int32) (int64, error)
	GetRegionMetadata(ctx context.Context, id int32) (models.RegionMetadata, error)
}

// Repository implements region data access operations
type Repository struct {
	queries Querier
}

func NewRepository(querier Querier) *Repository {
	return &Repository{queries: querier}
}

// CreateRegion validates the title and inserts the region.
func (r *Repository) CreateRegion(ctx context.Context, title string) (*models.Region, error) {
	canonical, err := validate.Name(title)
	if err != nil {
		return nil, err
	}
	region, err := r.queries.CreateRegion(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to create region: %w", err)
	}
	return &region, nil
}

func (r *Repository) GetRegion(ctx context.Context, id int32) (*models.Region, error) {
	region, err := r.queries.GetRegion(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get region: %w", err)
	}
	return &region, nil
}

func (r *Repository) ListRegions(ctx context.Context) ([]models.Region, error) {
	regions, err := r.queries.ListRegions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	return regions, nil
}

// EditRegion renames a region after validation.
func (r *Repository) EditRegion(ctx context.Context, id int32, title string) (*models.Region, error) {
	canonical, err := validate.Name(title)
	if err != nil {
		return nil, err
	}
	region, err := r.queries.UpdateRegionTitle(ctx, id, canonical)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to edit region: %w", err)
	}
	return &region, nil
}

func (r *Repository) DeleteRegion(ctx context.Context, id int32) error {
	n, err := r.queries.DeleteRegion(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete region: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) GetRegionMetadata(ctx context.Context, id int32) (*models.RegionMetadata, error) {
	meta, err := r.queries.GetRegionMetadata(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get region metadata: %w", err)
	}
	return &meta, nil
}
