package fields

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/validate"
)

// ErrNotFound is returned for lookups and edits on a missing field.
var ErrNotFound = errors.New("field not found")

// ConcurrencyBoundsError rejects overrides outside [1, 8].
type ConcurrencyBoundsError struct {
	Concurrency int16
}

func (e *ConcurrencyBoundsError) Error() string {
	return fmt.Sprintf("concurrency %d out of range [%d, %d]",
		e.Concurrency, models.MinGamesPerFieldType, models.MaxGamesPerFieldType)
}

// Querier defines what the repository needs from the database layer
type Querier interface {
	CreateField(ctx context.Context, name string, regionID int32) (models.Field, error)
	GetField(ctx context.Context, id int32) (models.Field, error)
	ListFieldsOfRegion(ctx context.Context, regionID int32) ([]models.Field, error)
	ListFieldRegions(ctx context.Context) (map[int32]int32, error)
	DeleteField(ctx context.Context, id int32) (int64, error)
	UpsertConcurrency(ctx context.Context, fieldID, reservationTypeID int32, concurrency int16) error
	DeleteConcurrency(ctx context.Context, fieldID, reservationTypeID int32) error
	ListConcurrencyOverrides(ctx context.Context, fieldID int32) ([]models.FieldConcurrency, error)
	ListNonDefaultConcurrency(ctx context.Context) ([]models.FieldConcurrency, error)
}

// Repository implements field data access operations
type Repository struct {
	queries Querier
}

func NewRepository(querier Querier) *Repository {
	return &Repository{queries: querier}
}

func (r *Repository) CreateField(ctx context.Context, name string, regionID int32) (*models.Field, error) {
	canonical, err := validate.Name(name)
	if err != nil {
		return nil, err
	}
	field, err := r.queries.CreateField(ctx, canonical, regionID)
	if err != nil {
		return nil, fmt.Errorf("failed to create field: %w", err)
	}
	return &field, nil
}

func (r *Repository) GetField(ctx context.Context, id int32) (*models.Field, error) {
	field, err := r.queries.GetField(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get field: %w", err)
	}
	return &field, nil
}

func (r *Repository) ListFieldsOfRegion(ctx context.Context, regionID int32) ([]models.Field, error) {
	fields, err := r.queries.ListFieldsOfRegion(ctx, regionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	return fields, nil
}

func (r *Repository) ListFieldRegions(ctx context.Context) (map[int32]int32, error) {
	regions, err := r.queries.ListFieldRegions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to map fields to regions: %w", err)
	}
	return regions, nil
}

func (r *Repository) DeleteField(ctx context.Context, id int32) error {
	n, err := r.queries.DeleteField(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete field: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetConcurrency writes an override for the (field, type) pair. Setting the
// override equal to the type default still records a row; use
// ClearConcurrency to fall back to the default.
func (r *Repository) SetConcurrency(ctx context.Context, fieldID, reservationTypeID int32, concurrency int16) error {
	if concurrency < models.MinGamesPerFieldType || concurrency > models.MaxGamesPerFieldType {
		return &ConcurrencyBoundsError{Concurrency: concurrency}
	}
	if err := r.queries.UpsertConcurrency(ctx, fieldID, reservationTypeID, concurrency); err != nil {
		return fmt.Errorf("failed to set concurrency: %w", err)
	}
	return nil
}

func (r *Repository) ClearConcurrency(ctx context.Context, fieldID, reservationTypeID int32) error {
	if err := r.queries.DeleteConcurrency(ctx, fieldID, reservationTypeID); err != nil {
		return fmt.Errorf("failed to clear concurrency: %w", err)
	}
	return nil
}

func (r *Repository) ListConcurrencyOverrides(ctx context.Context, fieldID int32) ([]models.FieldConcurrency, error) {
	overrides, err := r.queries.ListConcurrencyOverrides(ctx, fieldID)
	if err != nil {
		return nil, fmt.Errorf("failed to list concurrency overrides: %w", err)
	}
	return overrides, nil
}

func (r *Repository) ListNonDefaultConcurrency(ctx context.Context) ([]models.FieldConcurrency, error) {
	overrides, err := r.queries.ListNonDefaultConcurrency(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list non-default concurrency: %w", err)
	}
	return overrides, nil
}
