package reservationtypes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/validate"
)

var (
	// ErrNotFound is returned for lookups and edits on a missing type.
	ErrNotFound = errors.New("reservation type not found")
	// ErrBadColor rejects colors that are not #rgb or #rrggbb.
	ErrBadColor = errors.New("color must be a hex value like #1a2b3c")
)

var colorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Querier defines what the repository needs from the database layer
type Querier interface {
	CreateReservationType(ctx context.Context, arg CreateParams) (models.ReservationType, error)
	GetReservationType(ctx context.Context, id int32) (models.ReservationType, error)
	ListReservationTypes(ctx context.Context) ([]models.ReservationType, error)
	UpdateReservationType(ctx context.Context, arg UpdateParams) (models.ReservationType, error)
	DeleteReservationType(ctx context.Context, id int32) (int64, error)
}

// Repository implements reservation-type data access operations
type Repository struct {
	queries Querier
}

func NewRepository(querier Querier) *Repository {
	return &Repository{queries: querier}
}

func checkBounds(concurrency int16) error {
	if concurrency < models.MinGamesPerFieldType || concurrency > models.MaxGamesPerFieldType {
		return fmt.Errorf("default concurrency %d out of range [%d, %d]",
			concurrency, models.MinGamesPerFieldType, models.MaxGamesPerFieldType)
	}
	return nil
}

func (r *Repository) CreateReservationType(ctx context.Context, arg CreateParams) (*models.ReservationType, error) {
	canonical, err := validate.Name(arg.Name)
	if err != nil {
		return nil, err
	}
	if !colorRe.MatchString(arg.Color) {
		return nil, ErrBadColor
	}
	if err := checkBounds(arg.DefaultConcurrency); err != nil {
		return nil, err
	}

	arg.Name = canonical
	rt, err := r.queries.CreateReservationType(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to create reservation type: %w", err)
	}
	return &rt, nil
}

func (r *Repository) GetReservationType(ctx context.Context, id int32) (*models.ReservationType, error) {
	rt, err := r.queries.GetReservationType(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation type: %w", err)
	}
	return &rt, nil
}

func (r *Repository) ListReservationTypes(ctx context.Context) ([]models.ReservationType, error) {
	types, err := r.queries.ListReservationTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservation types: %w", err)
	}
	return types, nil
}

func (r *Repository) EditReservationType(ctx context.Context, arg UpdateParams) (*models.ReservationType, error) {
	canonical, err := validate.Name(arg.Name)
	if err != nil {
		return nil, err
	}
	if !colorRe.MatchString(arg.Color) {
		return nil, ErrBadColor
	}
	if err := checkBounds(arg.DefaultConcurrency); err != nil {
		return nil, err
	}

	arg.Name = canonical
	rt, err := r.queries.UpdateReservationType(ctx, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to edit reservation type: %w", err)
	}
	return &rt, nil
}

func (r *Repository) DeleteReservationType(ctx context.Context, id int32) error {
	n, err := r.queries.DeleteReservationType(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete reservation type: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
