package groups

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/validate"
)

var (
	// ErrDuplicateTag rejects a second group with the same normalized name.
	ErrDuplicateTag = errors.New("this tag already exists")
	// ErrNotFound is returned when deleting a missing group.
	ErrNotFound = errors.New("group not found")
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	CreateGroup(ctx context.Context, name string) (models.TeamGroup, error)
	GroupExists(ctx context.Context, name string) (bool, error)
	ListGroups(ctx context.Context) ([]models.TeamGroup, error)
	DeleteGroup(ctx context.Context, id int32) (int64, error)
}

// Repository implements team-group data access operations
type Repository struct {
	queries Querier
}

func NewRepository(querier Querier) *Repository {
	return &Repository{queries: querier}
}

// CreateGroup normalizes the tag to lowercase and rejects duplicates.
func (r *Repository) CreateGroup(ctx context.Context, name string) (*models.TeamGroup, error) {
	canonical, err := validate.GroupName(name)
	if err != nil {
		return nil, err
	}

	exists, err := r.queries.GroupExists(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate tag: %w", err)
	}
	if exists {
		return nil, ErrDuplicateTag
	}

	group, err := r.queries.CreateGroup(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return &group, nil
}

func (r *Repository) ListGroups(ctx context.Context) ([]models.TeamGroup, error) {
	groups, err := r.queries.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

func (r *Repository) DeleteGroup(ctx context.Context, id int32) error {
	n, err := r.queries.DeleteGroup(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
