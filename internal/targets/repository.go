package targets

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrodz/fieldz/internal/models"
)

var (
	// ErrNotFound is returned for operations on a missing target.
	ErrNotFound = errors.New("target not found")
	// ErrGroupNotFound is returned when a group op references a missing group.
	ErrGroupNotFound = errors.New("group not found")
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	CreateTarget(ctx context.Context) (models.Target, error)
	GroupExists(ctx context.Context, groupID int32) (bool, error)
	AddTargetGroup(ctx context.Context, targetID, groupID int32) error
	RemoveTargetGroup(ctx context.Context, targetID, groupID int32) error
	SetTargetReservationType(ctx context.Context, targetID int32, rtID *int32) (int64, error)
	DeleteTarget(ctx context.Context, id int32) (int64, error)
	ListTargetExtensions(ctx context.Context) ([]models.TargetExtension, error)
}

// Repository implements target data access operations
type Repository struct {
	queries Querier
}

func NewRepository(querier Querier) *Repository {
	return &Repository{queries: querier}
}

// CreateTarget inserts an empty target; groups arrive via GroupOp.
func (r *Repository) CreateTarget(ctx context.Context) (*models.TargetExtension, error) {
	target, err := r.queries.CreateTarget(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create target: %w", err)
	}
	return &models.TargetExtension{Target: target}, nil
}

// GroupOp adds or removes a group from a target's required set.
func (r *Repository) GroupOp(ctx context.Context, targetID, groupID int32, op models.TargetOp) error {
	exists, err := r.queries.GroupExists(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to check group: %w", err)
	}
	if !exists {
		return ErrGroupNotFound
	}

	switch op {
	case models.TargetOpInsert:
		err = r.queries.AddTargetGroup(ctx, targetID, groupID)
	case models.TargetOpDelete:
		err = r.queries.RemoveTargetGroup(ctx, targetID, groupID)
	default:
		return fmt.Errorf("unknown target op %d", op)
	}
	if err != nil {
		return fmt.Errorf("failed to apply group op: %w", err)
	}
	return nil
}

// SetReservationType updates the optional filter; nil clears it.
func (r *Repository) SetReservationType(ctx context.Context, targetID int32, rtID *int32) error {
	n, err := r.queries.SetTargetReservationType(ctx, targetID, rtID)
	if err != nil {
		return fmt.Errorf("failed to set target reservation type: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ListTargets(ctx context.Context) ([]models.TargetExtension, error) {
	targets, err := r.queries.ListTargetExtensions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	return targets, nil
}

func (r *Repository) DeleteTarget(ctx context.Context, id int32) error {
	n, err := r.queries.DeleteTarget(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete target: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
