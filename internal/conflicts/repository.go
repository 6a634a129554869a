package conflicts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/validate"
)

var (
	// ErrNotFound is returned for operations on a missing conflict.
	ErrNotFound = errors.New("coach conflict not found")
	// ErrTeamNotFound is returned when a membership op references a
	// missing team.
	ErrTeamNotFound = errors.New("team not found")
	// ErrWrongRegion rejects adding a team from outside the conflict's
	// region.
	ErrWrongRegion = errors.New("team does not belong to the conflict's region")
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	CreateConflict(ctx context.Context, regionID int32, coachName *string) (models.CoachConflict, error)
	RenameConflict(ctx context.Context, id int32, coachName *string) (int64, error)
	DeleteConflict(ctx context.Context, id int32) (int64, error)
	GetConflictRegion(ctx context.Context, id int32) (int32, error)
	GetTeamRegion(ctx context.Context, teamID int32) (int32, error)
	AddConflictTeam(ctx context.Context, conflictID, teamID int32) error
	RemoveConflictTeam(ctx context.Context, conflictID, teamID int32) error
	ListConflictsOfRegion(ctx context.Context, regionID int32) ([]models.CoachConflict, error)
	ListAllConflicts(ctx context.Context) ([]models.CoachConflict, error)
}

// Repository implements coach-conflict data access operations
type Repository struct {
	queries Querier
}

func NewRepository(querier Querier) *Repository {
	return &Repository{queries: querier}
}

func (r *Repository) CreateConflict(ctx context.Context, regionID int32, coachName *string) (*models.CoachConflict, error) {
	if coachName != nil {
		canonical, err := validate.Name(*coachName)
		if err != nil {
			return nil, err
		}
		coachName = &canonical
	}
	conflict, err := r.queries.CreateConflict(ctx, regionID, coachName)
	if err != nil {
		return nil, fmt.Errorf("failed to create coach conflict: %w", err)
	}
	return &conflict, nil
}

// Rename sets or clears the coach label.
func (r *Repository) Rename(ctx context.Context, id int32, coachName *string) error {
	if coachName != nil {
		canonical, err := validate.Name(*coachName)
		if err != nil {
			return err
		}
		coachName = &canonical
	}
	n, err := r.queries.RenameConflict(ctx, id, coachName)
	if err != nil {
		return fmt.Errorf("failed to rename coach conflict: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// TeamOp adds or removes a team. Members must belong to the conflict's
// region.
func (r *Repository) TeamOp(ctx context.Context, conflictID, teamID int32, op models.ConflictTeamOp) error {
	conflictRegion, err := r.queries.GetConflictRegion(ctx, conflictID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load conflict: %w", err)
	}

	teamRegion, err := r.queries.GetTeamRegion(ctx, teamID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTeamNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load team: %w", err)
	}

	switch op {
	case models.ConflictTeamOpInsert:
		if teamRegion != conflictRegion {
			return ErrWrongRegion
		}
		err = r.queries.AddConflictTeam(ctx, conflictID, teamID)
	case models.ConflictTeamOpDelete:
		err = r.queries.RemoveConflictTeam(ctx, conflictID, teamID)
	default:
		return fmt.Errorf("unknown conflict team op %d", op)
	}
	if err != nil {
		return fmt.Errorf("failed to apply conflict team op: %w", err)
	}
	return nil
}

func (r *Repository) ListConflictsOfRegion(ctx context.Context, regionID int32) ([]models.CoachConflict, error) {
	conflicts, err := r.queries.ListConflictsOfRegion(ctx, regionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list coach conflicts: %w", err)
	}
	return conflicts, nil
}

func (r *Repository) ListAllConflicts(ctx context.Context) ([]models.CoachConflict, error) {
	conflicts, err := r.queries.ListAllConflicts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list coach conflicts: %w", err)
	}
	return conflicts, nil
}

func (r *Repository) DeleteConflict(ctx context.Context, id int32) error {
	n, err := r.queries.DeleteConflict(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete coach conflict: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
