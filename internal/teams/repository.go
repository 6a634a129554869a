package teams

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/sqlutil"
	"github.com/mrodz/fieldz/internal/validate"
)

// ErrNotFound is returned for lookups and edits on a missing team.
var ErrNotFound = errors.New("team not found")

// MissingTagsError reports group tags a create or edit referenced that do
// not exist.
type MissingTagsError struct {
	Tags []string
}

func (e *MissingTagsError) Error() string {
	return fmt.Sprintf("the following tags do not exist: %v", e.Tags)
}

// Querier defines what the repository needs from the database layer
type Querier interface {
	CreateTeam(ctx context.Context, name string, regionID int32) (models.Team, error)
	GetTeam(ctx context.Context, id int32) (models.Team, error)
	UpdateTeamName(ctx context.Context, id int32, name string) (models.Team, error)
	DeleteTeam(ctx context.Context, id int32) (int64, error)
	ResolveGroups(ctx context.Context, names []string) ([]models.TeamGroup, []string, error)
	SetTeamGroups(ctx context.Context, teamID int32, groupIDs []int32) error
	ListTeamsOfRegion(ctx context.Context, regionID int32) ([]models.TeamExtension, error)
	ListAllTeams(ctx context.Context) ([]models.TeamExtension, error)
	GetTeamExtension(ctx context.Context, id int32) (models.TeamExtension, error)
}

// Repository implements team data access operations. Mutations that touch
// the group join table run inside a transaction.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) queries() Querier {
	return New(r.db)
}

// CreateTeamRequest names the team, its region, and its group tags.
type CreateTeamRequest struct {
	Name     string   `json:"name"`
	RegionID int32    `json:"region_id"`
	Tags     []string `json:"tags"`
}

// CreateTeam validates the name, resolves every tag, and writes the team and
// its joins atomically.
func (r *Repository) CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.TeamExtension, error) {
	canonical, err := validate.Name(req.Name)
	if err != nil {
		return nil, err
	}

	var ext models.TeamExtension
	err = sqlutil.Run(ctx, r.db, newQueriesTx, func(q *Queries) error {
		groups, missing, err := q.ResolveGroups(ctx, normalizeTags(req.Tags))
		if err != nil {
			return fmt.Errorf("failed to resolve tags: %w", err)
		}
		if len(missing) > 0 {
			return &MissingTagsError{Tags: missing}
		}

		team, err := q.CreateTeam(ctx, canonical, req.RegionID)
		if err != nil {
			return fmt.Errorf("failed to create team: %w", err)
		}

		ids := make([]int32, len(groups))
		for i, g := range groups {
			ids[i] = g.ID
		}
		if err := q.SetTeamGroups(ctx, team.ID, ids); err != nil {
			return fmt.Errorf("failed to tag team: %w", err)
		}

		ext = models.TeamExtension{Team: team, Groups: groups}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ext, nil
}

// EditTeamRequest applies a partial update; nil fields are untouched.
type EditTeamRequest struct {
	ID   int32     `json:"id"`
	Name *string   `json:"name,omitempty"`
	Tags *[]string `json:"tags,omitempty"`
}

func (r *Repository) EditTeam(ctx context.Context, req EditTeamRequest) (*models.TeamExtension, error) {
	var canonical string
	if req.Name != nil {
		var err error
		if canonical, err = validate.Name(*req.Name); err != nil {
			return nil, err
		}
	}

	var ext models.TeamExtension
	err := sqlutil.Run(ctx, r.db, newQueriesTx, func(q *Queries) error {
		if _, err := q.GetTeam(ctx, req.ID); errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		} else if err != nil {
			return fmt.Errorf("failed to load team: %w", err)
		}

		if req.Name != nil {
			if _, err := q.UpdateTeamName(ctx, req.ID, canonical); err != nil {
				return fmt.Errorf("failed to rename team: %w", err)
			}
		}

		if req.Tags != nil {
			groups, missing, err := q.ResolveGroups(ctx, normalizeTags(*req.Tags))
			if err != nil {
				return fmt.Errorf("failed to resolve tags: %w", err)
			}
			if len(missing) > 0 {
				return &MissingTagsError{Tags: missing}
			}
			ids := make([]int32, len(groups))
			for i, g := range groups {
				ids[i] = g.ID
			}
			if err := q.SetTeamGroups(ctx, req.ID, ids); err != nil {
				return fmt.Errorf("failed to retag team: %w", err)
			}
		}

		var err error
		ext, err = q.GetTeamExtension(ctx, req.ID)
		if err != nil {
			return fmt.Errorf("failed to reload team: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ext, nil
}

func (r *Repository) GetTeam(ctx context.Context, id int32) (*models.TeamExtension, error) {
	ext, err := r.queries().GetTeamExtension(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &ext, nil
}

func (r *Repository) ListTeamsOfRegion(ctx context.Context, regionID int32) ([]models.TeamExtension, error) {
	teams, err := r.queries().ListTeamsOfRegion(ctx, regionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

func (r *Repository) ListAllTeams(ctx context.Context) ([]models.TeamExtension, error) {
	teams, err := r.queries().ListAllTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list all teams: %w", err)
	}
	return teams, nil
}

func (r *Repository) DeleteTeam(ctx context.Context, id int32) error {
	n, err := r.queries().DeleteTeam(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func newQueriesTx(tx sqlutil.DBTX) *Queries {
	return New(tx)
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		normalized, err := validate.GroupName(tag)
		if err != nil || seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	return out
}
