package teams

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/sqlutil"
)

// Queries is the database layer for teams and their group memberships.
type Queries struct {
	db sqlutil.DBTX
}

func New(db sqlutil.DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) CreateTeam(ctx context.Context, name string, regionID int32) (models.Team, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO team (name, region_id) VALUES ($1, $2)
		 RETURNING id, name, region_id`, name, regionID)
	var team models.Team
	err := row.Scan(&team.ID, &team.Name, &team.RegionID)
	return team, err
}

func (q *Queries) GetTeam(ctx context.Context, id int32) (models.Team, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, name, region_id FROM team WHERE id = $1`, id)
	var team models.Team
	err := row.Scan(&team.ID, &team.Name, &team.RegionID)
	return team, err
}

func (q *Queries) UpdateTeamName(ctx context.Context, id int32, name string) (models.Team, error) {
	row := q.db.QueryRowContext(ctx,
		`UPDATE team SET name = $2 WHERE id = $1 RETURNING id, name, region_id`, id, name)
	var team models.Team
	err := row.Scan(&team.ID, &team.Name, &team.RegionID)
	return team, err
}

func (q *Queries) DeleteTeam(ctx context.Context, id int32) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM team WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ResolveGroups maps group names to rows, reporting which names are missing.
func (q *Queries) ResolveGroups(ctx context.Context, names []string) ([]models.TeamGroup, []string, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name FROM team_group WHERE name = ANY($1)`, pq.Array(names))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	found := make(map[string]models.TeamGroup, len(names))
	for rows.Next() {
		var group models.TeamGroup
		if err := rows.Scan(&group.ID, &group.Name); err != nil {
			return nil, nil, err
		}
		found[group.Name] = group
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var groups []models.TeamGroup
	var missing []string
	for _, name := range names {
		if group, ok := found[name]; ok {
			groups = append(groups, group)
		} else {
			missing = append(missing, name)
		}
	}
	return groups, missing, nil
}

func (q *Queries) SetTeamGroups(ctx context.Context, teamID int32, groupIDs []int32) error {
	if _, err := q.db.ExecContext(ctx,
		`DELETE FROM team_group_join WHERE team = $1`, teamID); err != nil {
		return err
	}
	if len(groupIDs) == 0 {
		return nil
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO team_group_join (team, team_group)
		SELECT $1, unnest($2::int[])`, teamID, pq.Array(groupIDs))
	return err
}

// listExtensions scans team rows joined with their group tags, aggregated as
// parallel arrays.
func (q *Queries) listExtensions(ctx context.Context, where string, args ...any) ([]models.TeamExtension, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT
			t.id, t.name, t.region_id,
			COALESCE(array_agg(g.id) FILTER (WHERE g.id IS NOT NULL), '{}'),
			COALESCE(array_agg(g.name) FILTER (WHERE g.id IS NOT NULL), '{}')
		FROM team t
		LEFT JOIN team_group_join j ON j.team = t.id
		LEFT JOIN team_group g ON g.id = j.team_group
		`+where+`
		GROUP BY t.id, t.name, t.region_id
		ORDER BY t.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TeamExtension
	for rows.Next() {
		var ext models.TeamExtension
		var groupIDs []int64
		var groupNames []string
		if err := rows.Scan(
			&ext.Team.ID, &ext.Team.Name, &ext.Team.RegionID,
			pq.Array(&groupIDs), pq.Array(&groupNames),
		); err != nil {
			return nil, err
		}
		for i := range groupIDs {
			ext.Groups = append(ext.Groups, models.TeamGroup{
				ID:   int32(groupIDs[i]),
				Name: groupNames[i],
			})
		}
		out = append(out, ext)
	}
	return out, rows.Err()
}

func (q *Queries) ListTeamsOfRegion(ctx context.Context, regionID int32) ([]models.TeamExtension, error) {
	return q.listExtensions(ctx, "WHERE t.region_id = $1", regionID)
}

func (q *Queries) ListAllTeams(ctx context.Context) ([]models.TeamExtension, error) {
	return q.listExtensions(ctx, "")
}

func (q *Queries) GetTeamExtension(ctx context.Context, id int32) (models.TeamExtension, error) {
	exts, err := q.listExtensions(ctx, "WHERE t.id = $1", id)
	if err != nil {
		return models.TeamExtension{}, err
	}
	if len(exts) == 0 {
		return models.TeamExtension{}, sql.ErrNoRows
	}
	return exts[0], nil
}
