package conflicts

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/sqlutil"
)

// Queries is the database layer for coach conflicts.
type Queries struct {
	db sqlutil.DBTX
}

func New(db sqlutil.DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) CreateConflict(ctx context.Context, regionID int32, coachName *string) (models.CoachConflict, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO coach_conflict (region_id, coach_name)
		VALUES ($1, $2) RETURNING id, region_id, coach_name`,
		regionID, sqlutil.ToSqlString(coachName))
	var conflict models.CoachConflict
	var name sql.NullString
	if err := row.Scan(&conflict.ID, &conflict.RegionID, &name); err != nil {
		return models.CoachConflict{}, err
	}
	conflict.CoachName = sqlutil.FromSqlStringPtr(name)
	return conflict, nil
}

func (q *Queries) RenameConflict(ctx context.Context, id int32, coachName *string) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE coach_conflict SET coach_name = $2 WHERE id = $1`,
		id, sqlutil.ToSqlString(coachName))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteConflict(ctx context.Context, id int32) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM coach_conflict WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) GetConflictRegion(ctx context.Context, id int32) (int32, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT region_id FROM coach_conflict WHERE id = $1`, id)
	var regionID int32
	err := row.Scan(&regionID)
	return regionID, err
}

func (q *Queries) GetTeamRegion(ctx context.Context, teamID int32) (int32, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT region_id FROM team WHERE id = $1`, teamID)
	var regionID int32
	err := row.Scan(&regionID)
	return regionID, err
}

func (q *Queries) AddConflictTeam(ctx context.Context, conflictID, teamID int32) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO coach_conflict_team_join (coach_conflict, team)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, conflictID, teamID)
	return err
}

func (q *Queries) RemoveConflictTeam(ctx context.Context, conflictID, teamID int32) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM coach_conflict_team_join WHERE coach_conflict = $1 AND team = $2`,
		conflictID, teamID)
	return err
}

func (q *Queries) listConflicts(ctx context.Context, where string, args ...any) ([]models.CoachConflict, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT
			c.id, c.region_id, c.coach_name,
			COALESCE(array_agg(t.id) FILTER (WHERE t.id IS NOT NULL), '{}'),
			COALESCE(array_agg(t.name) FILTER (WHERE t.id IS NOT NULL), '{}'),
			COALESCE(array_agg(t.region_id) FILTER (WHERE t.id IS NOT NULL), '{}')
		FROM coach_conflict c
		LEFT JOIN coach_conflict_team_join j ON j.coach_conflict = c.id
		LEFT JOIN team t ON t.id = j.team
		`+where+`
		GROUP BY c.id, c.region_id, c.coach_name
		ORDER BY c.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CoachConflict
	for rows.Next() {
		var conflict models.CoachConflict
		var name sql.NullString
		var teamIDs, teamRegions []int64
		var teamNames []string
		if err := rows.Scan(
			&conflict.ID, &conflict.RegionID, &name,
			pq.Array(&teamIDs), pq.Array(&teamNames), pq.Array(&teamRegions),
		); err != nil {
			return nil, err
		}
		conflict.CoachName = sqlutil.FromSqlStringPtr(name)
		for i := range teamIDs {
			conflict.Teams = append(conflict.Teams, models.Team{
				ID:       int32(teamIDs[i]),
				Name:     teamNames[i],
				RegionID: int32(teamRegions[i]),
			})
		}
		out = append(out, conflict)
	}
	return out, rows.Err()
}

func (q *Queries) ListConflictsOfRegion(ctx context.Context, regionID int32) ([]models.CoachConflict, error) {
	return q.listConflicts(ctx, "WHERE c.region_id = $1", regionID)
}

func (q *Queries) ListAllConflicts(ctx context.Context) ([]models.CoachConflict, error) {
	return q.listConflicts(ctx, "")
}
