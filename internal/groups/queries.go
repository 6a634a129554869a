package groups

import (
	"context"

	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/sqlutil"
)

// Queries is the database layer for team groups.
type Queries struct {
	db sqlutil.DBTX
}

func New(db sqlutil.DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) CreateGroup(ctx context.Context, name string) (models.TeamGroup, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO team_group (name) VALUES ($1) RETURNING id, name`, name)
	var group models.TeamGroup
	err := row.Scan(&group.ID, &group.Name)
	return group, err
}

func (q *Queries) GroupExists(ctx context.Context, name string) (bool, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM team_group WHERE name = $1)`, name)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

func (q *Queries) ListGroups(ctx context.Context) ([]models.TeamGroup, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT g.id, g.name, COUNT(j.team)
		FROM team_group g
		LEFT JOIN team_group_join j ON j.team_group = g.id
		GROUP BY g.id, g.name
		ORDER BY g.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []models.TeamGroup
	for rows.Next() {
		var group models.TeamGroup
		if err := rows.Scan(&group.ID, &group.Name, &group.Usage); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (q *Queries) DeleteGroup(ctx context.Context, id int32) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM team_group WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
