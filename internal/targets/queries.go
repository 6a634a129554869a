package targets

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/sqlutil"
)

// Queries is the database layer for scheduling targets.
type Queries struct {
	db sqlutil.DBTX
}

func New(db sqlutil.DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) CreateTarget(ctx context.Context) (models.Target, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO target DEFAULT VALUES RETURNING id, reservation_type_id`)
	var target models.Target
	var rtID sql.NullInt32
	if err := row.Scan(&target.ID, &rtID); err != nil {
		return models.Target{}, err
	}
	target.ReservationTypeID = sqlutil.FromSqlInt32Ptr(rtID)
	return target, nil
}

func (q *Queries) GroupExists(ctx context.Context, groupID int32) (bool, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM team_group WHERE id = $1)`, groupID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

func (q *Queries) AddTargetGroup(ctx context.Context, targetID, groupID int32) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO target_group_join (target, team_group)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, targetID, groupID)
	return err
}

func (q *Queries) RemoveTargetGroup(ctx context.Context, targetID, groupID int32) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM target_group_join WHERE target = $1 AND team_group = $2`,
		targetID, groupID)
	return err
}

func (q *Queries) SetTargetReservationType(ctx context.Context, targetID int32, rtID *int32) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE target SET reservation_type_id = $2 WHERE id = $1`,
		targetID, sqlutil.ToSqlInt32(rtID))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteTarget(ctx context.Context, id int32) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM target WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListTargetExtensions returns every target with its resolved groups.
func (q *Queries) ListTargetExtensions(ctx context.Context) ([]models.TargetExtension, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT
			t.id, t.reservation_type_id,
			COALESCE(array_agg(g.id) FILTER (WHERE g.id IS NOT NULL), '{}'),
			COALESCE(array_agg(g.name) FILTER (WHERE g.id IS NOT NULL), '{}')
		FROM target t
		LEFT JOIN target_group_join j ON j.target = t.id
		LEFT JOIN team_group g ON g.id = j.team_group
		GROUP BY t.id, t.reservation_type_id
		ORDER BY t.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TargetExtension
	for rows.Next() {
		var ext models.TargetExtension
		var rtID sql.NullInt32
		var groupIDs []int64
		var groupNames []string
		if err := rows.Scan(&ext.Target.ID, &rtID, pq.Array(&groupIDs), pq.Array(&groupNames)); err != nil {
			return nil, err
		}
		ext.Target.ReservationTypeID = sqlutil.FromSqlInt32Ptr(rtID)
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
