package regions

import (
	"context"

	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/sqlutil"
)

// Queries is the database layer for regions.
type Queries struct {
	db sqlutil.DBTX
}

func New(db sqlutil.DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) CreateRegion(ctx context.Context, title string) (models.Region, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO region (title) VALUES ($1) RETURNING id, title`, title)
	var region models.Region
	err := row.Scan(&region.ID, &region.Title)
	return region, err
}

func (q *Queries) GetRegion(ctx context.Context, id int32) (models.Region, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, title FROM region WHERE id = $1`, id)
	var region models.Region
	err := row.Scan(&region.ID, &region.Title)
	return region, err
}

func (q *Queries) ListRegions(ctx context.Context) ([]models.Region, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, title FROM region ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regions []models.Region
	for rows.Next() {
		var region models.Region
		if err := rows.Scan(&region.ID, &region.Title); err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}
	return regions, rows.Err()
}

func (q *Queries) UpdateRegionTitle(ctx context.Context, id int32, title string) (models.Region, error) {
	row := q.db.QueryRowContext(ctx,
		`UPDATE region SET title = $2 WHERE id = $1 RETURNING id, title`, id, title)
	var region models.Region
	err := row.Scan(&region.ID, &region.Title)
	return region, err
}

func (q *Queries) DeleteRegion(ctx context.Context, id int32) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM region WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) GetRegionMetadata(ctx context.Context, id int32) (models.RegionMetadata, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT
			r.id,
			(SELECT COUNT(*) FROM team t WHERE t.region_id = r.id),
			(SELECT COUNT(*) FROM field f WHERE f.region_id = r.id),
			(SELECT COUNT(*) FROM time_slot ts
				JOIN field f ON f.id = ts.field_id
				WHERE f.region_id = r.id)
		FROM region r WHERE r.id = $1`, id)
	var meta models.RegionMetadata
	err := row.Scan(&meta.RegionID, &meta.TeamCount, &meta.FieldCount, &meta.TimeSlots)
	return meta, err
}
