package fields

import (
	"context"
	"database/sql"

	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/sqlutil"
)

// Queries is the database layer for fields and their concurrency overrides.
type Queries struct {
	db sqlutil.DBTX
}

func New(db sqlutil.DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) CreateField(ctx context.Context, name string, regionID int32) (models.Field, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO field (name, region_id) VALUES ($1, $2)
		 RETURNING id, name, region_id`, name, regionID)
	var field models.Field
	err := row.Scan(&field.ID, &field.Name, &field.RegionID)
	return field, err
}

func (q *Queries) GetField(ctx context.Context, id int32) (models.Field, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, name, region_id FROM field WHERE id = $1`, id)
	var field models.Field
	err := row.Scan(&field.ID, &field.Name, &field.RegionID)
	return field, err
}

func (q *Queries) ListFieldsOfRegion(ctx context.Context, regionID int32) ([]models.Field, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, region_id FROM field WHERE region_id = $1 ORDER BY id`, regionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []models.Field
	for rows.Next() {
		var field models.Field
		if err := rows.Scan(&field.ID, &field.Name, &field.RegionID); err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, rows.Err()
}

// ListFieldRegions maps every field id to its owning region id.
func (q *Queries) ListFieldRegions(ctx context.Context) (map[int32]int32, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, region_id FROM field`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int32]int32)
	for rows.Next() {
		var fieldID, regionID int32
		if err := rows.Scan(&fieldID, &regionID); err != nil {
			return nil, err
		}
		out[fieldID] = regionID
	}
	return out, rows.Err()
}

func (q *Queries) DeleteField(ctx context.Context, id int32) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM field WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) UpsertConcurrency(ctx context.Context, fieldID, reservationTypeID int32, concurrency int16) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO field_concurrency (field_id, reservation_type_id, concurrency)
		VALUES ($1, $2, $3)
		ON CONFLICT (field_id, reservation_type_id)
		DO UPDATE SET concurrency = EXCLUDED.concurrency`,
		fieldID, reservationTypeID, concurrency)
	return err
}

func (q *Queries) DeleteConcurrency(ctx context.Context, fieldID, reservationTypeID int32) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM field_concurrency WHERE field_id = $1 AND reservation_type_id = $2`,
		fieldID, reservationTypeID)
	return err
}

func (q *Queries) ListConcurrencyOverrides(ctx context.Context, fieldID int32) ([]models.FieldConcurrency, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT field_id, reservation_type_id, concurrency
		FROM field_concurrency WHERE field_id = $1
		ORDER BY reservation_type_id`, fieldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanConcurrencies(rows)
}

// ListNonDefaultConcurrency reports every override in the profile whose
// concurrency differs from its reservation type's default, for the settings
// screen.
func (q *Queries) ListNonDefaultConcurrency(ctx context.Context) ([]models.FieldConcurrency, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT fc.field_id, fc.reservation_type_id, fc.concurrency
		FROM field_concurrency fc
		JOIN reservation_type rt ON rt.id = fc.reservation_type_id
		WHERE fc.concurrency <> rt.default_concurrency
		ORDER BY fc.field_id, fc.reservation_type_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanConcurrencies(rows)
}

func scanConcurrencies(rows *sql.Rows) ([]models.FieldConcurrency, error) {
	var out []models.FieldConcurrency
	for rows.Next() {
		fc := models.FieldConcurrency{Custom: true}
		if err := rows.Scan(&fc.FieldID, &fc.ReservationTypeID, &fc.Concurrency); err != nil {
			return nil, err
		}
		out = append(out, fc)
	}
	return out, rows.Err()
}
