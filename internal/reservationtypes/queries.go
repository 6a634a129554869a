package reservationtypes

import (
	"context"

	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/sqlutil"
)

// Queries is the database layer for reservation types.
type Queries struct {
	db sqlutil.DBTX
}

func New(db sqlutil.DBTX) *Queries {
	return &Queries{db: db}
}

const columns = `id, name, color, description, default_concurrency, is_practice`

func scanType(row interface{ Scan(...any) error }) (models.ReservationType, error) {
	var rt models.ReservationType
	err := row.Scan(&rt.ID, &rt.Name, &rt.Color, &rt.Description, &rt.DefaultConcurrency, &rt.IsPractice)
	return rt, err
}

type CreateParams struct {
	Name               string
	Color              string
	Description        *string
	DefaultConcurrency int16
	IsPractice         bool
}

func (q *Queries) CreateReservationType(ctx context.Context, arg CreateParams) (models.ReservationType, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO reservation_type (name, color, description, default_concurrency, is_practice)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+columns,
		arg.Name, arg.Color, sqlutil.ToSqlString(arg.Description), arg.DefaultConcurrency, arg.IsPractice)
	return scanType(row)
}

func (q *Queries) GetReservationType(ctx context.Context, id int32) (models.ReservationType, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM reservation_type WHERE id = $1`, id)
	return scanType(row)
}

func (q *Queries) ListReservationTypes(ctx context.Context) ([]models.ReservationType, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+columns+` FROM reservation_type ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []models.ReservationType
	for rows.Next() {
		rt, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, rt)
	}
	return types, rows.Err()
}

type UpdateParams struct {
	ID                 int32
	Name               string
	Color              string
	Description        *string
	DefaultConcurrency int16
	IsPractice         bool
}

func (q *Queries) UpdateReservationType(ctx context.Context, arg UpdateParams) (models.ReservationType, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE reservation_type
		SET name = $2, color = $3, description = $4, default_concurrency = $5, is_practice = $6
		WHERE id = $1
		RETURNING `+columns,
		arg.ID, arg.Name, arg.Color, sqlutil.ToSqlString(arg.Description), arg.DefaultConcurrency, arg.IsPractice)
	return scanType(row)
}

func (q *Queries) DeleteReservationType(ctx context.Context, id int32) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM reservation_type WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
