package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listServices = `-- name: ListServices :many
SELECT id, name, price, unit, description, duration_hours, is_active, created_at, updated_at
FROM services
WHERE is_active = TRUE
ORDER BY name
`

func (q *Queries) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := q.db.Query(ctx, listServices)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Service
	for rows.Next() {
		var i Service
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Price,
			&i.Unit,
			&i.Description,
			&i.DurationHours,
			&i.IsActive,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getService = `-- name: GetService :one
SELECT id, name, price, unit, description, duration_hours, is_active, created_at, updated_at
FROM services
WHERE id = $1 AND is_active = TRUE
`

func (q *Queries) GetService(ctx context.Context, id uuid.UUID) (Service, error) {
	row := q.db.QueryRow(ctx, getService, id)
	var i Service
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Price,
		&i.Unit,
		&i.Description,
		&i.DurationHours,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createService = `-- name: CreateService :one
INSERT INTO services (name, price, unit, description, duration_hours)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, name, price, unit, description, duration_hours, is_active, created_at, updated_at
`

type CreateServiceParams struct {
	Name          string
	Price         pgtype.Numeric
	Unit          string
	Description   pgtype.Text
	DurationHours int32
}

func (q *Queries) CreateService(ctx context.Context, arg CreateServiceParams) (Service, error) {
	row := q.db.QueryRow(ctx, createService,
		arg.Name,
		arg.Price,
		arg.Unit,
		arg.Description,
		arg.DurationHours,
	)
	var i Service
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Price,
		&i.Unit,
		&i.Description,
		&i.DurationHours,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateService = `-- name: UpdateService :one
UPDATE services
SET name = $2, price = $3, unit = $4, description = $5, duration_hours = $6, updated_at = NOW()
WHERE id = $1 AND is_active = TRUE
RETURNING id, name, price, unit, description, duration_hours, is_active, created_at, updated_at
`

type UpdateServiceParams struct {
	ID            uuid.UUID
	Name          string
	Price         pgtype.Numeric
	Unit          string
	Description   pgtype.Text
	DurationHours int32
}

func (q *Queries) UpdateService(ctx context.Context, arg UpdateServiceParams) (Service, error) {
	row := q.db.QueryRow(ctx, updateService,
		arg.ID,
		arg.Name,
		arg.Price,
		arg.Unit,
		arg.Description,
		arg.DurationHours,
	)
	var i Service
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Price,
		&i.Unit,
		&i.Description,
		&i.DurationHours,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const softDeleteService = `-- name: SoftDeleteService :one
UPDATE services
SET is_active = FALSE, updated_at = NOW()
WHERE id = $1 AND is_active = TRUE
RETURNING id
`

func (q *Queries) SoftDeleteService(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteService, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
