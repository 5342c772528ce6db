package database

import (
	"context"

	"github.com/google/uuid"
)

const listLocations = `-- name: ListLocations :many
SELECT id, name, address, phone, is_active, created_at, updated_at
FROM locations
WHERE is_active = TRUE
ORDER BY name
`

func (q *Queries) ListLocations(ctx context.Context) ([]Location, error) {
	rows, err := q.db.Query(ctx, listLocations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Location
	for rows.Next() {
		var i Location
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Address,
			&i.Phone,
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

const getLocation = `-- name: GetLocation :one
SELECT id, name, address, phone, is_active, created_at, updated_at
FROM locations
WHERE id = $1 AND is_active = TRUE
`

func (q *Queries) GetLocation(ctx context.Context, id uuid.UUID) (Location, error) {
	row := q.db.QueryRow(ctx, getLocation, id)
	var i Location
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Address,
		&i.Phone,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createLocation = `-- name: CreateLocation :one
INSERT INTO locations (name, address, phone)
VALUES ($1, $2, $3)
RETURNING id, name, address, phone, is_active, created_at, updated_at
`

type CreateLocationParams struct {
	Name    string
	Address string
	Phone   string
}

func (q *Queries) CreateLocation(ctx context.Context, arg CreateLocationParams) (Location, error) {
	row := q.db.QueryRow(ctx, createLocation, arg.Name, arg.Address, arg.Phone)
	var i Location
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Address,
		&i.Phone,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateLocation = `-- name: UpdateLocation :one
UPDATE locations
SET name = $2, address = $3, phone = $4, updated_at = NOW()
WHERE id = $1 AND is_active = TRUE
RETURNING id, name, address, phone, is_active, created_at, updated_at
`

type UpdateLocationParams struct {
	ID      uuid.UUID
	Name    string
	Address string
	Phone   string
}

func (q *Queries) UpdateLocation(ctx context.Context, arg UpdateLocationParams) (Location, error) {
	row := q.db.QueryRow(ctx, updateLocation, arg.ID, arg.Name, arg.Address, arg.Phone)
	var i Location
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Address,
		&i.Phone,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const softDeleteLocation = `-- name: SoftDeleteLocation :one
UPDATE locations
SET is_active = FALSE, updated_at = NOW()
WHERE id = $1 AND is_active = TRUE
RETURNING id
`

func (q *Queries) SoftDeleteLocation(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteLocation, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
