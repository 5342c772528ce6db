package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT id, location_id, full_name, email, hashed_password, role, is_approved, is_active, created_at, updated_at
FROM users
WHERE email = $1 AND is_active = TRUE
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(
		&i.ID,
		&i.LocationID,
		&i.FullName,
		&i.Email,
		&i.HashedPassword,
		&i.Role,
		&i.IsApproved,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, location_id, full_name, email, hashed_password, role, is_approved, is_active, created_at, updated_at
FROM users
WHERE id = $1 AND is_active = TRUE
`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	var i User
	err := row.Scan(
		&i.ID,
		&i.LocationID,
		&i.FullName,
		&i.Email,
		&i.HashedPassword,
		&i.Role,
		&i.IsApproved,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listUsers = `-- name: ListUsers :many
SELECT id, location_id, full_name, email, hashed_password, role, is_approved, is_active, created_at, updated_at
FROM users
WHERE is_active = TRUE
ORDER BY created_at DESC
`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		var i User
		if err := rows.Scan(
			&i.ID,
			&i.LocationID,
			&i.FullName,
			&i.Email,
			&i.HashedPassword,
			&i.Role,
			&i.IsApproved,
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

const createUser = `-- name: CreateUser :one
INSERT INTO users (location_id, full_name, email, hashed_password, role, is_approved)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, location_id, full_name, email, hashed_password, role, is_approved, is_active, created_at, updated_at
`

type CreateUserParams struct {
	LocationID     pgtype.UUID
	FullName       string
	Email          string
	HashedPassword string
	Role           string
	IsApproved     bool
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser,
		arg.LocationID,
		arg.FullName,
		arg.Email,
		arg.HashedPassword,
		arg.Role,
		arg.IsApproved,
	)
	var i User
	err := row.Scan(
		&i.ID,
		&i.LocationID,
		&i.FullName,
		&i.Email,
		&i.HashedPassword,
		&i.Role,
		&i.IsApproved,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateUser = `-- name: UpdateUser :one
UPDATE users
SET full_name = $2, email = $3, role = $4, location_id = $5, updated_at = NOW()
WHERE id = $1 AND is_active = TRUE
RETURNING id, location_id, full_name, email, hashed_password, role, is_approved, is_active, created_at, updated_at
`

type UpdateUserParams struct {
	ID         uuid.UUID
	FullName   string
	Email      string
	Role       string
	LocationID pgtype.UUID
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, updateUser,
		arg.ID,
		arg.FullName,
		arg.Email,
		arg.Role,
		arg.LocationID,
	)
	var i User
	err := row.Scan(
		&i.ID,
		&i.LocationID,
		&i.FullName,
		&i.Email,
		&i.HashedPassword,
		&i.Role,
		&i.IsApproved,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const approveUser = `-- name: ApproveUser :one
UPDATE users
SET is_approved = TRUE, updated_at = NOW()
WHERE id = $1 AND is_active = TRUE
RETURNING id, location_id, full_name, email, hashed_password, role, is_approved, is_active, created_at, updated_at
`

func (q *Queries) ApproveUser(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, approveUser, id)
	var i User
	err := row.Scan(
		&i.ID,
		&i.LocationID,
		&i.FullName,
		&i.Email,
		&i.HashedPassword,
		&i.Role,
		&i.IsApproved,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const softDeleteUser = `-- name: SoftDeleteUser :one
UPDATE users
SET is_active = FALSE, updated_at = NOW()
WHERE id = $1 AND is_active = TRUE
RETURNING id
`

func (q *Queries) SoftDeleteUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteUser, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
