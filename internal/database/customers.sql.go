package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listCustomers = `-- name: ListCustomers :many
SELECT id, name, phone, email, address, notes, is_active, created_at, updated_at
FROM customers
WHERE is_active = TRUE
  AND ($1::text IS NULL OR name ILIKE '%' || $1 || '%' OR phone ILIKE '%' || $1 || '%')
ORDER BY name
LIMIT $2 OFFSET $3
`

type ListCustomersParams struct {
	Search pgtype.Text
	Limit  int32
	Offset int32
}

func (q *Queries) ListCustomers(ctx context.Context, arg ListCustomersParams) ([]Customer, error) {
	rows, err := q.db.Query(ctx, listCustomers, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Customer
	for rows.Next() {
		var i Customer
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Phone,
			&i.Email,
			&i.Address,
			&i.Notes,
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

const getCustomer = `-- name: GetCustomer :one
SELECT id, name, phone, email, address, notes, is_active, created_at, updated_at
FROM customers
WHERE id = $1 AND is_active = TRUE
`

func (q *Queries) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	row := q.db.QueryRow(ctx, getCustomer, id)
	var i Customer
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Phone,
		&i.Email,
		&i.Address,
		&i.Notes,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createCustomer = `-- name: CreateCustomer :one
INSERT INTO customers (name, phone, email, address, notes)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, name, phone, email, address, notes, is_active, created_at, updated_at
`

type CreateCustomerParams struct {
	Name    string
	Phone   string
	Email   pgtype.Text
	Address pgtype.Text
	Notes   pgtype.Text
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, createCustomer,
		arg.Name,
		arg.Phone,
		arg.Email,
		arg.Address,
		arg.Notes,
	)
	var i Customer
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Phone,
		&i.Email,
		&i.Address,
		&i.Notes,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateCustomer = `-- name: UpdateCustomer :one
UPDATE customers
SET name = $2, phone = $3, email = $4, address = $5, notes = $6, updated_at = NOW()
WHERE id = $1 AND is_active = TRUE
RETURNING id, name, phone, email, address, notes, is_active, created_at, updated_at
`

type UpdateCustomerParams struct {
	ID      uuid.UUID
	Name    string
	Phone   string
	Email   pgtype.Text
	Address pgtype.Text
	Notes   pgtype.Text
}

func (q *Queries) UpdateCustomer(ctx context.Context, arg UpdateCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, updateCustomer,
		arg.ID,
		arg.Name,
		arg.Phone,
		arg.Email,
		arg.Address,
		arg.Notes,
	)
	var i Customer
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Phone,
		&i.Email,
		&i.Address,
		&i.Notes,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const softDeleteCustomer = `-- name: SoftDeleteCustomer :one
UPDATE customers
SET is_active = FALSE, updated_at = NOW()
WHERE id = $1 AND is_active = TRUE
RETURNING id
`

func (q *Queries) SoftDeleteCustomer(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteCustomer, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}

const listCustomerOrders = `-- name: ListCustomerOrders :many
SELECT id, order_number, location_id, customer_id, customer_name, status, subtotal, discount_code, discount_amount, total_amount, is_paid, payment_method, perfume, received_by, completed_by, rating, review, created_by, created_at, updated_at
FROM orders
WHERE customer_id = $1
ORDER BY created_at DESC
LIMIT $2
`

type ListCustomerOrdersParams struct {
	CustomerID uuid.UUID
	Limit      int32
}

func (q *Queries) ListCustomerOrders(ctx context.Context, arg ListCustomerOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listCustomerOrders, arg.CustomerID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
