package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listDiscounts = `-- name: ListDiscounts :many
SELECT id, code, type, value, quota, used_count, is_active, created_at, updated_at
FROM discounts
ORDER BY created_at DESC
`

func (q *Queries) ListDiscounts(ctx context.Context) ([]Discount, error) {
	rows, err := q.db.Query(ctx, listDiscounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Discount
	for rows.Next() {
		var i Discount
		if err := rows.Scan(
			&i.ID,
			&i.Code,
			&i.Type,
			&i.Value,
			&i.Quota,
			&i.UsedCount,
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

const getDiscountByCode = `-- name: GetDiscountByCode :one
SELECT id, code, type, value, quota, used_count, is_active, created_at, updated_at
FROM discounts
WHERE code = UPPER($1)
`

func (q *Queries) GetDiscountByCode(ctx context.Context, code string) (Discount, error) {
	row := q.db.QueryRow(ctx, getDiscountByCode, code)
	var i Discount
	err := row.Scan(
		&i.ID,
		&i.Code,
		&i.Type,
		&i.Value,
		&i.Quota,
		&i.UsedCount,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createDiscount = `-- name: CreateDiscount :one
INSERT INTO discounts (code, type, value, quota, is_active)
VALUES (UPPER($1), $2, $3, $4, $5)
RETURNING id, code, type, value, quota, used_count, is_active, created_at, updated_at
`

type CreateDiscountParams struct {
	Code     string
	Type     string
	Value    pgtype.Numeric
	Quota    int32
	IsActive bool
}

func (q *Queries) CreateDiscount(ctx context.Context, arg CreateDiscountParams) (Discount, error) {
	row := q.db.QueryRow(ctx, createDiscount,
		arg.Code,
		arg.Type,
		arg.Value,
		arg.Quota,
		arg.IsActive,
	)
	var i Discount
	err := row.Scan(
		&i.ID,
		&i.Code,
		&i.Type,
		&i.Value,
		&i.Quota,
		&i.UsedCount,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateDiscount = `-- name: UpdateDiscount :one
UPDATE discounts
SET code = UPPER($2), type = $3, value = $4, quota = $5, is_active = $6, updated_at = NOW()
WHERE id = $1
RETURNING id, code, type, value, quota, used_count, is_active, created_at, updated_at
`

type UpdateDiscountParams struct {
	ID       uuid.UUID
	Code     string
	Type     string
	Value    pgtype.Numeric
	Quota    int32
	IsActive bool
}

func (q *Queries) UpdateDiscount(ctx context.Context, arg UpdateDiscountParams) (Discount, error) {
	row := q.db.QueryRow(ctx, updateDiscount,
		arg.ID,
		arg.Code,
		arg.Type,
		arg.Value,
		arg.Quota,
		arg.IsActive,
	)
	var i Discount
	err := row.Scan(
		&i.ID,
		&i.Code,
		&i.Type,
		&i.Value,
		&i.Quota,
		&i.UsedCount,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteDiscount = `-- name: DeleteDiscount :one
DELETE FROM discounts
WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteDiscount(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteDiscount, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}

const redeemDiscount = `-- name: RedeemDiscount :one
UPDATE discounts
SET used_count = used_count + 1, updated_at = NOW()
WHERE code = UPPER($1)
  AND is_active = TRUE
  AND (quota = 0 OR used_count < quota)
RETURNING id, code, type, value, quota, used_count, is_active, created_at, updated_at
`

// RedeemDiscount increments the usage counter of an active voucher with
// remaining quota in a single conditional UPDATE. Returns pgx.ErrNoRows when
// the code is unknown, inactive, or already at quota, so concurrent
// redemptions of the last unit cannot both succeed.
func (q *Queries) RedeemDiscount(ctx context.Context, code string) (Discount, error) {
	row := q.db.QueryRow(ctx, redeemDiscount, code)
	var i Discount
	err := row.Scan(
		&i.ID,
		&i.Code,
		&i.Type,
		&i.Value,
		&i.Quota,
		&i.UsedCount,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listOrdersByDiscountCode = `-- name: ListOrdersByDiscountCode :many
SELECT id, order_number, location_id, customer_id, customer_name, status, subtotal, discount_code, discount_amount, total_amount, is_paid, payment_method, perfume, received_by, completed_by, rating, review, created_by, created_at, updated_at
FROM orders
WHERE discount_code = UPPER($1)
ORDER BY created_at DESC
`

func (q *Queries) ListOrdersByDiscountCode(ctx context.Context, code string) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByDiscountCode, code)
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
