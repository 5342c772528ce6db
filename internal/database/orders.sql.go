package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, location_id, customer_id, customer_name, status, subtotal, discount_code, discount_amount, total_amount, is_paid, payment_method, perfume, received_by, completed_by, rating, review, created_by, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.LocationID,
		&i.CustomerID,
		&i.CustomerName,
		&i.Status,
		&i.Subtotal,
		&i.DiscountCode,
		&i.DiscountAmount,
		&i.TotalAmount,
		&i.IsPaid,
		&i.PaymentMethod,
		&i.Perfume,
		&i.ReceivedBy,
		&i.CompletedBy,
		&i.Rating,
		&i.Review,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getNextOrderNumber = `-- name: GetNextOrderNumber :one
SELECT COALESCE(MAX(CAST(SUBSTRING(order_number FROM 5) AS INTEGER)), 0) + 1
FROM orders
WHERE location_id = $1
`

func (q *Queries) GetNextOrderNumber(ctx context.Context, locationID uuid.UUID) (int32, error) {
	row := q.db.QueryRow(ctx, getNextOrderNumber, locationID)
	var next int32
	err := row.Scan(&next)
	return next, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (order_number, location_id, customer_id, customer_name, status, subtotal, discount_code, discount_amount, total_amount, is_paid, payment_method, perfume, received_by, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	OrderNumber    string
	LocationID     uuid.UUID
	CustomerID     uuid.UUID
	CustomerName   string
	Status         string
	Subtotal       pgtype.Numeric
	DiscountCode   pgtype.Text
	DiscountAmount pgtype.Numeric
	TotalAmount    pgtype.Numeric
	IsPaid         bool
	PaymentMethod  pgtype.Text
	Perfume        pgtype.Text
	ReceivedBy     pgtype.Text
	CreatedBy      uuid.UUID
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.OrderNumber,
		arg.LocationID,
		arg.CustomerID,
		arg.CustomerName,
		arg.Status,
		arg.Subtotal,
		arg.DiscountCode,
		arg.DiscountAmount,
		arg.TotalAmount,
		arg.IsPaid,
		arg.PaymentMethod,
		arg.Perfume,
		arg.ReceivedBy,
		arg.CreatedBy,
	)
	return scanOrder(row)
}

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (order_id, service_id, service_name, unit_price, unit, quantity, subtotal)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, order_id, service_id, service_name, unit_price, unit, quantity, subtotal
`

type CreateOrderItemParams struct {
	OrderID     uuid.UUID
	ServiceID   uuid.UUID
	ServiceName string
	UnitPrice   pgtype.Numeric
	Unit        string
	Quantity    pgtype.Numeric
	Subtotal    pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.ServiceID,
		arg.ServiceName,
		arg.UnitPrice,
		arg.Unit,
		arg.Quantity,
		arg.Subtotal,
	)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.ServiceID,
		&i.ServiceName,
		&i.UnitPrice,
		&i.Unit,
		&i.Quantity,
		&i.Subtotal,
	)
	return i, err
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1 AND location_id = $2
`

type GetOrderParams struct {
	ID         uuid.UUID
	LocationID uuid.UUID
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, arg.ID, arg.LocationID))
}

const getOrderByID = `-- name: GetOrderByID :one
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`

// GetOrderByID looks an order up without location scoping. Used by the
// public tracking surface, which has no authenticated location context.
func (q *Queries) GetOrderByID(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByID, id))
}

const listOrders = `-- name: ListOrders :many
SELECT ` + orderColumns + `
FROM orders
WHERE location_id = $1
  AND ($2::text IS NULL OR status = $2)
  AND ($3::timestamptz IS NULL OR created_at >= $3)
  AND ($4::timestamptz IS NULL OR created_at < $4)
ORDER BY created_at DESC
LIMIT $5 OFFSET $6
`

type ListOrdersParams struct {
	LocationID uuid.UUID
	Status     pgtype.Text
	StartDate  pgtype.Timestamptz
	EndDate    pgtype.Timestamptz
	Limit      int32
	Offset     int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.LocationID,
		arg.Status,
		arg.StartDate,
		arg.EndDate,
		arg.Limit,
		arg.Offset,
	)
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

const listOrderItemsByOrder = `-- name: ListOrderItemsByOrder :many
SELECT id, order_id, service_id, service_name, unit_price, unit, quantity, subtotal
FROM order_items
WHERE order_id = $1
ORDER BY service_name
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.ServiceID,
			&i.ServiceName,
			&i.UnitPrice,
			&i.Unit,
			&i.Quantity,
			&i.Subtotal,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders
SET status = $3, completed_by = COALESCE($4, completed_by), updated_at = NOW()
WHERE id = $1 AND location_id = $2 AND status = $5
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID          uuid.UUID
	LocationID  uuid.UUID
	Status      string
	CompletedBy pgtype.Text
	// FromStatus makes the write a compare-and-set: no rows match when the
	// order moved under a concurrent operator.
	FromStatus string
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus,
		arg.ID,
		arg.LocationID,
		arg.Status,
		arg.CompletedBy,
		arg.FromStatus,
	))
}

const confirmOrderPayment = `-- name: ConfirmOrderPayment :one
UPDATE orders
SET is_paid = TRUE, payment_method = $3, updated_at = NOW()
WHERE id = $1 AND location_id = $2
RETURNING ` + orderColumns

type ConfirmOrderPaymentParams struct {
	ID            uuid.UUID
	LocationID    uuid.UUID
	PaymentMethod string
}

func (q *Queries) ConfirmOrderPayment(ctx context.Context, arg ConfirmOrderPaymentParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, confirmOrderPayment, arg.ID, arg.LocationID, arg.PaymentMethod))
}

const attachOrderFeedback = `-- name: AttachOrderFeedback :one
UPDATE orders
SET rating = $2, review = $3, updated_at = NOW()
WHERE id = $1 AND status = 'COMPLETED'
RETURNING ` + orderColumns

type AttachOrderFeedbackParams struct {
	ID     uuid.UUID
	Rating int32
	Review pgtype.Text
}

// AttachOrderFeedback upserts the customer rating and review. Repeat
// submissions overwrite rather than append.
func (q *Queries) AttachOrderFeedback(ctx context.Context, arg AttachOrderFeedbackParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, attachOrderFeedback, arg.ID, arg.Rating, arg.Review))
}

const cancelOrder = `-- name: CancelOrder :one
UPDATE orders
SET status = 'CANCELLED', updated_at = NOW()
WHERE id = $1 AND location_id = $2 AND status NOT IN ('COMPLETED', 'CANCELLED')
RETURNING ` + orderColumns

type CancelOrderParams struct {
	ID         uuid.UUID
	LocationID uuid.UUID
}

func (q *Queries) CancelOrder(ctx context.Context, arg CancelOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, cancelOrder, arg.ID, arg.LocationID))
}

const deleteOrderItems = `-- name: DeleteOrderItems :exec
DELETE FROM order_items
WHERE order_id = $1
`

func (q *Queries) DeleteOrderItems(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOrderItems, orderID)
	return err
}

const deleteOrder = `-- name: DeleteOrder :one
DELETE FROM orders
WHERE id = $1 AND location_id = $2
RETURNING id
`

type DeleteOrderParams struct {
	ID         uuid.UUID
	LocationID uuid.UUID
}

func (q *Queries) DeleteOrder(ctx context.Context, arg DeleteOrderParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteOrder, arg.ID, arg.LocationID)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
