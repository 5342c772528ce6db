package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getDailyRevenue = `-- name: GetDailyRevenue :many
SELECT DATE(created_at) AS sale_date,
       COUNT(*) AS order_count,
       COALESCE(SUM(total_amount), 0) AS total_revenue,
       COALESCE(SUM(discount_amount), 0) AS total_discount
FROM orders
WHERE location_id = $1
  AND status != 'CANCELLED'
  AND created_at >= $2 AND created_at < $3
GROUP BY DATE(created_at)
ORDER BY sale_date
`

type GetDailyRevenueParams struct {
	LocationID uuid.UUID
	StartDate  pgtype.Timestamptz
	EndDate    pgtype.Timestamptz
}

type GetDailyRevenueRow struct {
	SaleDate      pgtype.Date
	OrderCount    int64
	TotalRevenue  pgtype.Numeric
	TotalDiscount pgtype.Numeric
}

func (q *Queries) GetDailyRevenue(ctx context.Context, arg GetDailyRevenueParams) ([]GetDailyRevenueRow, error) {
	rows, err := q.db.Query(ctx, getDailyRevenue, arg.LocationID, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetDailyRevenueRow
	for rows.Next() {
		var i GetDailyRevenueRow
		if err := rows.Scan(&i.SaleDate, &i.OrderCount, &i.TotalRevenue, &i.TotalDiscount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getServiceSales = `-- name: GetServiceSales :many
SELECT oi.service_id,
       oi.service_name,
       COALESCE(SUM(oi.quantity), 0) AS total_quantity,
       COALESCE(SUM(oi.subtotal), 0) AS total_revenue
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
WHERE o.location_id = $1
  AND o.status != 'CANCELLED'
  AND o.created_at >= $2 AND o.created_at < $3
GROUP BY oi.service_id, oi.service_name
ORDER BY total_revenue DESC
`

type GetServiceSalesParams struct {
	LocationID uuid.UUID
	StartDate  pgtype.Timestamptz
	EndDate    pgtype.Timestamptz
}

type GetServiceSalesRow struct {
	ServiceID     uuid.UUID
	ServiceName   string
	TotalQuantity pgtype.Numeric
	TotalRevenue  pgtype.Numeric
}

func (q *Queries) GetServiceSales(ctx context.Context, arg GetServiceSalesParams) ([]GetServiceSalesRow, error) {
	rows, err := q.db.Query(ctx, getServiceSales, arg.LocationID, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetServiceSalesRow
	for rows.Next() {
		var i GetServiceSalesRow
		if err := rows.Scan(&i.ServiceID, &i.ServiceName, &i.TotalQuantity, &i.TotalRevenue); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getPaymentSummary = `-- name: GetPaymentSummary :many
SELECT payment_method,
       COUNT(*) AS order_count,
       COALESCE(SUM(total_amount), 0) AS total_amount
FROM orders
WHERE location_id = $1
  AND is_paid = TRUE
  AND status != 'CANCELLED'
  AND created_at >= $2 AND created_at < $3
GROUP BY payment_method
ORDER BY total_amount DESC
`

type GetPaymentSummaryParams struct {
	LocationID uuid.UUID
	StartDate  pgtype.Timestamptz
	EndDate    pgtype.Timestamptz
}

type GetPaymentSummaryRow struct {
	PaymentMethod pgtype.Text
	OrderCount    int64
	TotalAmount   pgtype.Numeric
}

func (q *Queries) GetPaymentSummary(ctx context.Context, arg GetPaymentSummaryParams) ([]GetPaymentSummaryRow, error) {
	rows, err := q.db.Query(ctx, getPaymentSummary, arg.LocationID, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetPaymentSummaryRow
	for rows.Next() {
		var i GetPaymentSummaryRow
		if err := rows.Scan(&i.PaymentMethod, &i.OrderCount, &i.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getExpenseSummary = `-- name: GetExpenseSummary :many
SELECT category,
       COUNT(*) AS expense_count,
       COALESCE(SUM(amount), 0) AS total_amount
FROM expenses
WHERE ($1::uuid IS NULL OR location_id = $1)
  AND expense_date >= $2 AND expense_date < $3
GROUP BY category
ORDER BY total_amount DESC
`

type GetExpenseSummaryParams struct {
	LocationID pgtype.UUID
	StartDate  pgtype.Timestamptz
	EndDate    pgtype.Timestamptz
}

type GetExpenseSummaryRow struct {
	Category     string
	ExpenseCount int64
	TotalAmount  pgtype.Numeric
}

func (q *Queries) GetExpenseSummary(ctx context.Context, arg GetExpenseSummaryParams) ([]GetExpenseSummaryRow, error) {
	rows, err := q.db.Query(ctx, getExpenseSummary, arg.LocationID, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetExpenseSummaryRow
	for rows.Next() {
		var i GetExpenseSummaryRow
		if err := rows.Scan(&i.Category, &i.ExpenseCount, &i.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getLocationComparison = `-- name: GetLocationComparison :many
SELECT l.id AS location_id,
       l.name AS location_name,
       COUNT(o.id) AS order_count,
       COALESCE(SUM(o.total_amount), 0) AS total_revenue
FROM locations l
LEFT JOIN orders o ON o.location_id = l.id
  AND o.status != 'CANCELLED'
  AND o.created_at >= $1 AND o.created_at < $2
WHERE l.is_active = TRUE
GROUP BY l.id, l.name
ORDER BY total_revenue DESC
`

type GetLocationComparisonParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

type GetLocationComparisonRow struct {
	LocationID   uuid.UUID
	LocationName string
	OrderCount   int64
	TotalRevenue pgtype.Numeric
}

func (q *Queries) GetLocationComparison(ctx context.Context, arg GetLocationComparisonParams) ([]GetLocationComparisonRow, error) {
	rows, err := q.db.Query(ctx, getLocationComparison, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetLocationComparisonRow
	for rows.Next() {
		var i GetLocationComparisonRow
		if err := rows.Scan(&i.LocationID, &i.LocationName, &i.OrderCount, &i.TotalRevenue); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getOrderStatusCounts = `-- name: GetOrderStatusCounts :many
SELECT status,
       COUNT(*) AS order_count,
       COALESCE(SUM(total_amount) FILTER (WHERE status != 'CANCELLED'), 0) AS total_revenue
FROM orders
WHERE location_id = $1
  AND created_at >= $2 AND created_at < $3
GROUP BY status
`

type GetOrderStatusCountsParams struct {
	LocationID uuid.UUID
	StartDate  pgtype.Timestamptz
	EndDate    pgtype.Timestamptz
}

type GetOrderStatusCountsRow struct {
	Status       string
	OrderCount   int64
	TotalRevenue pgtype.Numeric
}

func (q *Queries) GetOrderStatusCounts(ctx context.Context, arg GetOrderStatusCountsParams) ([]GetOrderStatusCountsRow, error) {
	rows, err := q.db.Query(ctx, getOrderStatusCounts, arg.LocationID, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetOrderStatusCountsRow
	for rows.Next() {
		var i GetOrderStatusCountsRow
		if err := rows.Scan(&i.Status, &i.OrderCount, &i.TotalRevenue); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
