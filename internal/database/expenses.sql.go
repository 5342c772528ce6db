package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createExpense = `-- name: CreateExpense :one
INSERT INTO expenses (description, amount, category, expense_date, recorded_by, location_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, description, amount, category, expense_date, recorded_by, location_id, created_at
`

type CreateExpenseParams struct {
	Description string
	Amount      pgtype.Numeric
	Category    string
	ExpenseDate time.Time
	RecordedBy  string
	LocationID  pgtype.UUID
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRow(ctx, createExpense,
		arg.Description,
		arg.Amount,
		arg.Category,
		arg.ExpenseDate,
		arg.RecordedBy,
		arg.LocationID,
	)
	var i Expense
	err := row.Scan(
		&i.ID,
		&i.Description,
		&i.Amount,
		&i.Category,
		&i.ExpenseDate,
		&i.RecordedBy,
		&i.LocationID,
		&i.CreatedAt,
	)
	return i, err
}

const listExpenses = `-- name: ListExpenses :many
SELECT id, description, amount, category, expense_date, recorded_by, location_id, created_at
FROM expenses
WHERE ($1::uuid IS NULL OR location_id = $1)
  AND ($2::timestamptz IS NULL OR expense_date >= $2)
  AND ($3::timestamptz IS NULL OR expense_date < $3)
ORDER BY expense_date DESC, created_at DESC
LIMIT $4 OFFSET $5
`

type ListExpensesParams struct {
	LocationID pgtype.UUID
	StartDate  pgtype.Timestamptz
	EndDate    pgtype.Timestamptz
	Limit      int32
	Offset     int32
}

func (q *Queries) ListExpenses(ctx context.Context, arg ListExpensesParams) ([]Expense, error) {
	rows, err := q.db.Query(ctx, listExpenses,
		arg.LocationID,
		arg.StartDate,
		arg.EndDate,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var i Expense
		if err := rows.Scan(
			&i.ID,
			&i.Description,
			&i.Amount,
			&i.Category,
			&i.ExpenseDate,
			&i.RecordedBy,
			&i.LocationID,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteExpense = `-- name: DeleteExpense :one
DELETE FROM expenses
WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteExpense(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteExpense, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
