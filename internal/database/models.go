package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID             uuid.UUID
	LocationID     pgtype.UUID
	FullName       string
	Email          string
	HashedPassword string
	Role           string
	IsApproved     bool
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Location struct {
	ID        uuid.UUID
	Name      string
	Address   string
	Phone     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Service struct {
	ID            uuid.UUID
	Name          string
	Price         pgtype.Numeric
	Unit          string
	Description   pgtype.Text
	DurationHours int32
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Customer struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Email     pgtype.Text
	Address   pgtype.Text
	Notes     pgtype.Text
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Discount struct {
	ID        uuid.UUID
	Code      string
	Type      string
	Value     pgtype.Numeric
	Quota     int32
	UsedCount int32
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID             uuid.UUID
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
	CompletedBy    pgtype.Text
	Rating         pgtype.Int4
	Review         pgtype.Text
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ServiceID   uuid.UUID
	ServiceName string
	UnitPrice   pgtype.Numeric
	Unit        string
	Quantity    pgtype.Numeric
	Subtotal    pgtype.Numeric
}

type Expense struct {
	ID          uuid.UUID
	Description string
	Amount      pgtype.Numeric
	Category    string
	ExpenseDate time.Time
	RecordedBy  string
	LocationID  pgtype.UUID
	CreatedAt   time.Time
}
