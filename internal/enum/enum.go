package enum

// ── State machines (CHECK constrained in DB) ──

const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusReady      = "READY"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

// ── Roles (CHECK constrained in DB) ──

const (
	UserRoleOwner = "OWNER"
	UserRoleStaff = "STAFF"
)

// ── Configurable labels (no DB constraint) ──

const (
	PaymentMethodCash     = "CASH"
	PaymentMethodQRIS     = "QRIS"
	PaymentMethodTransfer = "TRANSFER"
)

const (
	DiscountTypePercentage = "PERCENTAGE"
	DiscountTypeFixed      = "FIXED"
)

const (
	ExpenseCategoryOperational = "Operational"
	ExpenseCategorySupplies    = "Supplies"
	ExpenseCategoryMaintenance = "Maintenance"
	ExpenseCategoryOther       = "Other"
)
