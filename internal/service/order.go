package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/launderlink/api/internal/database"
	"github.com/launderlink/api/internal/enum"
	"github.com/launderlink/api/internal/notify"
	"github.com/launderlink/api/internal/pricing"
	"github.com/shopspring/decimal"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrDuplicateService     = errors.New("cart contains the same service twice")
	ErrInvalidServiceID     = errors.New("invalid service_id")
	ErrServiceNotFound      = errors.New("service not found")
	ErrInvalidCustomerID    = errors.New("invalid customer_id")
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrLocationNotFound     = errors.New("location not found")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrIllegalTransition    = errors.New("illegal status transition")
	ErrCompletedByRequired  = errors.New("completed_by is required to mark an order ready")
	ErrStatusConflict       = errors.New("order status changed, please retry")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderNotCompleted    = errors.New("feedback is only allowed on completed orders")
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
	ErrVoucherRace          = errors.New("voucher was exhausted by a concurrent order")
)

// allowedTransitions is the operator-facing order pipeline. CANCELLED is a
// valid status but no operator transition produces it; cancellation goes
// through the privileged cancel path only.
var allowedTransitions = map[string][]string{
	enum.OrderStatusPending:    {enum.OrderStatusProcessing},
	enum.OrderStatusProcessing: {enum.OrderStatusReady},
	enum.OrderStatusReady:      {enum.OrderStatusCompleted},
}

// NextStatuses returns the legal next states from the given status.
func NextStatuses(current string) []string {
	return allowedTransitions[current]
}

// DB is the connection surface the order service needs: plain queries plus
// transactions. Satisfied by *pgxpool.Pool.
type DB interface {
	database.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the order service needs.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetLocation(ctx context.Context, id uuid.UUID) (database.Location, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
	GetService(ctx context.Context, id uuid.UUID) (database.Service, error)
	GetDiscountByCode(ctx context.Context, code string) (database.Discount, error)
	RedeemDiscount(ctx context.Context, code string) (database.Discount, error)
	GetNextOrderNumber(ctx context.Context, locationID uuid.UUID) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	ConfirmOrderPayment(ctx context.Context, arg database.ConfirmOrderPaymentParams) (database.Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (database.Order, error)
	AttachOrderFeedback(ctx context.Context, arg database.AttachOrderFeedbackParams) (database.Order, error)
	DeleteOrderItems(ctx context.Context, orderID uuid.UUID) error
	DeleteOrder(ctx context.Context, arg database.DeleteOrderParams) (uuid.UUID, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// OrderService handles order business logic.
type OrderService struct {
	db              DB
	newStore        NewOrderStore
	trackingBaseURL string
}

// NewOrderService creates a new OrderService. trackingBaseURL is the public
// prefix embedded in customer messages, e.g. "https://app.example.id/track".
func NewOrderService(db DB, newStore NewOrderStore, trackingBaseURL string) *OrderService {
	return &OrderService{db: db, newStore: newStore, trackingBaseURL: trackingBaseURL}
}

// CreateOrderItemRequest is a single cart line in an order request.
type CreateOrderItemRequest struct {
	ServiceID string
	Quantity  string
}

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	LocationID    uuid.UUID
	CreatedBy     uuid.UUID
	CustomerID    string
	VoucherCode   string
	Perfume       string
	ReceivedBy    string
	IsPaid        bool
	PaymentMethod string
	Items         []CreateOrderItemRequest
}

// CreateOrderResult is the created order with its item snapshots and the
// composed receipt message for the WhatsApp hand-off.
type CreateOrderResult struct {
	Order   database.Order
	Items   []database.OrderItem
	Receipt notify.Message
}

// processedItem is a prepared order item awaiting insert.
type processedItem struct {
	params   database.CreateOrderItemParams
	line     notify.ReceiptLine
	duration int32
}

// CreateOrder validates the cart, snapshots service names and prices,
// prices the order, redeems an optional voucher, and inserts everything
// atomically. Retries on order_number unique constraint violations
// (concurrent transactions can read the same MAX).
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if req.CustomerID == "" {
		return nil, ErrInvalidCustomerID
	}
	if req.IsPaid && !isValidPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}

	seen := make(map[string]bool, len(req.Items))
	for i, item := range req.Items {
		if seen[item.ServiceID] {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrDuplicateService)
		}
		seen[item.ServiceID] = true
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.createOrderTx(ctx, req)
		if err == nil {
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isOrderNumberConflict checks for a unique constraint violation on the
// per-location order number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_location_id_order_number_key"
	}
	return false
}

func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	location, err := store.GetLocation(ctx, req.LocationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("get location: %w", err)
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, ErrInvalidCustomerID
	}
	customer, err := store.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	nextNum, err := store.GetNextOrderNumber(ctx, req.LocationID)
	if err != nil {
		return nil, fmt.Errorf("get next order number: %w", err)
	}
	orderNumber := fmt.Sprintf("LDR-%03d", nextNum)

	// Resolve each cart line against the live catalog and snapshot the
	// service name, price, and unit so later catalog edits never rewrite
	// order history.
	subtotal := decimal.Zero
	maxDuration := int32(0)
	items := make([]processedItem, 0, len(req.Items))
	for i, item := range req.Items {
		serviceID, err := uuid.Parse(item.ServiceID)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidServiceID)
		}
		qty, err := decimal.NewFromString(item.Quantity)
		if err != nil || !qty.IsPositive() {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}

		svc, err := store.GetService(ctx, serviceID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrServiceNotFound)
			}
			return nil, fmt.Errorf("items[%d]: get service: %w", i, err)
		}

		price := numericToDecimal(svc.Price)
		lineSubtotal := price.Mul(qty)
		subtotal = subtotal.Add(lineSubtotal)
		if svc.DurationHours > maxDuration {
			maxDuration = svc.DurationHours
		}

		items = append(items, processedItem{
			params: database.CreateOrderItemParams{
				ServiceID:   serviceID,
				ServiceName: svc.Name,
				UnitPrice:   svc.Price,
				Unit:        svc.Unit,
				Quantity:    decimalToNumeric(qty),
				Subtotal:    decimalToNumeric(lineSubtotal),
			},
			line: notify.ReceiptLine{
				ServiceName: svc.Name,
				Quantity:    qty,
				Unit:        svc.Unit,
				UnitPrice:   price,
				Subtotal:    lineSubtotal,
			},
			duration: svc.DurationHours,
		})
	}

	// Voucher: validate against the stored rule, then redeem through a
	// conditional UPDATE in the same transaction. The conditional write is
	// what makes concurrent redemptions of the last unit safe.
	discountCode := pgtype.Text{}
	discountAmount := decimal.Zero
	if req.VoucherCode != "" {
		row, err := store.GetDiscountByCode(ctx, req.VoucherCode)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, pricing.ErrVoucherNotFound
			}
			return nil, fmt.Errorf("get discount: %w", err)
		}

		voucher, err := pricing.ValidateVoucher(req.VoucherCode, []pricing.Discount{{
			Code:      row.Code,
			Type:      row.Type,
			Value:     numericToDecimal(row.Value),
			Quota:     row.Quota,
			UsedCount: row.UsedCount,
			Active:    row.IsActive,
		}})
		if err != nil {
			return nil, err
		}

		discountAmount = pricing.DiscountAmount(subtotal, voucher)
		if _, err := store.RedeemDiscount(ctx, voucher.Code); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrVoucherRace
			}
			return nil, fmt.Errorf("redeem discount: %w", err)
		}
		discountCode = pgtype.Text{String: voucher.Code, Valid: true}
	}

	total := pricing.Total(subtotal, discountAmount)

	paymentMethod := pgtype.Text{}
	if req.IsPaid {
		paymentMethod = pgtype.Text{String: req.PaymentMethod, Valid: true}
	}
	perfume := pgtype.Text{}
	if req.Perfume != "" {
		perfume = pgtype.Text{String: req.Perfume, Valid: true}
	}
	receivedBy := pgtype.Text{}
	if req.ReceivedBy != "" {
		receivedBy = pgtype.Text{String: req.ReceivedBy, Valid: true}
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber:    orderNumber,
		LocationID:     req.LocationID,
		CustomerID:     customer.ID,
		CustomerName:   customer.Name,
		Status:         enum.OrderStatusPending,
		Subtotal:       decimalToNumeric(subtotal),
		DiscountCode:   discountCode,
		DiscountAmount: decimalToNumeric(discountAmount),
		TotalAmount:    decimalToNumeric(total),
		IsPaid:         req.IsPaid,
		PaymentMethod:  paymentMethod,
		Perfume:        perfume,
		ReceivedBy:     receivedBy,
		CreatedBy:      req.CreatedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	itemRows := make([]database.OrderItem, 0, len(items))
	receiptLines := make([]notify.ReceiptLine, 0, len(items))
	for _, pi := range items {
		pi.params.OrderID = order.ID
		row, err := store.CreateOrderItem(ctx, pi.params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		itemRows = append(itemRows, row)
		receiptLines = append(receiptLines, pi.line)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	receipt := notify.Receipt(notify.ReceiptData{
		OrderNumber:      order.OrderNumber,
		ShopName:         location.Name,
		ShopAddress:      location.Address,
		ShopPhone:        location.Phone,
		CustomerName:     customer.Name,
		CustomerPhone:    customer.Phone,
		Lines:            receiptLines,
		DiscountCode:     discountCode.String,
		DiscountAmount:   discountAmount,
		TotalAmount:      total,
		Perfume:          req.Perfume,
		IsPaid:           req.IsPaid,
		CreatedAt:        order.CreatedAt,
		MaxDurationHours: maxDuration,
		TrackingURL:      s.trackingURL(order.ID),
	})

	return &CreateOrderResult{Order: order, Items: itemRows, Receipt: receipt}, nil
}

// TransitionRequest asks for one step along the order pipeline.
type TransitionRequest struct {
	LocationID uuid.UUID
	OrderID    uuid.UUID
	NextStatus string
	// CompletedBy is the staff member who finished the wash; required for
	// the transition to READY, ignored otherwise.
	CompletedBy string
	// Notify requests a pickup-ready customer message on the transition to
	// READY.
	Notify bool
}

// TransitionResult is the updated order plus an optional composed customer
// notification. The hand-off is fire-and-forget: the caller delivers (or
// drops) the message and a delivery failure never rolls back the status.
type TransitionResult struct {
	Order        database.Order
	Notification *notify.Message
}

// TransitionStatus moves an order one step along
// PENDING -> PROCESSING -> READY -> COMPLETED. The status write is a
// compare-and-set against the status the operator saw; a concurrent change
// surfaces as ErrStatusConflict instead of silently overwriting.
func (s *OrderService) TransitionStatus(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	if !isValidOrderStatus(req.NextStatus) {
		return nil, ErrInvalidStatus
	}

	store := s.newStore(s.db)

	current, err := store.GetOrder(ctx, database.GetOrderParams{ID: req.OrderID, LocationID: req.LocationID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if !transitionAllowed(current.Status, req.NextStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current.Status, req.NextStatus)
	}

	completedBy := pgtype.Text{}
	if req.NextStatus == enum.OrderStatusReady {
		if strings.TrimSpace(req.CompletedBy) == "" {
			return nil, ErrCompletedByRequired
		}
		completedBy = pgtype.Text{String: strings.TrimSpace(req.CompletedBy), Valid: true}
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:          req.OrderID,
		LocationID:  req.LocationID,
		Status:      req.NextStatus,
		CompletedBy: completedBy,
		FromStatus:  current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusConflict
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	result := &TransitionResult{Order: updated}

	if req.NextStatus == enum.OrderStatusReady && req.Notify {
		msg, err := s.composePickupReady(ctx, store, updated)
		if err != nil {
			// The status change is already durable; a failed message
			// composition degrades to "no notification", it does not fail
			// the transition.
			return result, nil
		}
		result.Notification = msg
	}

	return result, nil
}

func (s *OrderService) composePickupReady(ctx context.Context, store OrderStore, order database.Order) (*notify.Message, error) {
	customer, err := store.GetCustomer(ctx, order.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	location, err := store.GetLocation(ctx, order.LocationID)
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	msg := notify.PickupReady(notify.PickupReadyData{
		OrderNumber:   order.OrderNumber,
		ShopName:      location.Name,
		CustomerName:  customer.Name,
		CustomerPhone: customer.Phone,
		TotalAmount:   numericToDecimal(order.TotalAmount),
		IsPaid:        order.IsPaid,
		TrackingURL:   s.trackingURL(order.ID),
	})
	return &msg, nil
}

// ComposeReceipt rebuilds the electronic receipt for an existing order so
// staff can resend it after intake. Lines come from the stored item
// snapshots; the completion estimate re-reads the catalog and falls back to
// the default when a service has since been removed.
func (s *OrderService) ComposeReceipt(ctx context.Context, locationID, orderID uuid.UUID) (*notify.Message, error) {
	store := s.newStore(s.db)

	order, err := store.GetOrder(ctx, database.GetOrderParams{ID: orderID, LocationID: locationID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	customer, err := store.GetCustomer(ctx, order.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	location, err := store.GetLocation(ctx, order.LocationID)
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	lines := make([]notify.ReceiptLine, len(items))
	maxDuration := int32(0)
	for i, item := range items {
		lines[i] = notify.ReceiptLine{
			ServiceName: item.ServiceName,
			Quantity:    numericToDecimal(item.Quantity),
			Unit:        item.Unit,
			UnitPrice:   numericToDecimal(item.UnitPrice),
			Subtotal:    numericToDecimal(item.Subtotal),
		}
		if svc, err := store.GetService(ctx, item.ServiceID); err == nil && svc.DurationHours > maxDuration {
			maxDuration = svc.DurationHours
		}
	}

	msg := notify.Receipt(notify.ReceiptData{
		OrderNumber:      order.OrderNumber,
		ShopName:         location.Name,
		ShopAddress:      location.Address,
		ShopPhone:        location.Phone,
		CustomerName:     customer.Name,
		CustomerPhone:    customer.Phone,
		Lines:            lines,
		DiscountCode:     order.DiscountCode.String,
		DiscountAmount:   numericToDecimal(order.DiscountAmount),
		TotalAmount:      numericToDecimal(order.TotalAmount),
		Perfume:          order.Perfume.String,
		IsPaid:           order.IsPaid,
		CreatedAt:        order.CreatedAt,
		MaxDurationHours: maxDuration,
		TrackingURL:      s.trackingURL(order.ID),
	})
	return &msg, nil
}

// ConfirmPayment marks an order paid with the given method. Payment is
// orthogonal to the fulfillment status; an order can be paid at any point,
// including after completion.
func (s *OrderService) ConfirmPayment(ctx context.Context, locationID, orderID uuid.UUID, method string) (database.Order, error) {
	if !isValidPaymentMethod(method) {
		return database.Order{}, ErrInvalidPaymentMethod
	}

	store := s.newStore(s.db)
	order, err := store.ConfirmOrderPayment(ctx, database.ConfirmOrderPaymentParams{
		ID:            orderID,
		LocationID:    locationID,
		PaymentMethod: method,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("confirm payment: %w", err)
	}
	return order, nil
}

// AttachFeedback upserts a customer rating and review on a completed
// order. Called from the public tracking surface; submitting twice
// overwrites the previous feedback.
func (s *OrderService) AttachFeedback(ctx context.Context, orderID uuid.UUID, rating int32, review string) (database.Order, error) {
	if rating < 1 || rating > 5 {
		return database.Order{}, ErrInvalidRating
	}

	store := s.newStore(s.db)
	reviewText := pgtype.Text{}
	if strings.TrimSpace(review) != "" {
		reviewText = pgtype.Text{String: review, Valid: true}
	}

	order, err := store.AttachOrderFeedback(ctx, database.AttachOrderFeedbackParams{
		ID:     orderID,
		Rating: rating,
		Review: reviewText,
	})
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.Order{}, fmt.Errorf("attach feedback: %w", err)
	}

	// No rows updated: distinguish "no such order" from "not completed".
	if _, fetchErr := store.GetOrderByID(ctx, orderID); fetchErr != nil {
		if errors.Is(fetchErr, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", fetchErr)
	}
	return database.Order{}, ErrOrderNotCompleted
}

// DeleteOrder removes an order and its line items in one transaction.
// There is no soft delete or undo.
func (s *OrderService) DeleteOrder(ctx context.Context, locationID, orderID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	if err := store.DeleteOrderItems(ctx, orderID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	if _, err := store.DeleteOrder(ctx, database.DeleteOrderParams{ID: orderID, LocationID: locationID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("delete order: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *OrderService) trackingURL(orderID uuid.UUID) string {
	if s.trackingBaseURL == "" {
		return ""
	}
	return strings.TrimRight(s.trackingBaseURL, "/") + "/" + orderID.String()
}

// --- Helpers ---

func transitionAllowed(current, next string) bool {
	for _, s := range allowedTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

func isValidOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusPending, enum.OrderStatusProcessing,
		enum.OrderStatusReady, enum.OrderStatusCompleted,
		enum.OrderStatusCancelled:
		return true
	}
	return false
}

func isValidPaymentMethod(s string) bool {
	switch s {
	case enum.PaymentMethodCash, enum.PaymentMethodQRIS, enum.PaymentMethodTransfer:
		return true
	}
	return false
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
