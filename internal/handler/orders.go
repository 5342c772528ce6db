package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/launderlink/api/internal/database"
	"github.com/launderlink/api/internal/middleware"
	"github.com/launderlink/api/internal/notify"
	"github.com/launderlink/api/internal/pricing"
	"github.com/launderlink/api/internal/service"
	"github.com/launderlink/api/internal/ws"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	TransitionStatus(ctx context.Context, req service.TransitionRequest) (*service.TransitionResult, error)
	ConfirmPayment(ctx context.Context, locationID, orderID uuid.UUID, method string) (database.Order, error)
	ComposeReceipt(ctx context.Context, locationID, orderID uuid.UUID) (*notify.Message, error)
	DeleteOrder(ctx context.Context, locationID, orderID uuid.UUID) error
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	CancelOrder(ctx context.Context, arg database.CancelOrderParams) (database.Order, error)
}

// OrderBroadcaster pushes order events to location dashboards.
// Satisfied by *ws.Hub.
type OrderBroadcaster interface {
	BroadcastToLocation(locationID uuid.UUID, event ws.Event)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
	hub   OrderBroadcaster
}

// NewOrderHandler creates a new OrderHandler. hub may be nil in tests.
func NewOrderHandler(svc OrderServicer, store OrderStore, hub OrderBroadcaster) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, hub: hub}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted inside a location-scoped subrouter:
// /locations/{lid}/orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Get("/receipt", h.Receipt)
		r.Patch("/status", h.UpdateStatus)
		r.Post("/payment", h.ConfirmPayment)
	})
}

// RegisterPrivilegedRoutes registers the owner-only order endpoints.
// Mounted at the same prefix behind a role check.
func (h *OrderHandler) RegisterPrivilegedRoutes(r chi.Router) {
	r.Post("/{id}/cancel", h.Cancel)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createOrderRequest struct {
	CustomerID    string                   `json:"customer_id"`
	VoucherCode   string                   `json:"voucher_code"`
	Perfume       string                   `json:"perfume"`
	ReceivedBy    string                   `json:"received_by"`
	IsPaid        bool                     `json:"is_paid"`
	PaymentMethod string                   `json:"payment_method"`
	Items         []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	ServiceID string `json:"service_id"`
	Quantity  string `json:"quantity"`
}

type updateOrderStatusRequest struct {
	Status      string `json:"status"`
	CompletedBy string `json:"completed_by"`
	Notify      bool   `json:"notify"`
}

type confirmPaymentRequest struct {
	PaymentMethod string `json:"payment_method"`
}

type orderResponse struct {
	ID             uuid.UUID           `json:"id"`
	LocationID     uuid.UUID           `json:"location_id"`
	OrderNumber    string              `json:"order_number"`
	CustomerID     uuid.UUID           `json:"customer_id"`
	CustomerName   string              `json:"customer_name"`
	Status         string              `json:"status"`
	Subtotal       string              `json:"subtotal"`
	DiscountCode   *string             `json:"discount_code"`
	DiscountAmount string              `json:"discount_amount"`
	TotalAmount    string              `json:"total_amount"`
	IsPaid         bool                `json:"is_paid"`
	PaymentMethod  *string             `json:"payment_method"`
	Perfume        *string             `json:"perfume"`
	ReceivedBy     *string             `json:"received_by"`
	CompletedBy    *string             `json:"completed_by"`
	Rating         *int32              `json:"rating"`
	Review         *string             `json:"review"`
	CreatedBy      uuid.UUID           `json:"created_by"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Items          []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID          uuid.UUID `json:"id"`
	ServiceID   uuid.UUID `json:"service_id"`
	ServiceName string    `json:"service_name"`
	UnitPrice   string    `json:"unit_price"`
	Unit        string    `json:"unit"`
	Quantity    string    `json:"quantity"`
	Subtotal    string    `json:"subtotal"`
}

// whatsappResponse is a composed customer message the frontend opens as a
// wa.me link.
type whatsappResponse struct {
	Phone string `json:"phone"`
	Body  string `json:"body"`
	Link  string `json:"link"`
}

type createOrderResponse struct {
	orderResponse
	WhatsApp whatsappResponse `json:"whatsapp"`
}

type updateStatusResponse struct {
	orderResponse
	WhatsApp *whatsappResponse `json:"whatsapp,omitempty"`
}

// --- Handlers ---

// Create takes in a new laundry order.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "lid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	items := make([]service.CreateOrderItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.CreateOrderItemRequest{
			ServiceID: item.ServiceID,
			Quantity:  item.Quantity,
		}
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		LocationID:    locationID,
		CreatedBy:     claims.UserID,
		CustomerID:    req.CustomerID,
		VoucherCode:   req.VoucherCode,
		Perfume:       req.Perfume,
		ReceivedBy:    req.ReceivedBy,
		IsPaid:        req.IsPaid,
		PaymentMethod: req.PaymentMethod,
		Items:         items,
	})
	if err != nil {
		switch {
		case isOrderValidationError(err):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrVoucherRace):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: create order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := createOrderResponse{
		orderResponse: dbOrderToResponse(result.Order),
		WhatsApp: whatsappResponse{
			Phone: result.Receipt.Phone,
			Body:  result.Receipt.Body,
			Link:  result.Receipt.Link(),
		},
	}
	resp.Items = make([]orderItemResponse, len(result.Items))
	for i, item := range result.Items {
		resp.Items[i] = toOrderItemResponse(item)
	}

	h.broadcast(locationID, "order.created", resp.orderResponse)
	writeJSON(w, http.StatusCreated, resp)
}

// List returns orders for a location with optional status and date filters.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "lid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location ID"})
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	var status pgtype.Text
	if s := r.URL.Query().Get("status"); s != "" {
		status = pgtype.Text{String: s, Valid: true}
	}

	var startDate, endDate pgtype.Timestamptz
	if r.URL.Query().Get("start_date") != "" || r.URL.Query().Get("end_date") != "" {
		start, end, err := parseDateRange(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		startDate = pgtype.Timestamptz{Time: start, Valid: true}
		endDate = pgtype.Timestamptz{Time: end, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), database.ListOrdersParams{
		LocationID: locationID,
		Status:     status,
		StartDate:  startDate,
		EndDate:    endDate,
		Limit:      int32(limit),
		Offset:     int32(offset),
	})
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single order with its item snapshots.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "lid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{
		ID:         orderID,
		LocationID: locationID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dbOrderToResponse(order)
	resp.Items = make([]orderItemResponse, len(items))
	for i, item := range items {
		resp.Items[i] = toOrderItemResponse(item)
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus moves an order one step along the pipeline.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "lid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.TransitionStatus(r.Context(), service.TransitionRequest{
		LocationID:  locationID,
		OrderID:     orderID,
		NextStatus:  req.Status,
		CompletedBy: req.CompletedBy,
		Notify:      req.Notify,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrStatusConflict):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidStatus),
			errors.Is(err, service.ErrIllegalTransition),
			errors.Is(err, service.ErrCompletedByRequired):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: update order status: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := updateStatusResponse{orderResponse: dbOrderToResponse(result.Order)}
	if result.Notification != nil {
		resp.WhatsApp = &whatsappResponse{
			Phone: result.Notification.Phone,
			Body:  result.Notification.Body,
			Link:  result.Notification.Link(),
		}
	}

	h.broadcast(locationID, "order.status_changed", resp.orderResponse)
	writeJSON(w, http.StatusOK, resp)
}

// ConfirmPayment marks an order as paid.
func (h *OrderHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "lid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req confirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.ConfirmPayment(r.Context(), locationID, orderID, req.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPaymentMethod):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		default:
			log.Printf("ERROR: confirm payment: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := dbOrderToResponse(order)
	h.broadcast(locationID, "order.paid", resp)
	writeJSON(w, http.StatusOK, resp)
}

// Receipt recomposes the electronic receipt for an existing order so staff
// can resend it to the customer.
func (h *OrderHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "lid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	msg, err := h.svc.ComposeReceipt(r.Context(), locationID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		default:
			log.Printf("ERROR: compose receipt: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, whatsappResponse{
		Phone: msg.Phone,
		Body:  msg.Body,
		Link:  msg.Link(),
	})
}

// Cancel voids an order without deleting its record. Already-completed or
// cancelled orders cannot be cancelled.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "lid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.CancelOrder(r.Context(), database.CancelOrderParams{
		ID:         orderID,
		LocationID: locationID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order cannot be cancelled"})
			return
		}
		log.Printf("ERROR: cancel order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dbOrderToResponse(order)
	h.broadcast(locationID, "order.cancelled", resp)
	writeJSON(w, http.StatusOK, resp)
}

// Delete permanently removes an order and its items.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "lid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	if err := h.svc.DeleteOrder(r.Context(), locationID, orderID); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: delete order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

// broadcast pushes an order event to the location's dashboard room.
func (h *OrderHandler) broadcast(locationID uuid.UUID, eventType string, payload interface{}) {
	if h.hub == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal %s event: %v", eventType, err)
		return
	}
	h.hub.BroadcastToLocation(locationID, ws.Event{Type: eventType, Payload: raw})
}

// isOrderValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isOrderValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyCart) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrDuplicateService) ||
		errors.Is(err, service.ErrInvalidServiceID) ||
		errors.Is(err, service.ErrServiceNotFound) ||
		errors.Is(err, service.ErrInvalidCustomerID) ||
		errors.Is(err, service.ErrCustomerNotFound) ||
		errors.Is(err, service.ErrLocationNotFound) ||
		errors.Is(err, service.ErrInvalidPaymentMethod) ||
		errors.Is(err, pricing.ErrVoucherNotFound) ||
		errors.Is(err, pricing.ErrVoucherInactive) ||
		errors.Is(err, pricing.ErrVoucherQuotaExceeded)
}

func toOrderItemResponse(item database.OrderItem) orderItemResponse {
	return orderItemResponse{
		ID:          item.ID,
		ServiceID:   item.ServiceID,
		ServiceName: item.ServiceName,
		UnitPrice:   numericToString(item.UnitPrice),
		Unit:        item.Unit,
		Quantity:    quantityToString(item.Quantity),
		Subtotal:    numericToString(item.Subtotal),
	}
}

// dbOrderToResponse converts a database.Order to an orderResponse.
func dbOrderToResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:             o.ID,
		LocationID:     o.LocationID,
		OrderNumber:    o.OrderNumber,
		CustomerID:     o.CustomerID,
		CustomerName:   o.CustomerName,
		Status:         o.Status,
		Subtotal:       numericToString(o.Subtotal),
		DiscountAmount: numericToString(o.DiscountAmount),
		TotalAmount:    numericToString(o.TotalAmount),
		IsPaid:         o.IsPaid,
		CreatedBy:      o.CreatedBy,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}

	if o.DiscountCode.Valid {
		resp.DiscountCode = &o.DiscountCode.String
	}
	if o.PaymentMethod.Valid {
		resp.PaymentMethod = &o.PaymentMethod.String
	}
	if o.Perfume.Valid {
		resp.Perfume = &o.Perfume.String
	}
	if o.ReceivedBy.Valid {
		resp.ReceivedBy = &o.ReceivedBy.String
	}
	if o.CompletedBy.Valid {
		resp.CompletedBy = &o.CompletedBy.String
	}
	if o.Rating.Valid {
		resp.Rating = &o.Rating.Int32
	}
	if o.Review.Valid {
		resp.Review = &o.Review.String
	}

	return resp
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

// quantityToString renders a quantity without forced decimal places, so a
// piece count shows as "3" and a weight as "2.5".
func quantityToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0"
	}
	return d.String()
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
