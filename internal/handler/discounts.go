package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/launderlink/api/internal/database"
	"github.com/launderlink/api/internal/pricing"
	"github.com/shopspring/decimal"
)

// DiscountStore defines the database methods needed by discount handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type DiscountStore interface {
	ListDiscounts(ctx context.Context) ([]database.Discount, error)
	GetDiscountByCode(ctx context.Context, code string) (database.Discount, error)
	CreateDiscount(ctx context.Context, arg database.CreateDiscountParams) (database.Discount, error)
	UpdateDiscount(ctx context.Context, arg database.UpdateDiscountParams) (database.Discount, error)
	DeleteDiscount(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	ListOrdersByDiscountCode(ctx context.Context, code string) ([]database.Order, error)
}

// DiscountHandler handles voucher administration. All endpoints except
// Validate are owner-only via the router.
type DiscountHandler struct {
	store DiscountStore
}

// NewDiscountHandler creates a new DiscountHandler.
func NewDiscountHandler(store DiscountStore) *DiscountHandler {
	return &DiscountHandler{store: store}
}

// RegisterRoutes registers the owner-only voucher endpoints.
func (h *DiscountHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
	})
	r.Get("/{code}/orders", h.Usage)
}

// RegisterValidateRoute registers the voucher preview endpoint available
// to all authenticated staff during order intake.
func (h *DiscountHandler) RegisterValidateRoute(r chi.Router) {
	r.Post("/discounts/validate", h.Validate)
}

// --- Request / Response types ---

type discountRequest struct {
	Code     string `json:"code"`
	Type     string `json:"type"`
	Value    string `json:"value"`
	Quota    int32  `json:"quota"`
	IsActive *bool  `json:"is_active"`
}

type validateDiscountRequest struct {
	Code     string `json:"code"`
	Subtotal string `json:"subtotal"`
}

type discountResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Type      string    `json:"type"`
	Value     string    `json:"value"`
	Quota     int32     `json:"quota"`
	UsedCount int32     `json:"used_count"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type validateDiscountResponse struct {
	Code           string `json:"code"`
	Type           string `json:"type"`
	Value          string `json:"value"`
	DiscountAmount string `json:"discount_amount"`
	Total          string `json:"total"`
}

func toDiscountResponse(d database.Discount) discountResponse {
	return discountResponse{
		ID:        d.ID,
		Code:      d.Code,
		Type:      d.Type,
		Value:     numericToString(d.Value),
		Quota:     d.Quota,
		UsedCount: d.UsedCount,
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// parseDiscountRequest runs the payload through the domain factory so the
// code, type, and value rules stay in one place.
func parseDiscountRequest(req discountRequest) (pricing.Discount, string, bool) {
	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		return pricing.Discount{}, "value must be a number", false
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	d, err := pricing.NewDiscount(req.Code, req.Type, value, req.Quota, active)
	if err != nil {
		return pricing.Discount{}, err.Error(), false
	}
	return d, "", true
}

// --- Handlers ---

// List returns all vouchers, active or not.
func (h *DiscountHandler) List(w http.ResponseWriter, r *http.Request) {
	discounts, err := h.store.ListDiscounts(r.Context())
	if err != nil {
		log.Printf("ERROR: list discounts: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]discountResponse, len(discounts))
	for i, d := range discounts {
		resp[i] = toDiscountResponse(d)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create adds a new voucher.
func (h *DiscountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	d, msg, ok := parseDiscountRequest(req)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	created, err := h.store.CreateDiscount(r.Context(), database.CreateDiscountParams{
		Code:     d.Code,
		Type:     d.Type,
		Value:    decimalToNumeric(d.Value),
		Quota:    d.Quota,
		IsActive: d.Active,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "voucher code already exists"})
			return
		}
		log.Printf("ERROR: create discount: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toDiscountResponse(created))
}

// Update modifies a voucher. The used count is never writable.
func (h *DiscountHandler) Update(w http.ResponseWriter, r *http.Request) {
	discountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid discount ID"})
		return
	}

	var req discountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	d, msg, ok := parseDiscountRequest(req)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	updated, err := h.store.UpdateDiscount(r.Context(), database.UpdateDiscountParams{
		ID:       discountID,
		Code:     d.Code,
		Type:     d.Type,
		Value:    decimalToNumeric(d.Value),
		Quota:    d.Quota,
		IsActive: d.Active,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "discount not found"})
			return
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "voucher code already exists"})
			return
		}
		log.Printf("ERROR: update discount: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toDiscountResponse(updated))
}

// Delete removes a voucher entirely. Orders that already redeemed it keep
// their snapshot of the code and amount.
func (h *DiscountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	discountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid discount ID"})
		return
	}

	if _, err := h.store.DeleteDiscount(r.Context(), discountID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "discount not found"})
			return
		}
		log.Printf("ERROR: delete discount: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Usage lists the orders that redeemed a voucher code.
func (h *DiscountHandler) Usage(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code is required"})
		return
	}

	if _, err := h.store.GetDiscountByCode(r.Context(), code); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "discount not found"})
			return
		}
		log.Printf("ERROR: get discount for usage: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	orders, err := h.store.ListOrdersByDiscountCode(r.Context(), code)
	if err != nil {
		log.Printf("ERROR: list orders by discount: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Validate previews a voucher against a subtotal without redeeming it.
// Used by the order intake screen; the authoritative check happens again
// inside the order transaction.
func (h *DiscountHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code is required"})
		return
	}
	subtotal, err := decimal.NewFromString(req.Subtotal)
	if err != nil || subtotal.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "subtotal must be a non-negative number"})
		return
	}

	row, err := h.store.GetDiscountByCode(r.Context(), req.Code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": pricing.ErrVoucherNotFound.Error()})
			return
		}
		log.Printf("ERROR: get discount for validate: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	voucher, err := pricing.ValidateVoucher(req.Code, []pricing.Discount{{
		Code:      row.Code,
		Type:      row.Type,
		Value:     numericToDecimal(row.Value),
		Quota:     row.Quota,
		UsedCount: row.UsedCount,
		Active:    row.IsActive,
	}})
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	amount := pricing.DiscountAmount(subtotal, voucher)
	writeJSON(w, http.StatusOK, validateDiscountResponse{
		Code:           voucher.Code,
		Type:           voucher.Type,
		Value:          voucher.Value.String(),
		DiscountAmount: amount.String(),
		Total:          pricing.Total(subtotal, amount).String(),
	})
}

// numericToDecimal converts a numeric column value for pricing math.
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
