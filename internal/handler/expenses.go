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
	"github.com/launderlink/api/internal/enum"
	"github.com/launderlink/api/internal/middleware"
	"github.com/shopspring/decimal"
)

// ExpenseStore defines the database methods needed by expense handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, arg database.CreateExpenseParams) (database.Expense, error)
	ListExpenses(ctx context.Context, arg database.ListExpensesParams) ([]database.Expense, error)
	DeleteExpense(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// ExpenseHandler handles operating expense endpoints.
type ExpenseHandler struct {
	store ExpenseStore
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(store ExpenseStore) *ExpenseHandler {
	return &ExpenseHandler{store: store}
}

// RegisterRoutes registers expense endpoints on the given Chi router.
func (h *ExpenseHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createExpenseRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	ExpenseDate string `json:"expense_date"`
	LocationID  string `json:"location_id"`
}

type expenseResponse struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	ExpenseDate time.Time `json:"expense_date"`
	RecordedBy  string    `json:"recorded_by"`
	LocationID  *string   `json:"location_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func toExpenseResponse(e database.Expense) expenseResponse {
	resp := expenseResponse{
		ID:          e.ID,
		Description: e.Description,
		Amount:      numericToString(e.Amount),
		Category:    e.Category,
		ExpenseDate: e.ExpenseDate,
		RecordedBy:  e.RecordedBy,
		CreatedAt:   e.CreatedAt,
	}
	if e.LocationID.Valid {
		s := uuid.UUID(e.LocationID.Bytes).String()
		resp.LocationID = &s
	}
	return resp
}

func isValidExpenseCategory(s string) bool {
	switch s {
	case enum.ExpenseCategoryOperational, enum.ExpenseCategorySupplies,
		enum.ExpenseCategoryMaintenance, enum.ExpenseCategoryOther:
		return true
	}
	return false
}

// --- Handlers ---

// Create records an expense. The recorder is taken from the access token,
// not the payload.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Description == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "description is required"})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be a positive number"})
		return
	}
	if !isValidExpenseCategory(req.Category) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category"})
		return
	}

	expenseDate := time.Now()
	if req.ExpenseDate != "" {
		expenseDate, err = time.Parse("2006-01-02", req.ExpenseDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid expense_date, use YYYY-MM-DD"})
			return
		}
	}

	var locationID pgtype.UUID
	if req.LocationID != "" {
		id, err := uuid.Parse(req.LocationID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location_id"})
			return
		}
		locationID = pgtype.UUID{Bytes: id, Valid: true}
	}

	expense, err := h.store.CreateExpense(r.Context(), database.CreateExpenseParams{
		Description: req.Description,
		Amount:      decimalToNumeric(amount),
		Category:    req.Category,
		ExpenseDate: expenseDate,
		RecordedBy:  claims.UserID.String(),
		LocationID:  locationID,
	})
	if err != nil {
		log.Printf("ERROR: create expense: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toExpenseResponse(expense))
}

// List returns expenses with optional location and date range filters.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
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

	var locationID pgtype.UUID
	if s := r.URL.Query().Get("location_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location_id"})
			return
		}
		locationID = pgtype.UUID{Bytes: id, Valid: true}
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

	expenses, err := h.store.ListExpenses(r.Context(), database.ListExpensesParams{
		LocationID: locationID,
		StartDate:  startDate,
		EndDate:    endDate,
		Limit:      int32(limit),
		Offset:     int32(offset),
	})
	if err != nil {
		log.Printf("ERROR: list expenses: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		resp[i] = toExpenseResponse(e)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Delete removes an expense record.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	expenseID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid expense ID"})
		return
	}

	if _, err := h.store.DeleteExpense(r.Context(), expenseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "expense not found"})
			return
		}
		log.Printf("ERROR: delete expense: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
