package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/launderlink/api/internal/database"
	"github.com/launderlink/api/internal/insight"
	"github.com/shopspring/decimal"
)

// ReportStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportStore interface {
	GetDailyRevenue(ctx context.Context, arg database.GetDailyRevenueParams) ([]database.GetDailyRevenueRow, error)
	GetServiceSales(ctx context.Context, arg database.GetServiceSalesParams) ([]database.GetServiceSalesRow, error)
	GetPaymentSummary(ctx context.Context, arg database.GetPaymentSummaryParams) ([]database.GetPaymentSummaryRow, error)
	GetExpenseSummary(ctx context.Context, arg database.GetExpenseSummaryParams) ([]database.GetExpenseSummaryRow, error)
	GetLocationComparison(ctx context.Context, arg database.GetLocationComparisonParams) ([]database.GetLocationComparisonRow, error)
	GetOrderStatusCounts(ctx context.Context, arg database.GetOrderStatusCountsParams) ([]database.GetOrderStatusCountsRow, error)
}

// ReportHandler handles dashboard report endpoints. Cancelled orders are
// excluded from every revenue figure.
type ReportHandler struct {
	store    ReportStore
	insights insight.Generator // nil when no API key is configured
}

// NewReportHandler creates a new ReportHandler. The insights generator may
// be nil, which disables the AI insights endpoint.
func NewReportHandler(store ReportStore, insights insight.Generator) *ReportHandler {
	return &ReportHandler{store: store, insights: insights}
}

// RegisterRoutes registers location-scoped report endpoints.
// Expected to be mounted at /locations/{lid}/reports
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/daily-revenue", h.DailyRevenue)
	r.Get("/service-sales", h.ServiceSales)
	r.Get("/payment-summary", h.PaymentSummary)
	r.Get("/expense-summary", h.ExpenseSummary)
	r.Get("/insights", h.Insights)
}

// RegisterComparisonRoute registers the cross-location comparison report,
// mounted outside the location scope because it spans all of them.
func (h *ReportHandler) RegisterComparisonRoute(r chi.Router) {
	r.Get("/reports/location-comparison", h.LocationComparison)
}

// --- Response types ---

type dailyRevenueResponse struct {
	Date          string `json:"date"`
	OrderCount    int64  `json:"order_count"`
	TotalRevenue  string `json:"total_revenue"`
	TotalDiscount string `json:"total_discount"`
}

type serviceSalesResponse struct {
	ServiceID     uuid.UUID `json:"service_id"`
	ServiceName   string    `json:"service_name"`
	TotalQuantity string    `json:"total_quantity"`
	TotalRevenue  string    `json:"total_revenue"`
}

type paymentSummaryResponse struct {
	PaymentMethod string `json:"payment_method"`
	OrderCount    int64  `json:"order_count"`
	TotalAmount   string `json:"total_amount"`
}

type expenseSummaryResponse struct {
	Category     string `json:"category"`
	ExpenseCount int64  `json:"expense_count"`
	TotalAmount  string `json:"total_amount"`
}

type locationComparisonResponse struct {
	LocationID   uuid.UUID `json:"location_id"`
	LocationName string    `json:"location_name"`
	OrderCount   int64     `json:"order_count"`
	TotalRevenue string    `json:"total_revenue"`
}

// --- Handlers ---

// DailyRevenue returns per-day order counts and revenue for a location.
func (h *ReportHandler) DailyRevenue(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "lid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location ID"})
		return
	}

	start, end, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.GetDailyRevenue(r.Context(), database.GetDailyRevenueParams{
		LocationID: locationID,
		StartDate:  pgtype.Timestamptz{Time: start, Valid: true},
		EndDate:    pgtype.Timestamptz{Time: end, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: daily revenue report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]dailyRevenueResponse, len(rows))
	for i, row := range rows {
		resp[i] = dailyRevenueResponse{
			Date:          row.SaleDate.Time.Format("2006-01-02"),
			OrderCount:    row.OrderCount,
			TotalRevenue:  numericToString(row.TotalRevenue),
			TotalDiscount: numericToString(row.TotalDiscount),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ServiceSales returns quantity and revenue per service for a location.
func (h *ReportHandler) ServiceSales(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "lid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location ID"})
		return
	}

	start, end, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.GetServiceSales(r.Context(), database.GetServiceSalesParams{
		LocationID: locationID,
		StartDate:  pgtype.Timestamptz{Time: start, Valid: true},
		EndDate:    pgtype.Timestamptz{Time: end, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: service sales report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]serviceSalesResponse, len(rows))
	for i, row := range rows {
		resp[i] = serviceSalesResponse{
			ServiceID:     row.ServiceID,
			ServiceName:   row.ServiceName,
			TotalQuantity: quantityToString(row.TotalQuantity),
			TotalRevenue:  numericToString(row.TotalRevenue),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// PaymentSummary returns paid order totals grouped by payment method.
func (h *ReportHandler) PaymentSummary(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "lid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location ID"})
		return
	}

	start, end, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.GetPaymentSummary(r.Context(), database.GetPaymentSummaryParams{
		LocationID: locationID,
		StartDate:  pgtype.Timestamptz{Time: start, Valid: true},
		EndDate:    pgtype.Timestamptz{Time: end, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: payment summary report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]paymentSummaryResponse, len(rows))
	for i, row := range rows {
		method := "UNKNOWN"
		if row.PaymentMethod.Valid {
			method = row.PaymentMethod.String
		}
		resp[i] = paymentSummaryResponse{
			PaymentMethod: method,
			OrderCount:    row.OrderCount,
			TotalAmount:   numericToString(row.TotalAmount),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ExpenseSummary returns expense totals grouped by category. Includes
// expenses recorded for this location and shared ones without a location.
func (h *ReportHandler) ExpenseSummary(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "lid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location ID"})
		return
	}

	start, end, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.GetExpenseSummary(r.Context(), database.GetExpenseSummaryParams{
		LocationID: pgtype.UUID{Bytes: locationID, Valid: true},
		StartDate:  pgtype.Timestamptz{Time: start, Valid: true},
		EndDate:    pgtype.Timestamptz{Time: end, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: expense summary report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]expenseSummaryResponse, len(rows))
	for i, row := range rows {
		resp[i] = expenseSummaryResponse{
			Category:     row.Category,
			ExpenseCount: row.ExpenseCount,
			TotalAmount:  numericToString(row.TotalAmount),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// LocationComparison ranks all locations by revenue. Owner-only.
func (h *ReportHandler) LocationComparison(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.GetLocationComparison(r.Context(), database.GetLocationComparisonParams{
		StartDate: pgtype.Timestamptz{Time: start, Valid: true},
		EndDate:   pgtype.Timestamptz{Time: end, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: location comparison report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]locationComparisonResponse, len(rows))
	for i, row := range rows {
		resp[i] = locationComparisonResponse{
			LocationID:   row.LocationID,
			LocationName: row.LocationName,
			OrderCount:   row.OrderCount,
			TotalRevenue: numericToString(row.TotalRevenue),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Insights summarizes the last seven days of orders and asks the AI model
// for a one-sentence summary plus three tips. Model failures degrade to a
// canned response instead of an error, so the dashboard widget never breaks.
func (h *ReportHandler) Insights(w http.ResponseWriter, r *http.Request) {
	if h.insights == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "insights are not configured"})
		return
	}

	locationID, err := uuid.Parse(chi.URLParam(r, "lid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location ID"})
		return
	}

	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		loc = time.FixedZone("WIB", 7*3600)
	}
	now := time.Now().In(loc)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -7)

	rows, err := h.store.GetOrderStatusCounts(r.Context(), database.GetOrderStatusCountsParams{
		LocationID: locationID,
		StartDate:  pgtype.Timestamptz{Time: start, Valid: true},
		EndDate:    pgtype.Timestamptz{Time: end, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: insights stats: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	stats := insight.Stats{ByStatus: make(map[string]int, len(rows))}
	revenue := decimal.Zero
	for _, row := range rows {
		stats.TotalOrders += int(row.OrderCount)
		stats.ByStatus[row.Status] = int(row.OrderCount)
		revenue = revenue.Add(numericToDecimal(row.TotalRevenue))
	}
	stats.Revenue = revenue.StringFixed(2)

	result, err := h.insights.GenerateBusinessInsights(r.Context(), stats)
	if err != nil {
		log.Printf("ERROR: generate insights: %v", err)
		result = insight.Fallback()
	}

	writeJSON(w, http.StatusOK, result)
}

// --- Helpers ---

// parseDateRange parses start_date and end_date query params in
// Asia/Jakarta timezone. Defaults to the last 30 days if not provided.
// The returned end is exclusive (next day midnight).
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	const layout = "2006-01-02"

	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		loc = time.FixedZone("WIB", 7*3600)
	}

	now := time.Now().In(loc)
	startDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -30)
	endDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date format: %w", err)
		}
		startDate = t
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date format: %w", err)
		}
		endDate = t.AddDate(0, 0, 1)
	}

	if !startDate.Before(endDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date must be before end_date")
	}

	return startDate, endDate, nil
}
