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
	"github.com/launderlink/api/internal/database"
	"github.com/launderlink/api/internal/service"
)

// TrackingStore defines the database methods needed by the public
// tracking page. Satisfied by *database.Queries.
type TrackingStore interface {
	GetOrderByID(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// FeedbackServicer is the slice of the order service the tracking page
// needs. Satisfied by *service.OrderService.
type FeedbackServicer interface {
	AttachFeedback(ctx context.Context, orderID uuid.UUID, rating int32, review string) (database.Order, error)
}

// TrackingHandler serves the public order tracking page. No
// authentication: the order UUID is the capability, so the response
// carries no customer contact details or staff identities.
type TrackingHandler struct {
	store TrackingStore
	svc   FeedbackServicer
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(store TrackingStore, svc FeedbackServicer) *TrackingHandler {
	return &TrackingHandler{store: store, svc: svc}
}

// RegisterRoutes registers the public tracking endpoints.
func (h *TrackingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/track/{id}", h.Get)
	r.Post("/track/{id}/feedback", h.Feedback)
}

// --- Request / Response types ---

type trackedOrderResponse struct {
	OrderNumber    string              `json:"order_number"`
	CustomerName   string              `json:"customer_name"`
	Status         string              `json:"status"`
	Subtotal       string              `json:"subtotal"`
	DiscountAmount string              `json:"discount_amount"`
	TotalAmount    string              `json:"total_amount"`
	IsPaid         bool                `json:"is_paid"`
	Rating         *int32              `json:"rating"`
	Review         *string             `json:"review"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Items          []orderItemResponse `json:"items"`
}

type feedbackRequest struct {
	Rating int32  `json:"rating"`
	Review string `json:"review"`
}

// --- Handlers ---

// Get returns the public view of an order.
func (h *TrackingHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrderByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: track order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: track order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := trackedOrderResponse{
		OrderNumber:    order.OrderNumber,
		CustomerName:   order.CustomerName,
		Status:         order.Status,
		Subtotal:       numericToString(order.Subtotal),
		DiscountAmount: numericToString(order.DiscountAmount),
		TotalAmount:    numericToString(order.TotalAmount),
		IsPaid:         order.IsPaid,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
	if order.Rating.Valid {
		resp.Rating = &order.Rating.Int32
	}
	if order.Review.Valid {
		resp.Review = &order.Review.String
	}
	resp.Items = make([]orderItemResponse, len(items))
	for i, item := range items {
		resp.Items[i] = toOrderItemResponse(item)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Feedback attaches a rating and optional review to a completed order.
// Submitting again replaces the previous feedback.
func (h *TrackingHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.AttachFeedback(r.Context(), orderID, req.Rating, req.Review)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRating):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrOrderNotCompleted):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: attach feedback: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := map[string]interface{}{
		"order_number": order.OrderNumber,
		"rating":       req.Rating,
	}
	if order.Review.Valid {
		resp["review"] = order.Review.String
	}
	writeJSON(w, http.StatusOK, resp)
}
