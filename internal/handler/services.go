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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/launderlink/api/internal/database"
	"github.com/shopspring/decimal"
)

// ServiceStore defines the database methods needed by service catalog
// handlers. Satisfied by *database.Queries; narrow interface for testability.
type ServiceStore interface {
	ListServices(ctx context.Context) ([]database.Service, error)
	GetService(ctx context.Context, id uuid.UUID) (database.Service, error)
	CreateService(ctx context.Context, arg database.CreateServiceParams) (database.Service, error)
	UpdateService(ctx context.Context, arg database.UpdateServiceParams) (database.Service, error)
	SoftDeleteService(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// ServiceHandler handles the laundry service catalog (wash, iron, dry
// clean and so on). The catalog is shared across all locations.
type ServiceHandler struct {
	store ServiceStore
}

// NewServiceHandler creates a new ServiceHandler.
func NewServiceHandler(store ServiceStore) *ServiceHandler {
	return &ServiceHandler{store: store}
}

// RegisterRoutes registers service catalog endpoints on the given Chi router.
func (h *ServiceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
	})
}

// --- Request / Response types ---

type serviceRequest struct {
	Name          string `json:"name"`
	Price         string `json:"price"`
	Unit          string `json:"unit"`
	Description   string `json:"description"`
	DurationHours int32  `json:"duration_hours"`
}

type serviceResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Price         string    `json:"price"`
	Unit          string    `json:"unit"`
	Description   *string   `json:"description"`
	DurationHours int32     `json:"duration_hours"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toServiceResponse(s database.Service) serviceResponse {
	resp := serviceResponse{
		ID:            s.ID,
		Name:          s.Name,
		Price:         numericToString(s.Price),
		Unit:          s.Unit,
		DurationHours: s.DurationHours,
		IsActive:      s.IsActive,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.Description.Valid {
		resp.Description = &s.Description.String
	}
	return resp
}

// parseServiceRequest validates the shared create/update payload.
func parseServiceRequest(req serviceRequest) (pgtype.Numeric, string, bool) {
	if req.Name == "" {
		return pgtype.Numeric{}, "name is required", false
	}
	if req.Unit == "" {
		return pgtype.Numeric{}, "unit is required", false
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return pgtype.Numeric{}, "price must be a non-negative number", false
	}
	if req.DurationHours < 0 {
		return pgtype.Numeric{}, "duration_hours must be >= 0", false
	}
	return decimalToNumeric(price), "", true
}

// --- Handlers ---

// List returns all active services.
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.store.ListServices(r.Context())
	if err != nil {
		log.Printf("ERROR: list services: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]serviceResponse, len(services))
	for i, s := range services {
		resp[i] = toServiceResponse(s)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single service by ID.
func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	serviceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid service ID"})
		return
	}

	svc, err := h.store.GetService(r.Context(), serviceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "service not found"})
			return
		}
		log.Printf("ERROR: get service: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toServiceResponse(svc))
}

// Create adds a new service to the catalog.
func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	price, msg, ok := parseServiceRequest(req)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	var description pgtype.Text
	if req.Description != "" {
		description = pgtype.Text{String: req.Description, Valid: true}
	}

	svc, err := h.store.CreateService(r.Context(), database.CreateServiceParams{
		Name:          req.Name,
		Price:         price,
		Unit:          req.Unit,
		Description:   description,
		DurationHours: req.DurationHours,
	})
	if err != nil {
		log.Printf("ERROR: create service: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toServiceResponse(svc))
}

// Update modifies a service. Existing order items keep their snapshot of
// the old name and price.
func (h *ServiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	serviceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid service ID"})
		return
	}

	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	price, msg, ok := parseServiceRequest(req)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	var description pgtype.Text
	if req.Description != "" {
		description = pgtype.Text{String: req.Description, Valid: true}
	}

	svc, err := h.store.UpdateService(r.Context(), database.UpdateServiceParams{
		ID:            serviceID,
		Name:          req.Name,
		Price:         price,
		Unit:          req.Unit,
		Description:   description,
		DurationHours: req.DurationHours,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "service not found"})
			return
		}
		log.Printf("ERROR: update service: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toServiceResponse(svc))
}

// Delete soft-deletes a service so it disappears from new order intake.
func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	serviceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid service ID"})
		return
	}

	if _, err := h.store.SoftDeleteService(r.Context(), serviceID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "service not found"})
			return
		}
		log.Printf("ERROR: delete service: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
