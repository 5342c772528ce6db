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
)

// LocationStore defines the database methods needed by location handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type LocationStore interface {
	ListLocations(ctx context.Context) ([]database.Location, error)
	GetLocation(ctx context.Context, id uuid.UUID) (database.Location, error)
	CreateLocation(ctx context.Context, arg database.CreateLocationParams) (database.Location, error)
	UpdateLocation(ctx context.Context, arg database.UpdateLocationParams) (database.Location, error)
	SoftDeleteLocation(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// LocationHandler handles shop location endpoints. Reads are available to
// all authenticated users; writes are owner-only via the router.
type LocationHandler struct {
	store LocationStore
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(store LocationStore) *LocationHandler {
	return &LocationHandler{store: store}
}

// RegisterReadRoutes registers the read-only location endpoints.
func (h *LocationHandler) RegisterReadRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{lid}", h.Get)
}

// RegisterWriteRoutes registers the owner-only location endpoints.
func (h *LocationHandler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{lid}", h.Update)
	r.Delete("/{lid}", h.Delete)
}

// --- Request / Response types ---

type locationRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type locationResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toLocationResponse(l database.Location) locationResponse {
	return locationResponse{
		ID:        l.ID,
		Name:      l.Name,
		Address:   l.Address,
		Phone:     l.Phone,
		IsActive:  l.IsActive,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

// --- Handlers ---

// List returns all active locations.
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	locations, err := h.store.ListLocations(r.Context())
	if err != nil {
		log.Printf("ERROR: list locations: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]locationResponse, len(locations))
	for i, l := range locations {
		resp[i] = toLocationResponse(l)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single location by ID.
func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "lid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location ID"})
		return
	}

	location, err := h.store.GetLocation(r.Context(), locationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "location not found"})
			return
		}
		log.Printf("ERROR: get location: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toLocationResponse(location))
}

// Create adds a new shop location.
func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	location, err := h.store.CreateLocation(r.Context(), database.CreateLocationParams{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
	})
	if err != nil {
		log.Printf("ERROR: create location: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toLocationResponse(location))
}

// Update modifies a shop location.
func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "lid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location ID"})
		return
	}

	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	location, err := h.store.UpdateLocation(r.Context(), database.UpdateLocationParams{
		ID:      locationID,
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "location not found"})
			return
		}
		log.Printf("ERROR: update location: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toLocationResponse(location))
}

// Delete soft-deletes a location. Existing orders keep referencing it.
func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "lid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location ID"})
		return
	}

	if _, err := h.store.SoftDeleteLocation(r.Context(), locationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "location not found"})
			return
		}
		log.Printf("ERROR: delete location: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
