package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/launderlink/api/internal/database"
	"github.com/launderlink/api/internal/handler"
)

// --- Mock store ---

type mockLocationStore struct {
	locations map[uuid.UUID]database.Location
}

func newMockLocationStore() *mockLocationStore {
	return &mockLocationStore{locations: make(map[uuid.UUID]database.Location)}
}

func (m *mockLocationStore) ListLocations(_ context.Context) ([]database.Location, error) {
	var out []database.Location
	for _, l := range m.locations {
		if l.IsActive {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockLocationStore) GetLocation(_ context.Context, id uuid.UUID) (database.Location, error) {
	l, ok := m.locations[id]
	if !ok || !l.IsActive {
		return database.Location{}, pgx.ErrNoRows
	}
	return l, nil
}

func (m *mockLocationStore) CreateLocation(_ context.Context, arg database.CreateLocationParams) (database.Location, error) {
	l := database.Location{
		ID:        uuid.New(),
		Name:      arg.Name,
		Address:   arg.Address,
		Phone:     arg.Phone,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.locations[l.ID] = l
	return l, nil
}

func (m *mockLocationStore) UpdateLocation(_ context.Context, arg database.UpdateLocationParams) (database.Location, error) {
	l, ok := m.locations[arg.ID]
	if !ok || !l.IsActive {
		return database.Location{}, pgx.ErrNoRows
	}
	l.Name = arg.Name
	l.Address = arg.Address
	l.Phone = arg.Phone
	m.locations[arg.ID] = l
	return l, nil
}

func (m *mockLocationStore) SoftDeleteLocation(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	l, ok := m.locations[id]
	if !ok || !l.IsActive {
		return uuid.Nil, pgx.ErrNoRows
	}
	l.IsActive = false
	m.locations[id] = l
	return id, nil
}

func setupLocationRouter(store handler.LocationStore) *chi.Mux {
	h := handler.NewLocationHandler(store)
	r := chi.NewRouter()
	r.Route("/locations", func(r chi.Router) {
		h.RegisterReadRoutes(r)
		h.RegisterWriteRoutes(r)
	})
	return r
}

// --- Tests ---

func TestCreateLocation(t *testing.T) {
	store := newMockLocationStore()
	router := setupLocationRouter(store)

	rr := doJSONRequest(t, router, http.MethodPost, "/locations", map[string]string{
		"name":    "Laundry Sehati Cabang Kemang",
		"address": "Jl. Kemang Raya No. 12",
		"phone":   "0215550123",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Name     string `json:"name"`
		IsActive bool   `json:"is_active"`
	}
	decodeBody(t, rr, &resp)
	if resp.Name != "Laundry Sehati Cabang Kemang" || !resp.IsActive {
		t.Errorf("response = %+v", resp)
	}
}

func TestCreateLocationRequiresName(t *testing.T) {
	router := setupLocationRouter(newMockLocationStore())

	rr := doJSONRequest(t, router, http.MethodPost, "/locations", map[string]string{
		"address": "Jl. Kemang Raya No. 12",
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestGetLocationNotFound(t *testing.T) {
	router := setupLocationRouter(newMockLocationStore())

	rr := doJSONRequest(t, router, http.MethodGet, "/locations/"+uuid.New().String(), nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestDeleteLocationHidesFromList(t *testing.T) {
	store := newMockLocationStore()
	l, err := store.CreateLocation(context.Background(), database.CreateLocationParams{Name: "Cabang Lama"})
	if err != nil {
		t.Fatalf("seed location: %v", err)
	}
	router := setupLocationRouter(store)

	rr := doJSONRequest(t, router, http.MethodDelete, "/locations/"+l.ID.String(), nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}

	list := doJSONRequest(t, router, http.MethodGet, "/locations", nil)
	var resp []struct{}
	decodeBody(t, list, &resp)
	if len(resp) != 0 {
		t.Errorf("deleted location still listed: %d entries", len(resp))
	}
}
