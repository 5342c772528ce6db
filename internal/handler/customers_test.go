package handler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/launderlink/api/internal/database"
	"github.com/launderlink/api/internal/handler"
)

// --- Mock store ---

type mockCustomerStore struct {
	customers map[uuid.UUID]database.Customer
	orders    map[uuid.UUID][]database.Order
}

func newMockCustomerStore() *mockCustomerStore {
	return &mockCustomerStore{
		customers: make(map[uuid.UUID]database.Customer),
		orders:    make(map[uuid.UUID][]database.Order),
	}
}

func (m *mockCustomerStore) ListCustomers(_ context.Context, arg database.ListCustomersParams) ([]database.Customer, error) {
	var out []database.Customer
	for _, c := range m.customers {
		if !c.IsActive {
			continue
		}
		if arg.Search.Valid {
			q := strings.ToLower(arg.Search.String)
			if !strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(c.Phone, q) {
				continue
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCustomerStore) GetCustomer(_ context.Context, id uuid.UUID) (database.Customer, error) {
	c, ok := m.customers[id]
	if !ok || !c.IsActive {
		return database.Customer{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockCustomerStore) CreateCustomer(_ context.Context, arg database.CreateCustomerParams) (database.Customer, error) {
	for _, c := range m.customers {
		if c.Phone == arg.Phone && c.IsActive {
			return database.Customer{}, &pgconn.PgError{Code: "23505"}
		}
	}
	c := database.Customer{
		ID:        uuid.New(),
		Name:      arg.Name,
		Phone:     arg.Phone,
		Email:     arg.Email,
		Address:   arg.Address,
		Notes:     arg.Notes,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.customers[c.ID] = c
	return c, nil
}

func (m *mockCustomerStore) UpdateCustomer(_ context.Context, arg database.UpdateCustomerParams) (database.Customer, error) {
	c, ok := m.customers[arg.ID]
	if !ok || !c.IsActive {
		return database.Customer{}, pgx.ErrNoRows
	}
	c.Name = arg.Name
	c.Phone = arg.Phone
	c.Email = arg.Email
	c.Address = arg.Address
	c.Notes = arg.Notes
	c.UpdatedAt = time.Now()
	m.customers[arg.ID] = c
	return c, nil
}

func (m *mockCustomerStore) SoftDeleteCustomer(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	c, ok := m.customers[id]
	if !ok || !c.IsActive {
		return uuid.Nil, pgx.ErrNoRows
	}
	c.IsActive = false
	m.customers[id] = c
	return id, nil
}

func (m *mockCustomerStore) ListCustomerOrders(_ context.Context, arg database.ListCustomerOrdersParams) ([]database.Order, error) {
	return m.orders[arg.CustomerID], nil
}

func setupCustomerRouter(store handler.CustomerStore) *chi.Mux {
	h := handler.NewCustomerHandler(store)
	r := chi.NewRouter()
	r.Route("/customers", h.RegisterRoutes)
	return r
}

// --- Tests ---

func TestCreateCustomer(t *testing.T) {
	store := newMockCustomerStore()
	router := setupCustomerRouter(store)

	rr := doJSONRequest(t, router, http.MethodPost, "/customers", map[string]string{
		"name":    "Budi Santoso",
		"phone":   "081234567890",
		"address": "Jl. Melati No. 3",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		ID      uuid.UUID `json:"id"`
		Name    string    `json:"name"`
		Address *string   `json:"address"`
		Email   *string   `json:"email"`
	}
	decodeBody(t, rr, &resp)
	if resp.Name != "Budi Santoso" {
		t.Errorf("name = %q", resp.Name)
	}
	if resp.Address == nil || *resp.Address != "Jl. Melati No. 3" {
		t.Errorf("address = %v", resp.Address)
	}
	if resp.Email != nil {
		t.Errorf("email should be null when omitted, got %v", *resp.Email)
	}
}

func TestCreateCustomerValidation(t *testing.T) {
	router := setupCustomerRouter(newMockCustomerStore())

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"phone": "0812"}},
		{"missing phone", map[string]string{"name": "Budi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSONRequest(t, router, http.MethodPost, "/customers", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rr.Code)
			}
		})
	}
}

func TestCreateCustomerDuplicatePhone(t *testing.T) {
	store := newMockCustomerStore()
	router := setupCustomerRouter(store)

	first := doJSONRequest(t, router, http.MethodPost, "/customers", map[string]string{
		"name": "Budi", "phone": "081234567890",
	})
	if first.Code != http.StatusCreated {
		t.Fatalf("seed create failed: %d", first.Code)
	}

	rr := doJSONRequest(t, router, http.MethodPost, "/customers", map[string]string{
		"name": "Budi Lain", "phone": "081234567890",
	})
	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rr.Code)
	}
}

func TestListCustomersSearch(t *testing.T) {
	store := newMockCustomerStore()
	for _, c := range []struct{ name, phone string }{
		{"Budi Santoso", "081111111111"},
		{"Siti Rahma", "082222222222"},
	} {
		if _, err := store.CreateCustomer(context.Background(), database.CreateCustomerParams{Name: c.name, Phone: c.phone}); err != nil {
			t.Fatalf("seed customer: %v", err)
		}
	}
	router := setupCustomerRouter(store)

	rr := doJSONRequest(t, router, http.MethodGet, "/customers?search=siti", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp []struct {
		Name string `json:"name"`
	}
	decodeBody(t, rr, &resp)
	if len(resp) != 1 || resp[0].Name != "Siti Rahma" {
		t.Errorf("search result = %+v, want just Siti Rahma", resp)
	}
}

func TestUpdateCustomerNotFound(t *testing.T) {
	router := setupCustomerRouter(newMockCustomerStore())

	rr := doJSONRequest(t, router, http.MethodPut, "/customers/"+uuid.New().String(), map[string]string{
		"name": "Budi", "phone": "0812",
	})
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestDeleteCustomerHidesFromReads(t *testing.T) {
	store := newMockCustomerStore()
	c, err := store.CreateCustomer(context.Background(), database.CreateCustomerParams{Name: "Budi", Phone: "0812"})
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	router := setupCustomerRouter(store)

	rr := doJSONRequest(t, router, http.MethodDelete, "/customers/"+c.ID.String(), nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}

	get := doJSONRequest(t, router, http.MethodGet, "/customers/"+c.ID.String(), nil)
	if get.Code != http.StatusNotFound {
		t.Errorf("deleted customer still readable: %d", get.Code)
	}
}

func TestCustomerOrderHistory(t *testing.T) {
	store := newMockCustomerStore()
	c, err := store.CreateCustomer(context.Background(), database.CreateCustomerParams{Name: "Budi", Phone: "0812"})
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	store.orders[c.ID] = []database.Order{
		sampleOrder(t, "COMPLETED"),
		sampleOrder(t, "PENDING"),
	}
	router := setupCustomerRouter(store)

	rr := doJSONRequest(t, router, http.MethodGet, "/customers/"+c.ID.String()+"/orders", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp []struct {
		Status string `json:"status"`
	}
	decodeBody(t, rr, &resp)
	if len(resp) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(resp))
	}
}

func TestCustomerOrderHistoryUnknownCustomer(t *testing.T) {
	router := setupCustomerRouter(newMockCustomerStore())

	rr := doJSONRequest(t, router, http.MethodGet, "/customers/"+uuid.New().String()+"/orders", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}
