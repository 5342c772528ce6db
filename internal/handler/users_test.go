package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/launderlink/api/internal/database"
	"github.com/launderlink/api/internal/enum"
	"github.com/launderlink/api/internal/handler"
)

// --- Mock store ---

type mockUserStore struct {
	users map[uuid.UUID]database.User
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[uuid.UUID]database.User)}
}

func (m *mockUserStore) ListUsers(_ context.Context) ([]database.User, error) {
	var out []database.User
	for _, u := range m.users {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserStore) GetUserByID(_ context.Context, id uuid.UUID) (database.User, error) {
	u, ok := m.users[id]
	if !ok || !u.IsActive {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockUserStore) CreateUser(_ context.Context, arg database.CreateUserParams) (database.User, error) {
	for _, u := range m.users {
		if u.Email == arg.Email {
			return database.User{}, &pgconn.PgError{Code: "23505"}
		}
	}
	u := database.User{
		ID:             uuid.New(),
		LocationID:     arg.LocationID,
		FullName:       arg.FullName,
		Email:          arg.Email,
		HashedPassword: arg.HashedPassword,
		Role:           arg.Role,
		IsApproved:     arg.IsApproved,
		IsActive:       true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserStore) UpdateUser(_ context.Context, arg database.UpdateUserParams) (database.User, error) {
	u, ok := m.users[arg.ID]
	if !ok || !u.IsActive {
		return database.User{}, pgx.ErrNoRows
	}
	u.FullName = arg.FullName
	u.Email = arg.Email
	u.Role = arg.Role
	u.LocationID = arg.LocationID
	m.users[arg.ID] = u
	return u, nil
}

func (m *mockUserStore) ApproveUser(_ context.Context, id uuid.UUID) (database.User, error) {
	u, ok := m.users[id]
	if !ok || !u.IsActive {
		return database.User{}, pgx.ErrNoRows
	}
	u.IsApproved = true
	m.users[id] = u
	return u, nil
}

func (m *mockUserStore) SoftDeleteUser(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	u, ok := m.users[id]
	if !ok || !u.IsActive {
		return uuid.Nil, pgx.ErrNoRows
	}
	u.IsActive = false
	m.users[id] = u
	return id, nil
}

func setupUserRouter(store handler.UserStore) *chi.Mux {
	h := handler.NewUserHandler(store)
	r := chi.NewRouter()
	r.Route("/users", h.RegisterRoutes)
	return r
}

// --- Tests ---

func TestCreateStaffByOwner(t *testing.T) {
	store := newMockUserStore()
	router := setupUserRouter(store)

	rr := doJSONRequest(t, router, http.MethodPost, "/users", map[string]string{
		"full_name":   "Siti Rahma",
		"email":       "siti@example.com",
		"password":    "rahasia-123",
		"role":        enum.UserRoleStaff,
		"location_id": uuid.New().String(),
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Role       string  `json:"role"`
		IsApproved bool    `json:"is_approved"`
		LocationID *string `json:"location_id"`
	}
	decodeBody(t, rr, &resp)
	if resp.Role != enum.UserRoleStaff {
		t.Errorf("role = %q", resp.Role)
	}
	if !resp.IsApproved {
		t.Error("owner-created accounts should be pre-approved")
	}
	if resp.LocationID == nil {
		t.Error("staff should carry a location assignment")
	}
}

func TestCreateUserRoleLocationRules(t *testing.T) {
	router := setupUserRouter(newMockUserStore())

	tests := []struct {
		name string
		body map[string]string
	}{
		{"owner with location", map[string]string{
			"full_name": "Bu Wati", "email": "wati@example.com", "password": "rahasia-123",
			"role": enum.UserRoleOwner, "location_id": uuid.New().String(),
		}},
		{"staff without location", map[string]string{
			"full_name": "Siti", "email": "siti@example.com", "password": "rahasia-123",
			"role": enum.UserRoleStaff,
		}},
		{"unknown role", map[string]string{
			"full_name": "Siti", "email": "siti@example.com", "password": "rahasia-123",
			"role": "MANAGER", "location_id": uuid.New().String(),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSONRequest(t, router, http.MethodPost, "/users", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestApproveUser(t *testing.T) {
	store := newMockUserStore()
	u, err := store.CreateUser(context.Background(), database.CreateUserParams{
		LocationID: pgUUID(uuid.New()),
		FullName:   "Siti Rahma",
		Email:      "siti@example.com",
		Role:       enum.UserRoleStaff,
		IsApproved: false,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	router := setupUserRouter(store)

	rr := doJSONRequest(t, router, http.MethodPost, "/users/"+u.ID.String()+"/approve", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		IsApproved bool `json:"is_approved"`
	}
	decodeBody(t, rr, &resp)
	if !resp.IsApproved {
		t.Error("approval did not take")
	}
}

func TestApproveUserNotFound(t *testing.T) {
	router := setupUserRouter(newMockUserStore())

	rr := doJSONRequest(t, router, http.MethodPost, "/users/"+uuid.New().String()+"/approve", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestUpdateUserReassignsLocation(t *testing.T) {
	store := newMockUserStore()
	u, err := store.CreateUser(context.Background(), database.CreateUserParams{
		LocationID: pgUUID(uuid.New()),
		FullName:   "Siti Rahma",
		Email:      "siti@example.com",
		Role:       enum.UserRoleStaff,
		IsApproved: true,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	newLocation := uuid.New()
	router := setupUserRouter(store)

	rr := doJSONRequest(t, router, http.MethodPut, "/users/"+u.ID.String(), map[string]string{
		"full_name":   "Siti Rahma",
		"email":       "siti@example.com",
		"role":        enum.UserRoleStaff,
		"location_id": newLocation.String(),
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		LocationID *string `json:"location_id"`
	}
	decodeBody(t, rr, &resp)
	if resp.LocationID == nil || *resp.LocationID != newLocation.String() {
		t.Errorf("location_id = %v, want %s", resp.LocationID, newLocation)
	}
}

func TestDeactivateUser(t *testing.T) {
	store := newMockUserStore()
	u, err := store.CreateUser(context.Background(), database.CreateUserParams{
		LocationID: pgUUID(uuid.New()),
		FullName:   "Siti Rahma",
		Email:      "siti@example.com",
		Role:       enum.UserRoleStaff,
		IsApproved: true,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	router := setupUserRouter(store)

	rr := doJSONRequest(t, router, http.MethodDelete, "/users/"+u.ID.String(), nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if store.users[u.ID].IsActive {
		t.Error("user still active after delete")
	}
}
