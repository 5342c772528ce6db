//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/launderlink/api/internal/config"
	"github.com/launderlink/api/internal/database"
	"github.com/launderlink/api/internal/router"
	"github.com/launderlink/api/internal/ws"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// TestIntegrationFlow exercises the full order lifecycle against a real
// PostgreSQL database: bootstrap a shop and owner, hire staff, take an
// order with a voucher, walk it to COMPLETED, confirm payment, let the
// customer track and rate it, then check the owner reports.
func TestIntegrationFlow(t *testing.T) {
	ctx := context.Background()

	pgContainer, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	cfg := &config.Config{
		Port:            "8081",
		DatabaseURL:     connStr,
		JWTSecret:       "integration-test-secret",
		TrackingBaseURL: "http://localhost:5173/track",
		RequestTimeout:  10 * time.Second,
	}
	queries := database.New(pool)
	hub := ws.NewHub()
	// NOTE: hub.Run() goroutine leaks on test exit — Hub has no shutdown
	// mechanism. Acceptable for tests.
	go hub.Run()

	r := router.New(cfg, queries, pool, hub)

	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Bootstrap location and owner (direct SQL; owners are seeded,
	// not self-registered) ---
	locationID := createLocation(t, ctx, pool)
	ownerID := createOwnerUser(t, ctx, pool)

	// --- 2. Login as owner ---
	ownerToken := login(t, server, "owner@test.com", "password123")

	// --- 3. Owner hires staff through the API (pre-approved) ---
	staffResp := httpPostJSON(t, server, "/users", map[string]interface{}{
		"full_name":   "Siti Rahma",
		"email":       "siti@test.com",
		"password":    "password123",
		"role":        "STAFF",
		"location_id": locationID.String(),
	}, ownerToken)
	staffID := uuid.MustParse(staffResp["id"].(string))
	if staffResp["is_approved"].(bool) != true {
		t.Fatalf("owner-created staff should be pre-approved")
	}

	staffToken := login(t, server, "siti@test.com", "password123")

	// --- 4. Self-registered staff stay locked out until approved ---
	registerResp := httpPostJSON(t, server, "/auth/register", map[string]interface{}{
		"full_name":   "Budi Hartono",
		"email":       "budi@test.com",
		"password":    "password123",
		"location_id": locationID.String(),
	}, "")
	applicantID := uuid.MustParse(registerResp["id"].(string))

	loginExpectingStatus(t, server, "budi@test.com", "password123", http.StatusForbidden)
	httpPostJSON(t, server, fmt.Sprintf("/users/%s/approve", applicantID), nil, ownerToken)
	login(t, server, "budi@test.com", "password123")

	// --- 5. Owner sets up the catalog and a voucher ---
	serviceResp := httpPostJSON(t, server, "/services", map[string]interface{}{
		"name":           "Cuci Lipat",
		"price":          "5000",
		"unit":           "kg",
		"description":    "Cuci bersih, kering, dilipat rapi",
		"duration_hours": 48,
	}, staffToken)
	serviceID := uuid.MustParse(serviceResp["id"].(string))

	httpPostJSON(t, server, "/discounts", map[string]interface{}{
		"code":  "DISKON10",
		"type":  "PERCENTAGE",
		"value": "10",
		"quota": 100,
	}, ownerToken)

	// --- 6. Staff creates a customer at the counter ---
	customerResp := httpPostJSON(t, server, "/customers", map[string]interface{}{
		"name":  "Budi Santoso",
		"phone": "081234567890",
	}, staffToken)
	customerID := uuid.MustParse(customerResp["id"].(string))

	// --- 7. Voucher preview does not consume quota ---
	validateResp := httpPostJSON(t, server, "/discounts/validate", map[string]interface{}{
		"code":     "DISKON10",
		"subtotal": "10000",
	}, staffToken)
	if validateResp["discount_amount"].(string) != "1000" {
		t.Fatalf("voucher preview discount: got %v, want 1000", validateResp["discount_amount"])
	}

	// --- 8. Staff takes an order: 2 kg Cuci Lipat with the voucher ---
	orderResp := httpPostJSON(t, server, fmt.Sprintf("/locations/%s/orders", locationID), map[string]interface{}{
		"customer_id":  customerID.String(),
		"voucher_code": "DISKON10",
		"perfume":      "Lavender",
		"received_by":  "Siti Rahma",
		"items": []map[string]interface{}{
			{"service_id": serviceID.String(), "quantity": "2"},
		},
	}, staffToken)
	orderID := uuid.MustParse(orderResp["id"].(string))

	// 2 kg x 5000 = 10000, minus 10% voucher = 9000.
	if got := orderResp["order_number"].(string); got != "LDR-001" {
		t.Fatalf("order_number: got %s, want LDR-001", got)
	}
	if got := orderResp["subtotal"].(string); got != "10000.00" {
		t.Fatalf("subtotal: got %s, want 10000.00", got)
	}
	if got := orderResp["total_amount"].(string); got != "9000.00" {
		t.Fatalf("total_amount: got %s, want 9000.00 (voucher not applied?)", got)
	}
	wa, ok := orderResp["whatsapp"].(map[string]interface{})
	if !ok {
		t.Fatalf("order response missing whatsapp receipt")
	}
	if link := wa["link"].(string); !strings.HasPrefix(link, "https://wa.me/") {
		t.Fatalf("whatsapp link: got %s, want wa.me URL", link)
	}

	// Voucher quota is consumed on order creation.
	discounts := httpGetJSONList(t, server, "/discounts", ownerToken)
	if used := findByField(t, discounts, "code", "DISKON10")["used_count"].(float64); used != 1 {
		t.Fatalf("voucher used_count after order: got %v, want 1", used)
	}

	// --- 9. Resend the receipt; it is recomposed from stored snapshots ---
	orderPath := fmt.Sprintf("/locations/%s/orders/%s", locationID, orderID)
	receiptResp := httpGetJSON(t, server, orderPath+"/receipt", staffToken)
	if !strings.Contains(receiptResp["body"].(string), "LDR-001") {
		t.Fatalf("resent receipt missing order number: %v", receiptResp["body"])
	}

	// --- 10. Walk the order through its lifecycle ---
	httpPatchJSON(t, server, orderPath+"/status", map[string]interface{}{"status": "PROCESSING"}, staffToken)
	readyResp := httpPatchJSON(t, server, orderPath+"/status", map[string]interface{}{
		"status":       "READY",
		"completed_by": "Siti Rahma",
		"notify":       true,
	}, staffToken)
	if _, ok := readyResp["whatsapp"].(map[string]interface{}); !ok {
		t.Fatalf("READY with notify should compose a pickup message")
	}
	httpPatchJSON(t, server, orderPath+"/status", map[string]interface{}{"status": "COMPLETED"}, staffToken)

	payResp := httpPostJSON(t, server, orderPath+"/payment", map[string]interface{}{
		"payment_method": "QRIS",
	}, staffToken)
	if payResp["is_paid"].(bool) != true {
		t.Fatalf("order not marked paid after payment confirmation")
	}

	// --- 11. Customer tracks the order publicly and leaves a rating ---
	trackResp := httpGetJSON(t, server, fmt.Sprintf("/track/%s", orderID), "")
	if got := trackResp["order_number"].(string); got != "LDR-001" {
		t.Fatalf("tracking order_number: got %s, want LDR-001", got)
	}
	if trackResp["status"].(string) != "COMPLETED" {
		t.Fatalf("tracking status: got %s, want COMPLETED", trackResp["status"])
	}

	feedbackResp := httpPostJSON(t, server, fmt.Sprintf("/track/%s/feedback", orderID), map[string]interface{}{
		"rating": 5,
		"review": "Wangi dan rapi!",
	}, "")
	if feedbackResp["rating"].(float64) != 5 {
		t.Fatalf("feedback rating: got %v, want 5", feedbackResp["rating"])
	}

	// --- 12. A second order gets the next number ---
	order2Resp := httpPostJSON(t, server, fmt.Sprintf("/locations/%s/orders", locationID), map[string]interface{}{
		"customer_id": customerID.String(),
		"received_by": "Siti Rahma",
		"items": []map[string]interface{}{
			{"service_id": serviceID.String(), "quantity": "1.5"},
		},
	}, staffToken)
	if got := order2Resp["order_number"].(string); got != "LDR-002" {
		t.Fatalf("second order_number: got %s, want LDR-002", got)
	}

	// --- 13. Owner records an expense and reads the reports ---
	httpPostJSON(t, server, "/expenses", map[string]interface{}{
		"description": "Beli deterjen",
		"amount":      "250000",
		"category":    "Supplies",
		"location_id": locationID.String(),
	}, ownerToken)

	revenue := httpGetJSONList(t, server, fmt.Sprintf("/locations/%s/reports/daily-revenue", locationID), ownerToken)
	if len(revenue) != 1 {
		t.Fatalf("daily revenue rows: got %d, want 1", len(revenue))
	}
	if got := revenue[0]["order_count"].(float64); got != 2 {
		t.Fatalf("daily revenue order_count: got %v, want 2", got)
	}
	if got := revenue[0]["total_revenue"].(string); got != "16500.00" {
		t.Fatalf("daily revenue total: got %s, want 16500.00", got)
	}

	payments := httpGetJSONList(t, server, fmt.Sprintf("/locations/%s/reports/payment-summary", locationID), ownerToken)
	qris := findByField(t, payments, "payment_method", "QRIS")
	if got := qris["total_amount"].(string); got != "9000.00" {
		t.Fatalf("QRIS payment total: got %s, want 9000.00", got)
	}

	expenseRows := httpGetJSONList(t, server, fmt.Sprintf("/locations/%s/reports/expense-summary", locationID), ownerToken)
	supplies := findByField(t, expenseRows, "category", "Supplies")
	if got := supplies["total_amount"].(string); got != "250000.00" {
		t.Fatalf("supplies expense total: got %s, want 250000.00", got)
	}

	comparison := httpGetJSONList(t, server, "/reports/location-comparison", ownerToken)
	if len(comparison) != 1 {
		t.Fatalf("location comparison rows: got %d, want 1", len(comparison))
	}

	t.Logf("Integration test passed: container=%s, location=%s, owner=%s, staff=%s, customer=%s, order=%s",
		pgContainer.GetContainerID(), locationID, ownerID, staffID, customerID, orderID)
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("laundry_test"),
		tcpostgres.WithUsername("laundry"),
		tcpostgres.WithPassword("laundry"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return pgContainer, connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	// Connect with stdlib for migrate
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Path relative to this test file's package directory.
	// Go test sets cwd to the package directory.
	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

func createLocation(t *testing.T, ctx context.Context, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(ctx,
		`INSERT INTO locations (name, address, phone)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		"Laundry Sehati Pusat", "Jl. Melati No. 3, Jakarta", "081234567890",
	).Scan(&id)
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	return id
}

func createOwnerUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	var id uuid.UUID
	err = pool.QueryRow(ctx,
		`INSERT INTO users (location_id, full_name, email, hashed_password, role, is_approved)
		 VALUES (NULL, $1, $2, $3, 'OWNER', TRUE)
		 RETURNING id`,
		"Test Owner", "owner@test.com", string(hashedPassword),
	).Scan(&id)
	if err != nil {
		t.Fatalf("create owner user: %v", err)
	}
	return id
}

func login(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	resp := httpPostJSON(t, server, "/auth/login", map[string]interface{}{
		"email":    email,
		"password": password,
	}, "")
	token, ok := resp["access_token"].(string)
	if !ok || token == "" {
		t.Fatalf("login failed: no access_token in response: %+v", resp)
	}
	return token
}

func loginExpectingStatus(t *testing.T, server *httptest.Server, email, password string, want int) {
	t.Helper()
	b, _ := json.Marshal(map[string]interface{}{"email": email, "password": password})
	resp, err := http.Post(server.URL+"/auth/login", "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		t.Fatalf("login %s: status %d, want %d", email, resp.StatusCode, want)
	}
}

// findByField returns the first row whose field matches value.
func findByField(t *testing.T, rows []map[string]interface{}, field, value string) map[string]interface{} {
	t.Helper()
	for _, row := range rows {
		if row[field] == value {
			return row
		}
	}
	t.Fatalf("no row with %s=%s in %+v", field, value, rows)
	return nil
}

// --- HTTP helpers ---

func doJSON(t *testing.T, server *httptest.Server, method, path string, body interface{}, token string) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		resp.Body.Close()
		t.Fatalf("%s %s: status %d, body: %v", method, path, resp.StatusCode, errResp)
	}
	return resp
}

func httpPostJSON(t *testing.T, server *httptest.Server, path string, body interface{}, token string) map[string]interface{} {
	t.Helper()
	resp := doJSON(t, server, "POST", path, body, token)
	defer resp.Body.Close()

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}

func httpPatchJSON(t *testing.T, server *httptest.Server, path string, body interface{}, token string) map[string]interface{} {
	t.Helper()
	resp := doJSON(t, server, "PATCH", path, body, token)
	defer resp.Body.Close()

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}

func httpGetJSON(t *testing.T, server *httptest.Server, path string, token string) map[string]interface{} {
	t.Helper()
	resp := doJSON(t, server, "GET", path, nil, token)
	defer resp.Body.Close()

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}

func httpGetJSONList(t *testing.T, server *httptest.Server, path string, token string) []map[string]interface{} {
	t.Helper()
	resp := doJSON(t, server, "GET", path, nil, token)
	defer resp.Body.Close()

	var result []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}
