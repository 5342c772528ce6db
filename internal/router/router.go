package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/launderlink/api/internal/config"
	"github.com/launderlink/api/internal/database"
	"github.com/launderlink/api/internal/enum"
	"github.com/launderlink/api/internal/handler"
	"github.com/launderlink/api/internal/insight"
	mw "github.com/launderlink/api/internal/middleware"
	"github.com/launderlink/api/internal/service"
	"github.com/launderlink/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication, location scoping, and role-based middleware as
// needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",      // SvelteKit dev server
			"https://app.launderlink.id", // Production dashboard
			"https://stg.launderlink.id", // Staging dashboard
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	newOrderStore := func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}
	orderService := service.NewOrderService(pool, newOrderStore, cfg.TrackingBaseURL)

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Public order tracking; the order UUID is the only credential.
	trackingHandler := handler.NewTrackingHandler(queries, orderService)
	trackingHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/locations/{lid}/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		locationHandler := handler.NewLocationHandler(queries)
		orderHandler := handler.NewOrderHandler(orderService, queries, hub)
		discountHandler := handler.NewDiscountHandler(queries)
		var insightGen insight.Generator
		if cfg.GeminiAPIKey != "" {
			insightGen = insight.NewGeminiClient(cfg.GeminiAPIKey)
		}
		reportHandler := handler.NewReportHandler(queries, insightGen)
		ownerOnly := mw.RequireRole(enum.UserRoleOwner)

		r.Route("/locations", func(r chi.Router) {
			// Reads are open to every signed-in account; writes are
			// owner-only.
			locationHandler.RegisterReadRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(ownerOnly)
				locationHandler.RegisterWriteRoutes(r)
			})

			// Location-scoped routes. Staff are pinned to their own
			// location; owners pass through.
			r.Route("/{lid}/orders", func(r chi.Router) {
				r.Use(mw.RequireLocation)
				orderHandler.RegisterRoutes(r)
				r.Group(func(r chi.Router) {
					r.Use(ownerOnly)
					orderHandler.RegisterPrivilegedRoutes(r)
				})
			})
			r.Route("/{lid}/reports", func(r chi.Router) {
				r.Use(mw.RequireLocation)
				reportHandler.RegisterRoutes(r)
			})
		})

		serviceHandler := handler.NewServiceHandler(queries)
		r.Route("/services", serviceHandler.RegisterRoutes)

		customerHandler := handler.NewCustomerHandler(queries)
		r.Route("/customers", customerHandler.RegisterRoutes)

		expenseHandler := handler.NewExpenseHandler(queries)
		r.Route("/expenses", expenseHandler.RegisterRoutes)

		// Voucher preview during intake.
		discountHandler.RegisterValidateRoute(r)

		// Owner-only administration.
		r.Group(func(r chi.Router) {
			r.Use(ownerOnly)

			userHandler := handler.NewUserHandler(queries)
			r.Route("/users", userHandler.RegisterRoutes)

			r.Route("/discounts", discountHandler.RegisterRoutes)

			reportHandler.RegisterComparisonRoute(r)
		})
	})

	return r
}
