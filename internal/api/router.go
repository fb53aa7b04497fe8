package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/boqflow/boqflow/internal/api/handlers"
	"github.com/boqflow/boqflow/internal/api/middleware"
	"github.com/boqflow/boqflow/internal/domain"
	"github.com/boqflow/boqflow/internal/metrics"
	"github.com/boqflow/boqflow/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	invoiceService *service.InvoiceService,
	lifecycleService *service.LifecycleService,
	catalogService *service.CatalogService,
	syncService service.UpdateFeed,
	authService *service.AuthService,
	healthHandler *handlers.HealthHandler,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logging)
	r.Use(middleware.RequestID)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS)

	// Health checks (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", metrics.Handler())

	// Create handlers
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService, lifecycleService, syncService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	authHandler := handlers.NewAuthHandler(authService)

	// Create middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Catalog endpoints
			r.Route("/catalogs", func(r chi.Router) {
				r.Get("/", catalogHandler.List)
				r.Get("/active", catalogHandler.GetActive)
				r.Get("/items", catalogHandler.SearchItems)

				// Managing catalog versions is an admin concern
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(domain.RoleAdmin))
					r.Post("/", catalogHandler.Upload)
					r.Patch("/{version}/activate", catalogHandler.Activate)
				})
			})

			// Invoice endpoints
			r.Route("/invoices", func(r chi.Router) {
				r.Post("/", invoiceHandler.Create)
				r.Get("/", invoiceHandler.List)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", invoiceHandler.Get)
					r.Patch("/", invoiceHandler.Update)

					// Lifecycle transitions
					r.Post("/submit", invoiceHandler.Submit)
					r.Post("/approve", invoiceHandler.Approve)
					r.Post("/reject", invoiceHandler.Reject)

					// Polling endpoint for offline clients
					r.Get("/updates", invoiceHandler.Updates)

					r.Post("/comments", invoiceHandler.AddComment)

					r.Post("/media", invoiceHandler.UploadMedia)
					r.Delete("/media/{mediaID}", invoiceHandler.DeleteMedia)

					r.Get("/pdf", invoiceHandler.DownloadPdf)
					r.Post("/email", invoiceHandler.Email)
				})
			})
		})
	})

	return r
}
