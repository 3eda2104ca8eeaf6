package server

import (
	"net/http"
	"time"

	"mobileservice-backend/internal/config"
	"mobileservice-backend/internal/handler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"log/slog"
)

// NewRouter wires HTTP routes and middleware.
func NewRouter(cfg config.Config,
	logger *slog.Logger,
	health handler.HealthHandler,
	home handler.HomeHandler,
	auth handler.AuthHandler,
	jobs handler.JobHandler,
	shop handler.ShopHandler,
	staff handler.StaffHandler,
	expenses handler.ExpenseHandler,
	suggestions handler.SuggestionHandler,
	plans handler.PlanHandler,
	admin handler.AdminHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(200, 1*time.Minute))

	health.RegisterRoutes(r)
	home.RegisterRoutes(r)
	auth.RegisterRoutes(r)
	plans.RegisterRoutes(r)
	r.Method("GET", "/metrics", promhttp.Handler())
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	r.Group(func(pr chi.Router) {
		pr.Use(AuthMiddleware(cfg.JWTSecret))
		auth.RegisterProtectedRoutes(pr)

		// tenant scope (shop accounts)
		pr.Group(func(sr chi.Router) {
			sr.Use(RequireShop)
			jobs.RegisterRoutes(sr)
			shop.RegisterRoutes(sr)
			staff.RegisterRoutes(sr)
			expenses.RegisterRoutes(sr)
			suggestions.RegisterRoutes(sr)
		})

		// platform scope
		pr.Group(func(ar chi.Router) {
			ar.Use(RequireSuperAdmin)
			admin.RegisterRoutes(ar)
			plans.RegisterAdminRoutes(ar)
		})
	})

	return r
}
