package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/portfolio-backend/app"
	"github.com/upb/portfolio-backend/handlers"
	appmw "github.com/upb/portfolio-backend/middleware"
)

const requestTimeout = 60 * time.Second

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appmw.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	// CORS middleware; cookies travel cross-origin so credentials are allowed
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var db handlers.HealthChecker
	if deps.DB != nil {
		db = deps.DB
	}
	health := handlers.NewHealthHandler(db, deps.Logger)
	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.Cookies, deps.Logger)
	account := handlers.NewAccountHandler(deps.AccountService, deps.Cookies, deps.Logger)
	messages := handlers.NewMessageHandler(deps.MessageService, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	r.Get("/", handlers.WelcomeHandler(deps.Config.App))

	// Session endpoints (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/token", authHandler.HandleRefresh)
		r.Post("/logout", authHandler.HandleLogout)
	})

	// Account self-service
	r.Route("/account", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)
		r.Get("/", account.HandleGet)
		r.Put("/info", account.HandleUpdateInfo)
		r.Put("/password", account.HandleUpdatePassword)
		r.Delete("/", account.HandleDelete)
	})

	// Contact inbox; sending is public, reading requires a token
	r.Route("/messages", func(r chi.Router) {
		r.Post("/", messages.HandleSend)

		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Get("/", messages.HandleList)
			r.Get("/{id}", messages.HandleGet)
			r.Put("/{id}/status", messages.HandleUpdateStatus)
			r.Delete("/{id}", messages.HandleDelete)
		})
	})

	r.NotFound(handlers.NotFoundHandler)
	r.MethodNotAllowed(handlers.MethodNotAllowedHandler)

	return r
}
