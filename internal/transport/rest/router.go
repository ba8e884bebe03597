package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"leadfunnel/internal/service"
	"leadfunnel/internal/transport/rest/handler"
	"leadfunnel/internal/transport/rest/middleware"
	"leadfunnel/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService       *service.AuthService
	SurveyService     *service.SurveyService
	SubmissionService *service.SubmissionService
	WSHub             *ws.Hub
	AllowedOrigins    string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	surveyHandler := handler.NewSurveyHandler(c.SurveyService)
	submissionHandler := handler.NewSubmissionHandler(c.SubmissionService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.AllowedOrigins))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/flow/catalog", surveyHandler.Catalog).Methods("GET", "OPTIONS")
	v1.HandleFunc("/flow/sessions", surveyHandler.Start).Methods("POST", "OPTIONS")
	v1.HandleFunc("/flow/sessions/{id}", surveyHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/flow/sessions/{id}", surveyHandler.Close).Methods("DELETE", "OPTIONS")
	v1.HandleFunc("/flow/sessions/{id}/answers", surveyHandler.Answer).Methods("POST", "OPTIONS")
	v1.HandleFunc("/flow/sessions/{id}/back", surveyHandler.Back).Methods("POST", "OPTIONS")
	v1.HandleFunc("/flow/sessions/{id}/contact", surveyHandler.Contact).Methods("POST", "OPTIONS")
	v1.HandleFunc("/flow/sessions/{id}/retry", surveyHandler.Retry).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/admin", wsHandler.AdminWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Admin routes (require admin auth)
	adminRoutes := v1.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(authMW.RequireAdmin)

	adminRoutes.HandleFunc("/submissions", submissionHandler.List).Methods("GET")
	adminRoutes.HandleFunc("/submissions/{id}", submissionHandler.Get).Methods("GET")
	adminRoutes.HandleFunc("/stats", submissionHandler.Stats).Methods("GET")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}

	allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
	if allowedMethods == "" {
		allowedMethods = "GET, POST, DELETE, OPTIONS"
	}

	allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
	if allowedHeaders == "" {
		allowedHeaders = "Content-Type, Authorization"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
