package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(handlers *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)

	// Public endpoints
	r.Get("/health", handlers.Health)

	// API v1 routes (authenticated)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware)
		r.Use(RateLimitMiddleware(NewRateLimiter(60, time.Minute)))
		r.Use(JSONContentType)

		r.Post("/analyze", handlers.Analyze)
		r.Post("/image-check", handlers.ImageCheck)
		r.Post("/text-validation", handlers.TextValidation)
		r.Post("/fact-check", handlers.FactCheck)
		r.Post("/analyze-video", handlers.AnalyzeVideo)
		r.Get("/chats", handlers.Chats)
		r.Get("/chats/{chatID}/messages", handlers.Messages)
	})

	return r
}
