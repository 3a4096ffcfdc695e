package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Flows          *FlowHandler
	Logger         *zap.Logger
	MetricsHandler http.Handler

	// Nil limiters leave their routes unlimited.
	PageLimiter    *RateLimiter
	MessageLimiter *RateLimiter
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(cfg.Logger))

	r.Get("/health", cfg.Flows.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Get("/widget/embed.js", cfg.Flows.EmbedScript)
	r.With(limit(cfg.PageLimiter)).Get("/book/{flow}", cfg.Flows.LoadPage)
	r.Post("/flows/talent/profile", cfg.Flows.SaveTalentProfile)

	r.Route("/sessions/{id}", func(s chi.Router) {
		s.Get("/", cfg.Flows.GetSession)
		s.Delete("/", cfg.Flows.Unmount)
		s.Post("/modal/open", cfg.Flows.OpenModal)
		s.Post("/modal/close", cfg.Flows.CloseModal)
		s.Post("/complete", cfg.Flows.Complete)
		s.With(limit(cfg.MessageLimiter)).Post("/messages", cfg.Flows.RelayMessage)
	})

	return r
}

func limit(l *RateLimiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return l.Middleware
}
