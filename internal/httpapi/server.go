// Package httpapi exposes the public subscribe/unsubscribe surface, the
// read-only proverb endpoints, and the admin broadcast endpoints.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"yoruba-proverbs/internal/broadcast"
	"yoruba-proverbs/internal/notify"
	"yoruba-proverbs/internal/proverb"
	"yoruba-proverbs/internal/ratelimit"
	"yoruba-proverbs/internal/subscription"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server is the HTTP front of the service. It implements worker.Worker so the
// manager can supervise it next to the scheduler.
type Server struct {
	Addr       string
	Subs       *subscription.Manager
	Broadcasts *broadcast.Controller
	Proverbs   *proverb.Collection
	Limiter    *ratelimit.Limiter
	Notifier   notify.Notifier // optional; nil disables the usage ping
	AdminKey   string
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("httpapi: listening", "addr", s.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Router builds the chi mux with all routes and middleware.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "x-api-key"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)

	r.Get("/proverb", s.handleRandomProverb)
	r.Get("/proverb/{id}", s.handleProverbByID)

	r.With(s.rateLimitMiddleware).Post("/subscribe", s.handleSubscribe)
	r.Get("/unsubscribe", s.handleUnsubscribe)

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.adminAuthMiddleware)
		r.Post("/create-broadcast", s.handleCreateBroadcast)
		r.Post("/send-broadcast/{id}", s.handleSendBroadcast)
	})

	return r
}
