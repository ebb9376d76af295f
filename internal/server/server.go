// Package server serves the festival site: live pages over websockets,
// a small JSON API and the site's static files.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bunkasai/festival/internal/chat"
	"github.com/bunkasai/festival/internal/config"
	"github.com/bunkasai/festival/internal/db"
	"github.com/bunkasai/festival/internal/gallery"
	"github.com/bunkasai/festival/internal/logging"
	"github.com/bunkasai/festival/internal/prefs"
	"github.com/bunkasai/festival/internal/site"
)

// requestTimeout bounds every route except the websocket.
const requestTimeout = 60 * time.Second

// Deps are the shared collaborators of all requests.
type Deps struct {
	Prefs     prefs.Backend
	DB        *db.DB
	Responder *chat.Responder
	Listing   *gallery.Cache
	Clock     clockwork.Clock
	Shuffle   gallery.Shuffler
}

// Server is the festival HTTP server.
type Server struct {
	cfg        *config.Config
	deps       Deps
	matcher    site.Matcher
	limiter    *IPRateLimiter
	log        zerolog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server for cfg.
func New(cfg *config.Config, deps Deps) *Server {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	s := &Server{
		cfg:     cfg,
		deps:    deps,
		matcher: site.Matcher{Include: cfg.Site.Include, Exclude: cfg.Site.Exclude},
		limiter: NewIPRateLimiter(cfg.Server.ChatPerMinute),
		log:     logging.Component("server"),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.Server.AllowAllOrigins {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))
	r.Use(s.visitor)

	r.Get("/healthz", s.handleHealth)

	// Page sessions outlive the request timeout.
	r.Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Route("/api", func(r chi.Router) {
			r.Get("/prefs", s.handleGetPrefs)
			r.Put("/prefs", s.handlePutPrefs)
			r.Post("/theme/toggle", s.handleToggleTheme)
			r.Get("/countdown", s.handleCountdown)
			r.With(RateLimit(s.limiter)).Post("/chat", s.handleChat)
			r.Get("/gallery", s.handleGallery)
			r.Post("/gallery/reload", s.handleGalleryReload)
		})

		r.Get("/*", s.handleSite)
	})

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.deps.DB != nil {
		if n, err := s.deps.DB.CountVisitors(r.Context()); err == nil {
			body["visitors"] = n
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       120 * time.Second,
	}

	s.log.Info().Str("addr", addr).Str("site", s.cfg.Site.Dir).Msg("festival server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Run serves until ctx is cancelled, then shuts down within the
// configured timeout.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	s.limiter.StartCleanup(gctx)

	g.Go(func() error {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		s.log.Info().Msg("shutting down")
		return s.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
