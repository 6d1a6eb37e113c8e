package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	sentryzerolog "github.com/getsentry/sentry-go/zerolog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"go.uber.org/fx"

	"github.com/andrasnagy-data/gatehouse/internal/components/auth"
	"github.com/andrasnagy-data/gatehouse/internal/components/pages"
	"github.com/andrasnagy-data/gatehouse/internal/shared/config"
	"github.com/andrasnagy-data/gatehouse/internal/shared/flash"
	"github.com/andrasnagy-data/gatehouse/internal/shared/middleware"
	"github.com/andrasnagy-data/gatehouse/internal/shared/session"
)

type (
	// Server represents the HTTP server with all dependencies
	Server struct {
		server       *http.Server
		config       *config.Config
		logger       zerolog.Logger
		sentryWriter *sentryzerolog.Writer
	}

	params struct {
		fx.In

		Config        *config.Config
		Logger        zerolog.Logger
		SentryWriter  *sentryzerolog.Writer
		HealthHandler http.HandlerFunc
		Sessions      *session.Manager
		Flashes       *flash.Store
		AuthRouter    *auth.Router
		PagesRouter   *pages.Router
	}

	// Routes is everything NewRouter mounts.
	Routes struct {
		Logger        zerolog.Logger
		HealthHandler http.HandlerFunc
		Sessions      *session.Manager
		Flashes       *flash.Store
		AuthRouter    *auth.Router
		PagesRouter   *pages.Router
	}
)

// NewRouter builds the middleware chain and mounts every route.
func NewRouter(rt Routes) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(hlog.NewHandler(rt.Logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("url", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("HTTP request")
	}))
	r.Use(hlog.RequestIDHandler("req_id", "Request-Id"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	guard := middleware.NewAuthMiddleware(rt.Sessions, rt.Flashes)

	// Routes
	r.Get("/health", rt.HealthHandler)
	rt.PagesRouter.Mount(r, guard)
	rt.AuthRouter.Mount(r, guard)

	return r
}

func NewServer(p params) *Server {
	var handler http.Handler = NewRouter(Routes{
		Logger:        p.Logger,
		HealthHandler: p.HealthHandler,
		Sessions:      p.Sessions,
		Flashes:       p.Flashes,
		AuthRouter:    p.AuthRouter,
		PagesRouter:   p.PagesRouter,
	})

	if p.Config.IsEnvProd() {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              p.Config.SentryDSN,
			Environment:      p.Config.Environment,
			Release:          p.Config.Version,
			AttachStacktrace: true,
			// Form bodies carry passwords.
			SendDefaultPII: false,
			EnableTracing:  true,
			TracesSampler: sentry.TracesSampler(func(ctx sentry.SamplingContext) float64 {
				if ctx.Span.Name == "GET /health" {
					return 0.0
				}
				return 1.0
			}),
		})
		if err != nil {
			p.Logger.Error().Err(err).Msg("Failed to initialize Sentry")
		} else {
			p.Logger.Debug().Str("environment", p.Config.Environment).Msg("Sentry initialized")
		}

		// Recover only in prod
		handler = sentryhttp.New(sentryhttp.Options{}).Handle(handler)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", p.Config.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		config:       p.Config,
		logger:       p.Logger.With().Str("component", "server").Logger(),
		server:       server,
		sentryWriter: p.SentryWriter,
	}
}

func (s *Server) Start(lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: s.start,
		OnStop:  s.stop,
	})
}

// start starts the HTTP server
func (s *Server) start(_ context.Context) error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Str("environment", s.config.Environment).
		Bool("sentry_enabled", s.config.IsEnvProd()).
		Msg("Starting HTTP server")
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Server failed to start")
		}
	}()

	s.logger.Info().Msg("HTTP server started")
	return nil
}

// stop gracefully shuts down the HTTP server
func (s *Server) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	s.logger.Info().Msg("Shutting down HTTP server...")

	if s.config.IsEnvProd() {
		s.logger.Info().Msg("Flushing Sentry client and writer")
		if s.sentryWriter != nil {
			s.sentryWriter.Close()
		}
		sentry.Flush(2 * time.Second)
	}

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error during server shutdown")
		return err
	}

	s.logger.Info().Msg("HTTP server shutdown completed")
	return nil
}
