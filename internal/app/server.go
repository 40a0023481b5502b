package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/markdave123-py/docflow/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/docflow/internal/api/middlewares"
	"github.com/markdave123-py/docflow/internal/api/respond"
	"github.com/markdave123-py/docflow/internal/metrics"
	"github.com/markdave123-py/docflow/internal/models"
	"github.com/markdave123-py/docflow/internal/services"
)

// RouterDeps is everything the HTTP layer needs. Gatherer and AuthLimiter are optional.
type RouterDeps struct {
	Log            logrus.FieldLogger
	Metrics        metrics.Recorder
	Gatherer       prometheus.Gatherer
	Guard          *services.Guard
	Auth           *services.AuthService
	Users          *services.UserService
	Documents      *services.DocumentService
	AuthLimiter    *appMiddleware.RateLimiter
	AllowedOrigins []string
}

// NewRouter builds and wires all routes.
func NewRouter(d RouterDeps) http.Handler {
	authHandler := handlers.NewAuthHandler(d.Auth, d.Log)
	docHandler := handlers.NewDocumentHandler(d.Documents, d.Log)
	userHandler := handlers.NewUserHandler(d.Users, d.Log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appMiddleware.RequestLogger(d.Log, d.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(d.Gatherer))
	}

	authenticate := appMiddleware.Authenticate(d.Guard, d.Log)
	requireRoles := func(roles ...models.Role) func(http.Handler) http.Handler {
		return appMiddleware.RequireRoles(d.Guard, d.Log, roles...)
	}

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Route("/auth", func(auth chi.Router) {
			if d.AuthLimiter != nil {
				auth.Use(d.AuthLimiter.Middleware)
			}
			auth.Post("/register", authHandler.Register)
			auth.Post("/login", authHandler.Login)
		})

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(authenticate)

			protected.Route("/documents", func(docs chi.Router) {
				docs.Post("/upload", docHandler.Upload)
				docs.Post("/create", docHandler.Create)
				docs.Post("/get-presigned-url", docHandler.PresignedURL)
				docs.With(requireRoles(models.RoleAdmin)).Get("/find_by_user/{user_id}", docHandler.FindByUser)
				docs.Get("/find_my_documents", docHandler.FindMine)
				docs.Get("/find/{id}", docHandler.FindOne)
				docs.With(requireRoles(models.RoleAdmin, models.RoleEditor)).Delete("/remove/{id}", docHandler.Remove)
				docs.Post("/{id}/ingest", docHandler.Ingest)
			})

			protected.Route("/users", func(users chi.Router) {
				users.Use(requireRoles(models.RoleAdmin))
				users.Get("/", userHandler.List)
				users.Get("/{id}", userHandler.Get)
				users.Patch("/{id}/role", userHandler.UpdateRole)
				users.Delete("/{id}", userHandler.Delete)
			})
		})
	})

	return r
}

// Server wraps the HTTP server instance.
type Server struct {
	httpServer *http.Server
	log        logrus.FieldLogger
}

func NewServer(port string, handler http.Handler, log logrus.FieldLogger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
