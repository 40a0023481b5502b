package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	appMiddleware "github.com/markdave123-py/docflow/internal/api/middlewares"
	"github.com/markdave123-py/docflow/internal/config"
	"github.com/markdave123-py/docflow/internal/core"
	db "github.com/markdave123-py/docflow/internal/core/database"
	"github.com/markdave123-py/docflow/internal/core/ingestion_engine"
	objectclient "github.com/markdave123-py/docflow/internal/core/object-client"
	"github.com/markdave123-py/docflow/internal/core/token"
	"github.com/markdave123-py/docflow/internal/metrics"
	"github.com/markdave123-py/docflow/internal/services"
)

type App struct {
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	Users        *services.UserService
	Documents    *services.DocumentService
	Server       *Server

	limiter *appMiddleware.RateLimiter
	log     logrus.FieldLogger
}

// NewApp connects the stores and builds every service behind the HTTP server.
func NewApp(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewClient(appCtx, cfg, log)
	if err != nil {
		return nil, err
	}

	objClient, err := objectclient.NewObjectClient(appCtx, cfg, log)
	if err != nil {
		_ = dbClient.Close()
		return nil, err
	}
	log.WithField("backend", cfg.ObjectStore).Info("object client initialized and ready")

	tokens, err := token.NewJWTIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)
	if err != nil {
		_ = dbClient.Close()
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(registry)

	dispatcher, err := ingestion_engine.NewHTTPDispatcher(ingestion_engine.DispatchConfig{
		Endpoint: cfg.IngestionURL,
		Timeout:  cfg.IngestionTimeout,
	}, recorder, log)
	if err != nil {
		_ = dbClient.Close()
		return nil, err
	}

	users := services.NewUserService(dbClient, log)
	storage := services.NewStorageService(objClient, cfg.PresignExpiry, log)
	docs := services.NewDocumentService(dbClient, users, storage, dispatcher, recorder, log)
	limiter := appMiddleware.NewRateLimiter(cfg.AuthRatePerMin, 5*time.Minute, log)

	router := NewRouter(RouterDeps{
		Log:            log,
		Metrics:        recorder,
		Gatherer:       registry,
		Guard:          services.NewGuard(tokens),
		Auth:           services.NewAuthService(users, tokens, log),
		Users:          users,
		Documents:      docs,
		AuthLimiter:    limiter,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	return &App{
		DBClient:     dbClient,
		ObjectClient: objClient,
		Users:        users,
		Documents:    docs,
		Server:       NewServer(cfg.Port, router, log),
		limiter:      limiter,
		log:          log,
	}, nil
}

func (a *App) Close() {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.DBClient != nil {
		if err := a.DBClient.Close(); err != nil {
			a.log.WithError(err).Warn("closing database client")
		}
	}
}
