package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/clearview/a11yaudit/internal/application"
	appadvice "github.com/clearview/a11yaudit/internal/application/advice"
	appaudits "github.com/clearview/a11yaudit/internal/application/audits"
	appcomposite "github.com/clearview/a11yaudit/internal/application/composite"
	appreports "github.com/clearview/a11yaudit/internal/application/reports"
	"github.com/clearview/a11yaudit/internal/config"
	"github.com/clearview/a11yaudit/internal/domain/analyses"
	"github.com/clearview/a11yaudit/internal/domain/auditerrors"
	"github.com/clearview/a11yaudit/internal/domain/results"
	openaicli "github.com/clearview/a11yaudit/internal/infra/ai/openai"
	"github.com/clearview/a11yaudit/internal/infra/db/mysql"
	"github.com/clearview/a11yaudit/internal/infra/db/postgres"
	"github.com/clearview/a11yaudit/internal/infra/httpserver"
	minioStore "github.com/clearview/a11yaudit/internal/infra/storage"
	"github.com/clearview/a11yaudit/internal/logging"
	"github.com/clearview/a11yaudit/internal/middleware"
)

type repos struct {
	analyses analyses.Repository
	results  results.Repository
	errors   auditerrors.Repository
}

func connect(ctx context.Context, cfg *config.Config) (*sql.DB, repos, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, repos{}, err
		}
		return db, repos{
			analyses: postgres.NewAnalysisRepository(db),
			results:  postgres.NewResultRepository(db),
			errors:   postgres.NewErrorRepository(db),
		}, nil
	case "", "mysql":
		db, err := mysql.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, repos{}, err
		}
		return db, repos{
			analyses: mysql.NewAnalysisRepository(db),
			results:  mysql.NewResultRepository(db),
			errors:   mysql.NewErrorRepository(db),
		}, nil
	default:
		return nil, repos{}, fmt.Errorf("unknown database driver: %q", cfg.Database.Driver)
	}
}

func main() {
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	db, repo, err := connect(ctx, cfg)
	if err != nil {
		log.Fatal("database connect error", zap.Error(err))
	}
	defer db.Close()

	compositeSvc := &appcomposite.Service{
		Analyses: repo.analyses,
		Results:  repo.results,
		Errors:   repo.errors,
	}
	auditsSvc := &appaudits.Service{
		Analyses: repo.analyses,
		Results:  repo.results,
		Errors:   repo.errors,
		Clock:    application.SystemClock{},
	}

	var reportsSvc *appreports.Service
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatal("minio init error", zap.Error(err))
		}
		reportsSvc = &appreports.Service{Store: store, Clock: application.SystemClock{}}
	} else {
		log.Info("object storage not configured, report export disabled")
	}

	var adviceSvc *appadvice.Service
	if cfg.OpenAI.APIKey != "" {
		adviceSvc = appadvice.NewService(openaicli.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model))
	} else {
		log.Info("AI provider not configured, remediation summary disabled")
	}

	health := middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	})

	rlCapacity, rlRefill := cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate
	if rlCapacity <= 0 {
		rlCapacity = 60
	}
	if rlRefill <= 0 {
		rlRefill = 1
	}

	resolver := middleware.NewIdentityResolver([]byte(cfg.Auth.JWTSecret), log)

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	mux.Use(middleware.RequestLogger(log))
	mux.Use(middleware.GatewaySecret(cfg.Gateway.Secret, log))
	mux.Use(resolver.Handler)
	mux.Use(middleware.RateLimit(rlCapacity, rlRefill))
	mux.Mount("/", httpserver.NewRouter(compositeSvc, auditsSvc, reportsSvc, adviceSvc, health, log))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}
