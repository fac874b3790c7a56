package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/veritaslab/aiprobe/internal/application"
	appanalysis "github.com/veritaslab/aiprobe/internal/application/analysis"
	"github.com/veritaslab/aiprobe/internal/config"
	domain "github.com/veritaslab/aiprobe/internal/domain/analysis"
	"github.com/veritaslab/aiprobe/internal/domain/providers"
	"github.com/veritaslab/aiprobe/internal/domain/routing"
	memcache "github.com/veritaslab/aiprobe/internal/infra/cache/memory"
	rediscache "github.com/veritaslab/aiprobe/internal/infra/cache/redis"
	mysqlp "github.com/veritaslab/aiprobe/internal/infra/db/mysql"
	postgresp "github.com/veritaslab/aiprobe/internal/infra/db/postgres"
	"github.com/veritaslab/aiprobe/internal/infra/httpserver"
	"github.com/veritaslab/aiprobe/internal/infra/providers/anthropic"
	"github.com/veritaslab/aiprobe/internal/infra/providers/gemini"
	"github.com/veritaslab/aiprobe/internal/infra/providers/local"
	"github.com/veritaslab/aiprobe/internal/infra/providers/openai"
	minioStore "github.com/veritaslab/aiprobe/internal/infra/storage"
	"github.com/veritaslab/aiprobe/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect history DB (optional)
	var repo domain.Repository
	var db *sql.DB
	switch cfg.Database.Driver {
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		repo = mysqlp.NewAnalysisRepository(db)
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		repo = postgresp.NewAnalysisRepository(db)
	case "":
		log.Println("no database driver configured, history disabled")
	default:
		log.Fatalf("unknown database driver: %s", cfg.Database.Driver)
	}
	if db != nil {
		defer db.Close()
	}

	// result cache: redis kalau ada, fallback ke memori
	var cache domain.Cache
	checkers := map[string]middleware.HealthChecker{}
	if cfg.Redis.Addr != "" {
		rc, err := rediscache.New(ctx, cfg.Redis.Addr)
		if err != nil {
			log.Printf("redis unavailable (%v), using in-memory cache", err)
			cache = memcache.New(0)
		} else {
			defer rc.Close()
			cache = rc
			checkers["redis"] = middleware.CheckerFunc(rc.Ping)
		}
	} else {
		cache = memcache.New(0)
	}
	if db != nil {
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	// init minio (optional, uploads only)
	var store *minioStore.Store
	if cfg.Minio.Endpoint != "" {
		store, err = minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
	}

	// register providers; registration order is the default fallback order
	registry := providers.NewRegistry()
	mustRegister(registry, openai.NewClient(cfg.OpenAIKey, cfg.Providers.OpenAI.Model, cfg.Timeout()))
	mustRegister(registry, anthropic.NewClient(cfg.AnthropicKey, cfg.Providers.Anthropic.Model, cfg.Timeout()))
	mustRegister(registry, gemini.NewClient(cfg.GeminiKey, cfg.Providers.Gemini.Model, cfg.Timeout()))
	mustRegister(registry, local.New())

	// routing table: per-task ranking for text-like content
	table := routing.Table{}
	for _, ct := range []domain.ContentType{domain.ContentText, domain.ContentURL, domain.ContentDocument} {
		table.Entry(domain.TaskAnalyze, ct, openai.ProviderID, anthropic.ProviderID, gemini.ProviderID)
		table.Entry(domain.TaskFactCheck, ct, anthropic.ProviderID, openai.ProviderID, gemini.ProviderID)
		table.Entry(domain.TaskSummarize, ct, gemini.ProviderID, openai.ProviderID, anthropic.ProviderID)
	}
	router := routing.New(registry, table, local.ProviderID)

	// init orchestrator
	svc := appanalysis.NewService(registry, router, cache, repo, application.SystemClock{}, appanalysis.Options{
		Timeout:  cfg.Timeout(),
		Retries:  cfg.Analysis.Retries,
		CacheTTL: cfg.CacheTTL(),
	})

	// init router
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))
	if len(cfg.Auth.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
		mux.Use(middleware.RequireValidTenant)
	}
	mux.Mount("/", httpserver.NewRouter(svc, store, middleware.HealthHandler(checkers)))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * cfg.Timeout(),
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func mustRegister(reg *providers.Registry, p providers.Provider) {
	if err := reg.Register(p); err != nil {
		log.Fatalf("provider registration error: %v", err)
	}
}
