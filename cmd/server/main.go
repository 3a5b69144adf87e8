package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/cache"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/config"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/forecast"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/httpapi"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/salesimport"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/service"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/store"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/store/memory"
	pgstore "github.com/jaykhandelwal/pfb-dashboard-sub000/internal/store/postgres"
)

func main() {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatalf("postgres schema: %v", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		log.Println("repository: in-memory")
	}

	var reportCache cache.ReportCache = cache.NewMemoryReportCache()
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using in-process cache", err)
		} else {
			reportCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: in-process")
	}

	opts := service.Options{
		ReportCache:     reportCache,
		ReportCacheTTL:  cfg.ReportCacheTTL(),
		Location:        cfg.Location(),
		LitresPerPacket: cfg.LitresPerPacket,
	}
	if cfg.OpenAIAPIKey != "" {
		opts.SalesParser = salesimport.NewAIParser(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		log.Printf("sales import: %s with text fallback", cfg.OpenAIModel)
	} else {
		log.Println("sales import: text parser only")
	}

	forecaster := forecast.NewEngine(reportCache, cfg.ReportCacheTTL())
	svc := service.New(repo, forecaster, opts)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTokenTTL(), repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("inventory dashboard listening on %s (timezone %s)", cfg.Address(), cfg.BusinessTimezone)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.AllowedOrigin == "*" {
		return fmt.Errorf("ALLOWED_ORIGIN must name a concrete origin")
	}
	return nil
}
