package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trailer-booking/config"
	_ "trailer-booking/docs" // Important for Swagger
	"trailer-booking/internal/catalog"
	v1 "trailer-booking/internal/delivery/http/v1"
	"trailer-booking/internal/domain"
	"trailer-booking/internal/repository/session"
	"trailer-booking/internal/usecase"
	"trailer-booking/pkg/appscript"
	"trailer-booking/pkg/email"
	"trailer-booking/pkg/logger"
	"trailer-booking/pkg/metrics"
	"trailer-booking/pkg/redis"
	"trailer-booking/pkg/sheet"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// @title           Trailer Booking API
// @version         1.0
// @description     Trailer rental booking form: catalog, form sessions and submission.
// @host            localhost:8080
// @BasePath        /v1
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	// 2. Setup Logger
	logger.Init(cfg.LogLevel)
	logger.Log.Info("Starting trailer booking", "port", cfg.Port, "backend", cfg.BookingBackend)

	// 3. Load the catalog
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Log.Error("Failed to load catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 4. Setup form sessions: Redis when configured, process memory otherwise
	var sessions domain.FormSessionRepository
	if err := redis.Initialize(redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword}); err != nil {
		if cfg.UpstashRedisURL != "" {
			logger.Log.Warn("Redis unavailable, using in-memory sessions", "error", err)
		}
		mem := session.NewMemoryRepository(cfg.SessionTTL, cfg.SubmitLockTTL)
		mem.StartSweeper(ctx, time.Minute)
		sessions = mem
	} else {
		defer redis.Close()
		sessions = session.NewRedisRepository(redis.Client(), cfg.SessionTTL, cfg.SubmitLockTTL)
	}

	// 5. Setup metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(registry)

	// 6. Setup the booking backend and usecase
	backend := newBookingBackend(cfg, cat)
	bookingUC := usecase.NewBookingUsecase(cat, sessions, backend, bookingMetrics, cfg.BookingTimeout)

	// 7. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		BookingUC:   bookingUC,
		Config:      cfg,
		Redis:       redis.Client(),
		Metrics:     registry,
		HealthCheck: redis.HealthCheck,
	})

	// 8. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("Listen failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}

// newBookingBackend picks the backend named by BOOKING_BACKEND; nil for none
func newBookingBackend(cfg *config.Config, cat *domain.Catalog) domain.BookingBackend {
	switch cfg.BookingBackend {
	case config.BackendAppScript:
		client := appscript.NewClient(cfg.BookingScriptURL, &http.Client{})
		if !client.IsConfigured() {
			logger.Log.Warn("Booking script URL not configured - submissions will report the backend as unavailable")
		}
		return client
	case config.BackendEmail:
		svc := email.NewEmailService(cfg)
		if !svc.IsConfigured() {
			logger.Log.Warn("Email service not fully configured - submissions will report the backend as unavailable")
		}
		return svc
	case config.BackendSheet:
		loc, err := time.LoadLocation(cat.CalendarTimeZone)
		if err != nil {
			loc = time.UTC
		}
		return sheet.NewWorkbookBackend(cfg.BookingSheetPath, loc)
	default:
		logger.Log.Warn("No booking backend configured - submissions will report the backend as unavailable")
		return nil
	}
}
