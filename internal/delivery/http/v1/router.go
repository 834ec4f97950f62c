package v1

import (
	"context"
	"net/http"

	"trailer-booking/config"
	"trailer-booking/internal/delivery/http/middleware"
	"trailer-booking/internal/delivery/http/response"
	"trailer-booking/internal/delivery/http/web"
	"trailer-booking/internal/domain"
	"trailer-booking/pkg/apperror"
	"trailer-booking/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	BookingUC domain.BookingUsecase
	Config    *config.Config
	// Redis backs the rate limit counters; nil counts in memory
	Redis *goredis.Client
	// Metrics is served on /metrics; nil leaves the route out
	Metrics prometheus.Gatherer
	// HealthCheck reports whether the session store is reachable
	HealthCheck func(context.Context) error
}

func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	validation.RegisterGinValidators()

	r := gin.New()
	r.SetHTMLTemplate(web.Templates())

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins, cfg.IsProduction())) // CORS must be first!
	r.Use(middleware.RequestID())
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.SecurityHeadersMiddleware(cfg.IsProduction()))
	r.Use(middleware.ErrorHandler())

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	submitLimit := middleware.RateLimitMiddleware(middleware.SubmitRateLimitConfig(cfg, deps.Redis))

	// Everything below belongs to a visitor's form session
	site := r.Group("")
	site.Use(middleware.RateLimitMiddleware(middleware.GlobalRateLimitConfig(cfg, deps.Redis)))
	site.Use(middleware.CSRFMiddleware(cfg.CookieSecure))
	site.Use(middleware.FormSession(cfg.CookieSecure, cfg.SessionTTL))

	web.NewPageHandler(site, deps.BookingUC, submitLimit)

	v1 := site.Group("/v1")

	// Health Check
	v1.GET("/health", func(c *gin.Context) {
		if deps.HealthCheck != nil {
			if err := deps.HealthCheck(c.Request.Context()); err != nil {
				response.Error(c, http.StatusServiceUnavailable, "Session store unavailable", nil)
				return
			}
		}
		response.Success(c, http.StatusOK, "System operational", nil)
	})

	NewBookingHandler(v1, deps.BookingUC, submitLimit)

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperror.NotFound("Resource not found"))
	})

	return r
}
