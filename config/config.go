package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Booking backends
const (
	BackendAppScript = "appscript"
	BackendEmail     = "email"
	BackendSheet     = "sheet"
	BackendNone      = "none"
)

type Config struct {
	Port     string
	GinMode  string
	LogLevel string
	// Static tables; empty means the catalog built into the binary
	CatalogPath string
	// Booking backend selection
	BookingBackend   string
	BookingScriptURL string
	BookingTimeout   time.Duration // 0 = never cut a submission short
	BookingEmailTo   string
	BookingSheetPath string
	// SMTP Configuration (Brevo)
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	SMTPFromEmail string
	// Redis/Upstash Configuration
	UpstashRedisURL      string
	UpstashRedisPassword string
	// Form sessions
	SessionTTL    time.Duration
	SubmitLockTTL time.Duration
	CookieSecure  bool
	// Rate Limiting Configuration
	RateLimitWindowSeconds   int
	RateLimitSubmitThreshold int
	RateLimitGlobalThreshold int
	// CORS
	AllowedOrigins []string
}

func LoadConfig() (*Config, error) {
	// .env is optional; in production the variables come from the environment
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CatalogPath: getEnv("CATALOG_PATH", ""),
		// Booking backend
		BookingBackend:   strings.ToLower(getEnv("BOOKING_BACKEND", BackendAppScript)),
		BookingScriptURL: strings.TrimSpace(getEnv("BOOKING_SCRIPT_URL", "")),
		BookingTimeout:   getEnvDuration("BOOKING_TIMEOUT", 0),
		BookingEmailTo:   getEnv("BOOKING_EMAIL_TO", ""),
		BookingSheetPath: getEnv("BOOKING_SHEET_PATH", "bookings.xlsx"),
		// SMTP Configuration
		SMTPHost:      getEnv("SMTP_HOST", "smtp-relay.brevo.com"),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SMTPFromEmail: getEnv("SMTP_FROM_EMAIL", ""),
		// Redis/Upstash Configuration
		UpstashRedisURL:      getEnv("UPSTASH_REDIS_URL", ""),
		UpstashRedisPassword: getEnv("UPSTASH_REDIS_PASSWORD", ""),
		// Form sessions
		SessionTTL:    time.Duration(getEnvInt("SESSION_TTL_MINUTES", 120)) * time.Minute,
		SubmitLockTTL: time.Duration(getEnvInt("SUBMIT_LOCK_SECONDS", 120)) * time.Second,
		CookieSecure:  getEnvBool("COOKIE_SECURE", false),
		// Rate Limiting Configuration
		RateLimitWindowSeconds:   getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitSubmitThreshold: getEnvInt("RATE_LIMIT_SUBMIT_THRESHOLD", 10),
		RateLimitGlobalThreshold: getEnvInt("RATE_LIMIT_GLOBAL_THRESHOLD", 120),
		// CORS
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:8080"}),
	}

	switch cfg.BookingBackend {
	case BackendAppScript, BackendEmail, BackendSheet, BackendNone:
	default:
		log.Printf("WARNING: unknown BOOKING_BACKEND %q, submissions will be rejected.", cfg.BookingBackend)
		cfg.BookingBackend = BackendNone
	}

	if cfg.BookingBackend == BackendAppScript && cfg.BookingScriptURL == "" {
		log.Println("WARNING: BOOKING_SCRIPT_URL is missing. Booking submissions will not work.")
	}

	if cfg.UpstashRedisURL == "" {
		log.Println("WARNING: UPSTASH_REDIS_URL not configured. Form sessions and rate limiting will use in-memory fallback.")
	}

	return cfg, nil
}

// IsProduction reports whether gin runs in release mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("45s", "2m") or plain seconds
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping blanks
func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.TrimRight(part, "/"))
		}
	}
	return out
}
