package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"payments_backend/internal/logger"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	AppPort  string
	LogLevel string
	LogJSON  bool

	// Storage
	DBDriver    string
	DatabaseURL string
	SQLitePath  string

	// Razorpay credentials; the key id is public and returned to clients
	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	RazorpayTimeout   time.Duration
	Currency          string

	// Hardened mode: bearer JWT on every payment route
	AuthRequired bool
	JWTSecret    string

	// Telegram notifications for confirmed payments; off without a token
	TelegramBotToken string
	AdminTelegramIDs []int64

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	APIRateLimit    int
	APIRateWindow   time.Duration
	AllowedOrigin   string
	ShutdownTimeout time.Duration
}

// Load reads the process environment (and a .env file when present).
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:           getenv("APP_PORT", "8080"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		LogJSON:           os.Getenv("LOG_JSON") == "true",
		DBDriver:          strings.ToLower(getenv("DB_DRIVER", DriverPostgres)),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		SQLitePath:        getenv("SQLITE_PATH", "./payments.db"),
		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayBaseURL:   getenv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
		RazorpayTimeout:   time.Duration(getInt("RAZORPAY_TIMEOUT_SECONDS", 30)) * time.Second,
		Currency:          strings.ToUpper(getenv("PAYMENT_CURRENCY", "INR")),
		AuthRequired:      os.Getenv("AUTH_REQUIRED") == "true",
		JWTSecret:         os.Getenv("JWT_SECRET"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getInt("REDIS_DB", 0),
		APIRateLimit:      getInt("API_RATE_LIMIT", 60),
		APIRateWindow:     time.Duration(getInt("API_RATE_WINDOW_SECONDS", 60)) * time.Second,
		AllowedOrigin:     os.Getenv("ALLOWED_ORIGIN"),
		TelegramBotToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		AdminTelegramIDs:  parseIDs(os.Getenv("ADMIN_TELEGRAM_IDS")),
		ShutdownTimeout:   10 * time.Second,
	}

	if cfg.RazorpayKeyID == "" {
		logger.Fatal("RAZORPAY_KEY_ID is not set")
	}
	if cfg.RazorpayKeySecret == "" {
		logger.Fatal("RAZORPAY_KEY_SECRET is not set")
	}

	switch cfg.DBDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			logger.Fatal("DATABASE_URL is not set")
		}
	case DriverSQLite:
	default:
		logger.Fatal("unsupported DB_DRIVER", "driver", cfg.DBDriver)
	}

	if len(cfg.Currency) != 3 {
		logger.Fatal("PAYMENT_CURRENCY must be a three-letter code", "currency", cfg.Currency)
	}

	if cfg.AuthRequired && cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is not set but AUTH_REQUIRED=true")
	}

	if cfg.TelegramBotToken != "" && len(cfg.AdminTelegramIDs) == 0 {
		logger.Warn("TELEGRAM_BOT_TOKEN set without ADMIN_TELEGRAM_IDS; notifications disabled")
	}

	return cfg
}

// parseIDs reads a comma separated list of chat ids, skipping bad entries.
func parseIDs(v string) []int64 {
	var ids []int64
	for _, idStr := range strings.Split(v, ",") {
		idStr = strings.TrimSpace(idStr)
		if idStr == "" {
			continue
		}
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getInt keeps def for unset, malformed or negative values.
func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
