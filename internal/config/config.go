package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	Order    OrderConfig
	Seed     SeedConfig
}

type ServerConfig struct {
	Port         string
	AppName      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogQueries      bool
}

// SessionConfig collapses the local/production cookie variants into one set
// of options.
type SessionConfig struct {
	RedisURL       string
	Secret         string
	CookieName     string
	CookieSecure   bool
	CookieSameSite string
	TTL            time.Duration
}

type OrderConfig struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	OrderNoPrefix         string
	OrderNoMaxAttempts    int
	CheckoutMaxRetries    int
	StrictTransitions     bool
}

type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
}

const devSessionSecret = "dev-secret-change-me"

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	sameSite, err := parseSameSite(getEnv("COOKIE_SAMESITE", "Lax"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "3001"),
			AppName:      getEnv("APP_NAME", "Shop API v1.0"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			CORSOrigins:  getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			URL:             databaseURL(),
			MaxOpenConns:    getEnvInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DATABASE_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DATABASE_CONN_MAX_LIFETIME", time.Hour),
			LogQueries:      getEnvBool("DATABASE_LOG_QUERIES", false),
		},
		Session: SessionConfig{
			RedisURL:       getEnv("REDIS_URL", ""),
			Secret:         getEnv("SESSION_SECRET", devSessionSecret),
			CookieName:     getEnv("SESSION_COOKIE_NAME", "shop.sid"),
			CookieSecure:   getEnvBool("COOKIE_SECURE", false),
			CookieSameSite: sameSite,
			TTL:            getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		},
		Order: OrderConfig{
			FreeShippingThreshold: getEnvDecimal("FREE_SHIPPING_THRESHOLD", decimal.NewFromInt(30000)),
			ShippingFee:           getEnvDecimal("SHIPPING_FEE", decimal.NewFromInt(3000)),
			OrderNoPrefix:         getEnv("ORDER_NO_PREFIX", "KY"),
			OrderNoMaxAttempts:    getEnvInt("ORDER_NO_MAX_ATTEMPTS", 5),
			CheckoutMaxRetries:    getEnvInt("CHECKOUT_MAX_RETRIES", 3),
			StrictTransitions:     getEnvBool("ORDER_STRICT_TRANSITIONS", false),
		},
		Seed: SeedConfig{
			AdminEmail:    getEnv("SEED_ADMIN_EMAIL", ""),
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
		},
	}

	if cfg.Session.CookieSameSite == "None" && !cfg.Session.CookieSecure {
		return nil, fmt.Errorf("COOKIE_SAMESITE=None requires COOKIE_SECURE=true")
	}
	if cfg.Session.CookieSecure && (cfg.Session.Secret == "" || cfg.Session.Secret == devSessionSecret) {
		return nil, fmt.Errorf("COOKIE_SECURE=true requires SESSION_SECRET to be set")
	}
	for _, origin := range cfg.Server.CORSOrigins {
		if origin == "*" {
			return nil, fmt.Errorf("CORS_ORIGINS cannot be * because session cookies are sent with credentials")
		}
	}
	if cfg.Order.OrderNoMaxAttempts < 1 {
		cfg.Order.OrderNoMaxAttempts = 1
	}

	return cfg, nil
}

func databaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_NAME", "shop"),
		getEnv("DB_PORT", "5432"),
	)
}

func parseSameSite(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "lax":
		return "Lax", nil
	case "strict":
		return "Strict", nil
	case "none":
		return "None", nil
	}
	return "", fmt.Errorf("invalid COOKIE_SAMESITE %q: use Lax, Strict or None", value)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid integer for %s, using default", key)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: invalid boolean for %s, using default", key)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration for %s, using default", key)
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil && !d.IsNegative() {
			return d
		}
		log.Printf("Warning: invalid amount for %s, using default", key)
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
