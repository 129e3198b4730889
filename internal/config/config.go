package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. It is built once per process
// and handed to each component's constructor.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Logging  LoggingConfig
	AI       AIConfig
	Payment  PaymentConfig
	Quota    QuotaConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	AllowedOrigins  []string
	RateLimitRPS    float64
	RateLimitBurst  int
	Environment     string
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string // sqlite or postgres
	URL             string // postgres connection string
	Path            string // sqlite file
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	WriteTimeout    time.Duration
}

// AuthConfig contains OTP and token settings
type AuthConfig struct {
	JWTSecret    string
	TokenExpiry  time.Duration
	CodeTTL      time.Duration
	CodeLength   int
	OTPRateLimit float64
	OTPBurst     int
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string
	Format     string // json or console
	OutputPath string
}

// AIConfig configures the completion provider
type AIConfig struct {
	Provider     string // openai or gemini
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	SystemPrompt string
	Timeout      time.Duration
	GeminiAPIKey string
	GeminiModel  string
	GeminiURL    string
}

// PaymentConfig configures the YooKassa gateway
type PaymentConfig struct {
	ShopID         string
	SecretKey      string
	APIURL         string
	ReturnURL      string
	Currency       string
	DescriptionFmt string
	VerifyWebhooks bool
	Timeout        time.Duration

	// pending payments younger than ReconcileAfter are left to the webhook
	ReconcileAfter time.Duration
	ReconcileBatch int
}

// QuotaConfig holds the entitlement constants
type QuotaConfig struct {
	FreeRequests      int
	UnlimitedSentinel int
}

const defaultSystemPrompt = "Ты помощник для решения текстовых задач. Отвечай четко и по делу."

// Load reads configuration from the environment, after an optional .env file
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			RateLimitRPS:    getEnvAsFloat("RATE_LIMIT_RPS", 20),
			RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 40),
			Environment:     getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", ""),
			URL:             getEnv("DATABASE_URL", ""),
			Path:            getEnv("DB_PATH", "./pulseai.db"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			WriteTimeout:    getEnvAsDuration("DB_WRITE_TIMEOUT", 30*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", ""),
			TokenExpiry:  getEnvAsDuration("JWT_EXPIRY", 30*24*time.Hour),
			CodeTTL:      getEnvAsDuration("OTP_TTL", 5*time.Minute),
			CodeLength:   getEnvAsInt("OTP_LENGTH", 6),
			OTPRateLimit: getEnvAsFloat("OTP_RATE_LIMIT_RPS", 0.2),
			OTPBurst:     getEnvAsInt("OTP_RATE_LIMIT_BURST", 5),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
		AI: AIConfig{
			Provider:     strings.ToLower(getEnv("AI_PROVIDER", "openai")),
			APIKey:       getEnv("OPENAI_API_KEY", ""),
			BaseURL:      getEnv("OPENAI_BASE_URL", ""),
			Model:        getEnv("OPENAI_MODEL", "gpt-4"),
			MaxTokens:    getEnvAsInt("OPENAI_MAX_TOKENS", 1000),
			SystemPrompt: getEnv("OPENAI_SYSTEM_PROMPT", defaultSystemPrompt),
			Timeout:      getEnvAsDuration("OPENAI_TIMEOUT", 30*time.Second),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			GeminiURL:    getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta"),
		},
		Payment: PaymentConfig{
			ShopID:         getEnv("YOOKASSA_SHOP_ID", ""),
			SecretKey:      getEnv("YOOKASSA_SECRET_KEY", ""),
			APIURL:         getEnv("YOOKASSA_API_URL", "https://api.yookassa.ru/v3"),
			ReturnURL:      getEnv("PAYMENT_RETURN_URL", "https://pulseai.ru/payment/success"),
			Currency:       getEnv("PAYMENT_CURRENCY", "RUB"),
			DescriptionFmt: getEnv("PAYMENT_DESCRIPTION", "PulseAI - %s"),
			VerifyWebhooks: getEnvAsBool("YOOKASSA_VERIFY_WEBHOOKS", false),
			Timeout:        getEnvAsDuration("YOOKASSA_TIMEOUT", 30*time.Second),
			ReconcileAfter: getEnvAsDuration("PAYMENT_RECONCILE_AFTER", 15*time.Minute),
			ReconcileBatch: getEnvAsInt("PAYMENT_RECONCILE_BATCH", 100),
		},
		Quota: QuotaConfig{
			FreeRequests:      getEnvAsInt("FREE_REQUESTS", 10),
			UnlimitedSentinel: getEnvAsInt("UNLIMITED_SENTINEL", 999999),
		},
	}

	if cfg.Database.Driver == "" {
		if cfg.Database.URL != "" {
			cfg.Database.Driver = "postgres"
		} else {
			cfg.Database.Driver = "sqlite"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Auth.CodeLength < 4 || c.Auth.CodeLength > 9 {
		return fmt.Errorf("OTP_LENGTH must be between 4 and 9, got %d", c.Auth.CodeLength)
	}

	if c.Quota.FreeRequests < 0 {
		return fmt.Errorf("FREE_REQUESTS must not be negative")
	}

	switch c.AI.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unsupported AI provider: %s", c.AI.Provider)
	}

	if c.Payment.ReconcileAfter < 0 {
		return fmt.Errorf("PAYMENT_RECONCILE_AFTER must not be negative")
	}

	if !c.IsDevelopment() {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET must be set outside development")
		}
		if c.AI.Provider == "openai" && c.AI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY must be set outside development")
		}
		if c.AI.Provider == "gemini" && c.AI.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY must be set outside development")
		}
		if c.Payment.ShopID == "" || c.Payment.SecretKey == "" {
			return fmt.Errorf("YOOKASSA_SHOP_ID and YOOKASSA_SECRET_KEY must be set outside development")
		}
	}

	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = "development-secret"
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
