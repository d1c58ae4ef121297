// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultJWTSecret = "your-secret-key-change-in-production"

	// MaxFeeRateBp bounds the platform fee rate at all times.
	MaxFeeRateBp = 1000

	TransferBackendLedger = "ledger"
	TransferBackendStripe = "stripe"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Platform    PlatformConfig
	Transfer    TransferConfig
	AWS         AWSConfig
	Storage     StorageConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Log         LogConfig
	Metrics     MetricsConfig
	I18n        I18nConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Driver       string // postgres or sqlite
	URL          string
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	SQLitePath   string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey      string
	Issuer         string
	AccessTokenTTL int // in hours
}

type PlatformConfig struct {
	OperatorID   string
	TreasuryID   string
	FeeRateBp    int // applied only when the platform state is first created
	AuditEnabled bool
}

type TransferConfig struct {
	Backend         string
	Currency        string
	StripeSecretKey string
	StripeAPIURL    string // overrides the Stripe endpoint, for test doubles
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	S3Bucket        string
	PublicBaseURL   string
}

type StorageConfig struct {
	LocalPath    string
	MaxFileSize  int64
	AllowedTypes []string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

type I18nConfig struct {
	DefaultLocale string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			URL:          getEnv("DATABASE_URL", ""),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "ip_ledger"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			SQLitePath:   getEnv("DB_SQLITE_PATH", "ip_ledger.db"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", defaultJWTSecret),
			Issuer:         getEnv("JWT_ISSUER", "ip-ledger"),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 24),
		},
		Platform: PlatformConfig{
			OperatorID:   getEnv("PLATFORM_OPERATOR_ID", "operator"),
			TreasuryID:   getEnv("PLATFORM_TREASURY_ID", "treasury"),
			FeeRateBp:    getEnvAsInt("PLATFORM_FEE_RATE_BP", 250),
			AuditEnabled: getEnvAsBool("PLATFORM_AUDIT_ENABLED", true),
		},
		Transfer: TransferConfig{
			Backend:         getEnv("TRANSFER_BACKEND", TransferBackendLedger),
			Currency:        getEnv("TRANSFER_CURRENCY", "usd"),
			StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			StripeAPIURL:    getEnv("STRIPE_API_URL", ""),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("AWS_S3_ENDPOINT", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "ip-ledger-metadata"),
			PublicBaseURL:   getEnv("AWS_PUBLIC_BASE_URL", ""),
		},
		Storage: StorageConfig{
			LocalPath:    getEnv("STORAGE_LOCAL_PATH", "./uploads"),
			MaxFileSize:  int64(getEnvAsInt("STORAGE_MAX_FILE_SIZE", 1<<20)),
			AllowedTypes: getEnvAsList("STORAGE_ALLOWED_TYPES", []string{".json", ".txt", ".pdf"}),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == defaultJWTSecret && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Driver == "postgres" && c.Database.URL == "" && c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Platform.OperatorID == "" {
		return fmt.Errorf("platform operator identity is required")
	}

	if c.Platform.TreasuryID == "" || c.Platform.TreasuryID == c.Platform.OperatorID {
		return fmt.Errorf("platform treasury identity must be set and differ from the operator")
	}

	if c.Platform.FeeRateBp < 0 || c.Platform.FeeRateBp > MaxFeeRateBp {
		return fmt.Errorf("platform fee rate must be between 0 and %d bp", MaxFeeRateBp)
	}

	switch c.Transfer.Backend {
	case TransferBackendLedger:
	case TransferBackendStripe:
		if c.Transfer.StripeSecretKey == "" {
			return fmt.Errorf("stripe transfer backend requires STRIPE_SECRET_KEY")
		}
	default:
		return fmt.Errorf("unsupported transfer backend %q", c.Transfer.Backend)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
