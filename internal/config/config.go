// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	Environment string
	Server      ServerConfig
	Store       StoreConfig
	Database    DatabaseConfig
	Mongo       MongoConfig
	Redis       RedisConfig
	Lock        LockConfig
	JWT         JWTConfig
	AWS         AWSConfig
	Raffle      RaffleConfig
	Admin       AdminConfig
	Log         LogConfig
	RateLimit   RateLimitConfig
	I18n        I18nConfig
}

type ServerConfig struct {
	Port           string
	Host           string
	ReadTimeout    int
	WriteTimeout   int
	IdleTimeout    int
	AllowedOrigins []string
	PublicURL      string
	UploadDir      string
}

// StoreConfig selects the persistence backend: memory, postgres, mysql or mongo.
type StoreConfig struct {
	Driver string
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
}

// LockConfig selects the per-raffle lock implementation: local or redis.
type LockConfig struct {
	Driver      string
	WaitTimeout time.Duration
	TTL         time.Duration
	KeyPrefix   string
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  int // in hours
	RefreshTokenTTL int // in hours
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

type RaffleConfig struct {
	KeepOrphanTickets     bool
	SellerCodeLength      int
	SellerCodeMaxAttempts int
	MaxTicketsPerRaffle   int
	SeedDemoData          bool
}

type AdminConfig struct {
	Emails []string
}

type LogConfig struct {
	Level  string
	Format string
}

type RateLimitConfig struct {
	GeneralPerSecond int
	GeneralBurst     int
	AuthPerMinute    int
	UploadPerMinute  int
}

type I18nConfig struct {
	DefaultLocale string
	LocalesPath   string
}

// Load reads .env, an optional config.yaml and the process environment, in
// increasing order of precedence.
func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	l := loader{v: v}
	storeDriver := strings.ToLower(l.getEnv("STORE_DRIVER", "memory"))

	// The SQL dialect follows the store driver
	dbDriver, dbPort := "postgres", "5432"
	if storeDriver == "mysql" {
		dbDriver, dbPort = "mysql", "3306"
	}

	config := &Config{
		Environment: l.getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:           l.getEnv("SERVER_PORT", "8080"),
			Host:           l.getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:    l.getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:   l.getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:    l.getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			AllowedOrigins: l.getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			PublicURL:      l.getEnv("PUBLIC_URL", "http://localhost:8080"),
			UploadDir:      l.getEnv("UPLOAD_DIR", "./uploads"),
		},
		Store: StoreConfig{
			Driver: storeDriver,
		},
		Database: DatabaseConfig{
			Driver:       dbDriver,
			Host:         l.getEnv("DB_HOST", "localhost"),
			Port:         l.getEnv("DB_PORT", dbPort),
			User:         l.getEnv("DB_USER", "postgres"),
			Password:     l.getEnv("DB_PASSWORD", ""),
			Database:     l.getEnv("DB_NAME", "rifas"),
			SSLMode:      l.getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: l.getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: l.getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  l.getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     l.getEnv("DB_LOG_LEVEL", "silent"),
		},
		Mongo: MongoConfig{
			URI:      l.getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: l.getEnv("MONGO_DATABASE", "rifas"),
		},
		Redis: RedisConfig{
			Host:     l.getEnv("REDIS_HOST", "localhost"),
			Port:     l.getEnv("REDIS_PORT", "6379"),
			Password: l.getEnv("REDIS_PASSWORD", ""),
			DB:       l.getEnvAsInt("REDIS_DB", 0),
			PoolSize: l.getEnvAsInt("REDIS_POOL_SIZE", 10),
		},
		Lock: LockConfig{
			Driver:      strings.ToLower(l.getEnv("LOCK_DRIVER", "local")),
			WaitTimeout: l.getEnvAsDuration("LOCK_WAIT_TIMEOUT", 2*time.Second),
			TTL:         l.getEnvAsDuration("LOCK_TTL", 10*time.Second),
			KeyPrefix:   l.getEnv("LOCK_KEY_PREFIX", "rifas:lock:"),
		},
		JWT: JWTConfig{
			SecretKey:       l.getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenTTL:  l.getEnvAsInt("JWT_ACCESS_TTL", 24),   // 24 hours
			RefreshTokenTTL: l.getEnvAsInt("JWT_REFRESH_TTL", 168), // 7 days
		},
		AWS: AWSConfig{
			Region:          l.getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     l.getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: l.getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        l.getEnv("AWS_S3_BUCKET", "rifas-assets"),
			CloudFrontURL:   l.getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		Raffle: RaffleConfig{
			KeepOrphanTickets:     l.getEnvAsBool("KEEP_ORPHAN_TICKETS", true),
			SellerCodeLength:      l.getEnvAsInt("SELLER_CODE_LENGTH", 6),
			SellerCodeMaxAttempts: l.getEnvAsInt("SELLER_CODE_MAX_ATTEMPTS", 5),
			MaxTicketsPerRaffle:   l.getEnvAsInt("MAX_TICKETS_PER_RAFFLE", 100000),
			SeedDemoData:          l.getEnvAsBool("SEED_DEMO_DATA", false),
		},
		Admin: AdminConfig{
			Emails: l.getEnvAsSlice("ADMIN_EMAILS", []string{"admin@rifa.com"}),
		},
		Log: LogConfig{
			Level:  l.getEnv("LOG_LEVEL", "info"),
			Format: l.getEnv("LOG_FORMAT", ""),
		},
		RateLimit: RateLimitConfig{
			GeneralPerSecond: l.getEnvAsInt("RATE_LIMIT_PER_SECOND", 10),
			GeneralBurst:     l.getEnvAsInt("RATE_LIMIT_BURST", 20),
			AuthPerMinute:    l.getEnvAsInt("RATE_LIMIT_AUTH_PER_MINUTE", 5),
			UploadPerMinute:  l.getEnvAsInt("RATE_LIMIT_UPLOAD_PER_MINUTE", 10),
		},
		I18n: I18nConfig{
			DefaultLocale: l.getEnv("DEFAULT_LOCALE", "es"),
			LocalesPath:   l.getEnv("LOCALES_PATH", "./internal/i18n/locales"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == defaultJWTSecret && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	switch c.Store.Driver {
	case "memory", "mongo":
	case "postgres", "mysql":
		if c.Database.Password == "" && c.Environment == "production" {
			return fmt.Errorf("database password is required in production")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}

	if c.Store.Driver == "memory" && c.Environment == "production" {
		return fmt.Errorf("memory store is not allowed in production")
	}

	switch c.Lock.Driver {
	case "local", "redis":
	default:
		return fmt.Errorf("unsupported LOCK_DRIVER %q", c.Lock.Driver)
	}

	if c.Lock.WaitTimeout <= 0 {
		return fmt.Errorf("LOCK_WAIT_TIMEOUT must be positive")
	}
	if c.Lock.Driver == "redis" && c.Lock.TTL <= c.Lock.WaitTimeout {
		return fmt.Errorf("LOCK_TTL must exceed LOCK_WAIT_TIMEOUT")
	}

	if c.Raffle.SellerCodeLength < 4 {
		return fmt.Errorf("SELLER_CODE_LENGTH must be at least 4")
	}
	if c.Raffle.SellerCodeMaxAttempts < 1 {
		return fmt.Errorf("SELLER_CODE_MAX_ATTEMPTS must be at least 1")
	}

	return nil
}

// IsAdminEmail reports whether email belongs to the configured administrators.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.Admin.Emails {
		if strings.EqualFold(strings.TrimSpace(e), email) {
			return true
		}
	}
	return false
}

// Helper functions
type loader struct {
	v *viper.Viper
}

func (l loader) getEnv(key, defaultValue string) string {
	l.v.SetDefault(key, defaultValue)
	return l.v.GetString(key)
}

func (l loader) getEnvAsInt(key string, defaultValue int) int {
	l.v.SetDefault(key, defaultValue)
	return l.v.GetInt(key)
}

func (l loader) getEnvAsBool(key string, defaultValue bool) bool {
	l.v.SetDefault(key, defaultValue)
	return l.v.GetBool(key)
}

func (l loader) getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	l.v.SetDefault(key, defaultValue)
	return l.v.GetDuration(key)
}

func (l loader) getEnvAsSlice(key string, defaultValue []string) []string {
	raw := l.v.GetString(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
