package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Search    SearchConfig
	Redis     RedisConfig
	Storage   StorageConfig
	OIDC      OIDCConfig
	JWT       JWTConfig
	Editor    EditorConfig
	SMTP      SMTPConfig
	Notify    NotifyConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// SearchConfig points at the RediSearch backend holding the secondary
// full-text index.
type SearchConfig struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// RedisConfig points at the Redis instance backing the distributed rate
// limiter. It may be the same server as SearchConfig or a separate one.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

type OIDCConfig struct {
	IssuerURL string
	ClientID  string
}

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

// EditorConfig holds the single editor account the local token
// endpoint accepts. An OIDC provider replaces this in production.
type EditorConfig struct {
	Username string
	Password string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NotifyConfig controls post-publish notifications.
type NotifyConfig struct {
	Recipient string
}

type RateLimitConfig struct {
	Enabled           bool
	UseRedis          bool
	RequestsPerSecond float64
	Burst             int
	WindowSeconds     int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "content_platform")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("SEARCH_ADDR", "localhost:6379")
	viper.SetDefault("SEARCH_TIMEOUT", 5)
	viper.SetDefault("STORAGE_BUCKET", "media")
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 60)
	viper.SetDefault("RATE_LIMIT_RPS", 20)
	viper.SetDefault("RATE_LIMIT_BURST", 40)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      getEnvOrPanic("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Search: SearchConfig{
			Addr:     viper.GetString("SEARCH_ADDR"),
			Password: os.Getenv("SEARCH_PASSWORD"),
			DB:       viper.GetInt("SEARCH_DB"),
			Timeout:  time.Duration(viper.GetInt("SEARCH_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		Storage: StorageConfig{
			Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
			AccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey: os.Getenv("STORAGE_SECRET_KEY"),
			Bucket:    viper.GetString("STORAGE_BUCKET"),
			UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			PublicURL: viper.GetString("STORAGE_PUBLIC_URL"),
		},
		OIDC: OIDCConfig{
			IssuerURL: viper.GetString("OIDC_ISSUER_URL"),
			ClientID:  viper.GetString("OIDC_CLIENT_ID"),
		},
		JWT: JWTConfig{
			Secret:         os.Getenv("JWT_SECRET"),
			AccessTokenTTL: time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
		},
		Editor: EditorConfig{
			Username: viper.GetString("EDITOR_USERNAME"),
			Password: os.Getenv("EDITOR_PASSWORD"),
		},
		SMTP: SMTPConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			Username: viper.GetString("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     viper.GetString("SMTP_FROM"),
		},
		Notify: NotifyConfig{
			Recipient: viper.GetString("NOTIFY_RECIPIENT"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:          viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RequestsPerSecond: viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds:     viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	// Basic validation
	if cfg.JWT.Secret == "" {
		log.Println("WARNING: JWT_SECRET is not set; set a secure value in production")
	}

	return cfg, nil
}

func getEnvOrPanic(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("environment variable %s is required", key)
	}
	return v
}
