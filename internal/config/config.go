package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StorageCloudinary = "cloudinary"
	StorageMinIO      = "minio"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	DatabaseURL string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	RedisURL     string
	RedisChannel string
	NATSURL      string
	NATSSubject  string
	AMQPURL      string
	AMQPExchange string

	JWTSecret        string
	CORSAllowOrigins string

	StorageDriver          string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	MinIOEndpoint          string
	MinIOAccessKey         string
	MinIOSecretKey         string
	MinIOBucket            string
	MinIORegion            string
	MinIOUseSSL            bool
	MinIOPublicURL         string

	UploadMaxSizeMB   int
	AutosaveDebounce  time.Duration
	PortfolioCacheTTL time.Duration
	LinkMetaTimeout   time.Duration
	RateLimitMax      int
	RateLimitWindow   time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsDevelopment reports whether the service runs with development defaults.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// UploadMaxBytes returns the per-file upload limit in bytes.
func (c Config) UploadMaxBytes() int64 {
	return int64(c.UploadMaxSizeMB) * 1024 * 1024
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PORTFOLIO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Portfolio API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("redis.channel", "portfolio:notifications")
	v.SetDefault("nats.subject", "portfolio.notifications")
	v.SetDefault("amqp.exchange", "portfolio.events")
	v.SetDefault("storage.driver", StorageCloudinary)
	v.SetDefault("cloudinary.folder", "portfolio/assignments")
	v.SetDefault("minio.bucket", "portfolio-attachments")
	v.SetDefault("minio.region", "us-east-1")
	v.SetDefault("upload.max_size_mb", 25)
	v.SetDefault("autosave.debounce", "1500ms")
	v.SetDefault("portfolio.cache_ttl", "5m")
	v.SetDefault("linkmeta.timeout", "5s")
	v.SetDefault("rate_limit.max", 30)
	v.SetDefault("rate_limit.window", "1m")
}

func fromViper(v *viper.Viper) (Config, error) {
	debounce, err := duration(v, "autosave.debounce")
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := duration(v, "portfolio.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	linkTimeout, err := duration(v, "linkmeta.timeout")
	if err != nil {
		return Config{}, err
	}
	window, err := duration(v, "rate_limit.window")
	if err != nil {
		return Config{}, err
	}
	connLifetime, err := duration(v, "database.conn_max_lifetime")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		DBMaxOpenConns:         v.GetInt("database.max_open_conns"),
		DBMaxIdleConns:         v.GetInt("database.max_idle_conns"),
		DBConnMaxLifetime:      connLifetime,
		RedisURL:               v.GetString("redis.url"),
		RedisChannel:           v.GetString("redis.channel"),
		NATSURL:                v.GetString("nats.url"),
		NATSSubject:            v.GetString("nats.subject"),
		AMQPURL:                v.GetString("amqp.url"),
		AMQPExchange:           v.GetString("amqp.exchange"),
		JWTSecret:              v.GetString("jwt.secret"),
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
		StorageDriver:          strings.ToLower(strings.TrimSpace(v.GetString("storage.driver"))),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		MinIOEndpoint:          v.GetString("minio.endpoint"),
		MinIOAccessKey:         v.GetString("minio.access_key"),
		MinIOSecretKey:         v.GetString("minio.secret_key"),
		MinIOBucket:            v.GetString("minio.bucket"),
		MinIORegion:            v.GetString("minio.region"),
		MinIOUseSSL:            v.GetBool("minio.use_ssl"),
		MinIOPublicURL:         v.GetString("minio.public_url"),
		UploadMaxSizeMB:        v.GetInt("upload.max_size_mb"),
		AutosaveDebounce:       debounce,
		PortfolioCacheTTL:      cacheTTL,
		LinkMetaTimeout:        linkTimeout,
		RateLimitMax:           v.GetInt("rate_limit.max"),
		RateLimitWindow:        window,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.StorageDriver {
	case StorageCloudinary, StorageMinIO:
	default:
		return Config{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 25
	}
	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 30
	}

	return cfg, nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
