package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	RealtimeSourcePostgres = "postgres"
	RealtimeSourceLocal    = "local"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	SignupEnabled bool
}

type AIConfig struct {
	APIKey string
	Model  string
}

type StorageConfig struct {
	Dir           string
	PublicBaseURL string
	MaxImageBytes int64
}

type RealtimeConfig struct {
	Source string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LimitsConfig struct {
	SubmissionsPerDay int
}

type Config struct {
	Environment string
	LogLevel    string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	AI          AIConfig
	Storage     StorageConfig
	Realtime    RealtimeConfig
	Redis       RedisConfig
	Limits      LimitsConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret:  v.GetString("JWT_ACCESS_SECRET"),
			AccessTTL:     v.GetDuration("JWT_ACCESS_TTL"),
			SignupEnabled: v.GetBool("AUTH_SIGNUP_ENABLED"),
		},
		AI: AIConfig{
			APIKey: v.GetString("GEMINI_API_KEY"),
			Model:  v.GetString("GEMINI_MODEL"),
		},
		Storage: StorageConfig{
			Dir:           v.GetString("STORAGE_DIR"),
			PublicBaseURL: v.GetString("STORAGE_PUBLIC_BASE_URL"),
			MaxImageBytes: v.GetInt64("UPLOAD_MAX_IMAGE_BYTES"),
		},
		Realtime: RealtimeConfig{
			Source: strings.ToLower(strings.TrimSpace(v.GetString("REALTIME_SOURCE"))),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Limits: LimitsConfig{
			SubmissionsPerDay: v.GetInt("SUBMISSION_LIMIT_PER_DAY"),
		},
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
		if cfg.Environment == "development" {
			cfg.LogLevel = "debug"
		}
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.Auth.AccessTTL <= 0 {
		cfg.Auth.AccessTTL = 12 * time.Hour
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gemini-2.5-flash-lite"
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "./data/complaint-images"
	}
	if cfg.Storage.PublicBaseURL == "" {
		cfg.Storage.PublicBaseURL = fmt.Sprintf("http://localhost:%d/media", cfg.HTTP.Port)
	}
	cfg.Storage.PublicBaseURL = strings.TrimRight(cfg.Storage.PublicBaseURL, "/")
	if cfg.Storage.MaxImageBytes <= 0 {
		cfg.Storage.MaxImageBytes = 4 * 1024 * 1024
	}
	if cfg.Realtime.Source == "" {
		cfg.Realtime.Source = RealtimeSourcePostgres
	}
	if cfg.Limits.SubmissionsPerDay <= 0 {
		cfg.Limits.SubmissionsPerDay = 20
	}
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.AI.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	switch cfg.Realtime.Source {
	case RealtimeSourcePostgres, RealtimeSourceLocal:
	default:
		return fmt.Errorf("REALTIME_SOURCE must be %q or %q", RealtimeSourcePostgres, RealtimeSourceLocal)
	}
	return nil
}

// RateLimitEnabled reports whether a redis instance is configured for the
// submission limiter.
func (c *Config) RateLimitEnabled() bool {
	return c.Redis.Addr != ""
}
