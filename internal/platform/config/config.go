// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreMongo = "mongo"
	StoreSQL   = "sql"
)

// ErrMissingSecret is returned when JWT_SECRET is unset. There is no fallback secret.
var ErrMissingSecret = errors.New("JWT_SECRET is required")

type Config struct {
	Env      string
	HTTPPort string
	DemoMode bool

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	StoreDriver string
	Mongo       MongoConfig
	SQL         SQLConfig
	Redis       RedisConfig

	RateLimitAuth   int
	RateLimitWindow time.Duration
	UserCacheTTL    time.Duration

	CORSAllowedOrigins []string
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	OpTimeout      time.Duration
}

type SQLConfig struct {
	Driver         string
	DSN            string
	ConnectTimeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DEMO_MODE", false)
	v.SetDefault("JWT_TTL", 7*24*time.Hour)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("STORE_DRIVER", StoreMongo)
	v.SetDefault("MONGO_DATABASE", "dynamicpro")
	v.SetDefault("MONGO_CONNECT_TIMEOUT", 5*time.Second)
	v.SetDefault("MONGO_OP_TIMEOUT", 5*time.Second)
	v.SetDefault("SQL_DRIVER", "sqlite")
	v.SetDefault("DB_CONNECT_TIMEOUT", 60*time.Second)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("RATE_LIMIT_AUTH", 10)
	v.SetDefault("RATE_LIMIT_WINDOW", time.Minute)
	v.SetDefault("USER_CACHE_TTL", 5*time.Minute)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
}

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{"JWT_SECRET", "MONGO_URI", "SQL_DSN", "REDIS_HOST", "REDIS_PASSWORD"} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Env:        v.GetString("APP_ENV"),
		HTTPPort:   v.GetString("HTTP_PORT"),
		DemoMode:   v.GetBool("DEMO_MODE"),
		JWTSecret:  v.GetString("JWT_SECRET"),
		JWTTTL:     v.GetDuration("JWT_TTL"),
		BcryptCost: v.GetInt("BCRYPT_COST"),

		StoreDriver: strings.ToLower(v.GetString("STORE_DRIVER")),
		Mongo: MongoConfig{
			URI:            v.GetString("MONGO_URI"),
			Database:       v.GetString("MONGO_DATABASE"),
			ConnectTimeout: v.GetDuration("MONGO_CONNECT_TIMEOUT"),
			OpTimeout:      v.GetDuration("MONGO_OP_TIMEOUT"),
		},
		SQL: SQLConfig{
			Driver:         strings.ToLower(v.GetString("SQL_DRIVER")),
			DSN:            v.GetString("SQL_DSN"),
			ConnectTimeout: v.GetDuration("DB_CONNECT_TIMEOUT"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
		},

		RateLimitAuth:   v.GetInt("RATE_LIMIT_AUTH"),
		RateLimitWindow: v.GetDuration("RATE_LIMIT_WINDOW"),
		UserCacheTTL:    v.GetDuration("USER_CACHE_TTL"),

		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}
	return cfg, cfg.Validate()
}

// Validate checks required keys and cross-field constraints.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return ErrMissingSecret
	}
	switch c.StoreDriver {
	case StoreMongo:
		if c.Mongo.URI == "" {
			return errors.New("MONGO_URI is required when STORE_DRIVER is mongo")
		}
	case StoreSQL:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if c.RateLimitAuth <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("RATE_LIMIT_AUTH and RATE_LIMIT_WINDOW must be positive")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	return nil
}

// IsDevelopment reports whether the process runs with development defaults.
func (c Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development"
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
