// Package config handles loading and validating runtime configuration for the Prime Esports API.
// Values come from, in increasing priority: built-in defaults, an optional config.yaml,
// a .env file (development only), and real environment variables. Secrets such as the
// service key should only ever arrive through the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	// godotenv copies a local .env file into the process environment before viper reads it.
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendREST     = "rest"     // Query the hosted backend over its REST interface
	BackendPostgres = "postgres" // Talk to the hosted backend's database directly through gorm
)

// Config holds all runtime configuration values for the application.
type Config struct {
	Port        string   `mapstructure:"port"`         // TCP port the HTTP server listens on
	Env         string   `mapstructure:"env"`          // "development", "staging" or "production"
	LogLevel    string   `mapstructure:"log_level"`    // logrus level name
	CORSOrigins string   `mapstructure:"cors_origins"` // Comma separated list, "*" in development
	BaaS        BaaS     `mapstructure:"baas"`
	Store       Store    `mapstructure:"store"`
	Redis       Redis    `mapstructure:"redis"`
	Kafka       Kafka    `mapstructure:"kafka"`
	Identity    Identity `mapstructure:"identity"`
}

// BaaS points at the hosted backend project.
type BaaS struct {
	URL        string        `mapstructure:"url"`         // Project URL, e.g. https://xyz.example.co
	AnonKey    string        `mapstructure:"anon_key"`    // Public API key, sent on every request
	ServiceKey string        `mapstructure:"service_key"` // Optional; used for server-side reads with no user token
	JWTSecret  string        `mapstructure:"jwt_secret"`  // Optional; enables local access token verification
	Timeout    time.Duration `mapstructure:"timeout"`
	Retries    int           `mapstructure:"retries"`
}

type Store struct {
	Backend        string `mapstructure:"backend"`
	DatabaseURL    string `mapstructure:"database_url"`
	MigrateOnStart bool   `mapstructure:"migrate_on_start"`
}

// Redis is optional; an empty Addr disables the identity cache.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Kafka is optional; no brokers means domain events are only logged.
type Kafka struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Identity struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// envBindings maps config keys onto the environment variable names used in deployment.
var envBindings = map[string]string{
	"port":                   "PORT",
	"env":                    "ENV",
	"log_level":              "LOG_LEVEL",
	"cors_origins":           "CORS_ORIGINS",
	"baas.url":               "BAAS_URL",
	"baas.anon_key":          "BAAS_ANON_KEY",
	"baas.service_key":       "BAAS_SERVICE_KEY",
	"baas.jwt_secret":        "BAAS_JWT_SECRET",
	"baas.timeout":           "HTTP_TIMEOUT",
	"baas.retries":           "HTTP_RETRIES",
	"store.backend":          "STORE_BACKEND",
	"store.database_url":     "DATABASE_URL",
	"store.migrate_on_start": "MIGRATE_ON_START",
	"redis.addr":             "REDIS_ADDR",
	"redis.password":         "REDIS_PASSWORD",
	"redis.db":               "REDIS_DB",
	"kafka.brokers":          "KAFKA_BROKERS",
	"kafka.topic":            "KAFKA_TOPIC",
	"identity.cache_ttl":     "IDENTITY_CACHE_TTL",
}

// Load reads configuration and validates it. The .env file is optional: in production
// the deployment platform sets real environment variables instead.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("baas.timeout", 15*time.Second)
	v.SetDefault("baas.retries", 0)
	v.SetDefault("store.backend", BackendREST)
	v.SetDefault("store.migrate_on_start", false)
	v.SetDefault("redis.db", 0)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "prime.events")
	v.SetDefault("identity.cache_ttl", 60*time.Second)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)
	cfg.BaaS.URL = strings.TrimRight(cfg.BaaS.URL, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var missing []string
	if c.BaaS.URL == "" {
		missing = append(missing, "BAAS_URL")
	}
	if c.BaaS.AnonKey == "" {
		missing = append(missing, "BAAS_ANON_KEY")
	}
	switch c.Store.Backend {
	case BackendREST:
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.Store.Backend)
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// splitList flattens "a,b" entries that arrive as one element from the environment.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
