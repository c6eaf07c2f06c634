package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	GatewayModeHTTP = "http"
	GatewayModeMock = "mock"

	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreFile     = "file"
)

type Config struct {
	Log       Log       `yaml:"log"`
	HTTP      HTTP      `yaml:"http"`
	Gateway   Gateway   `yaml:"gateway"`
	ViewModel ViewModel `yaml:"view_model"`
	Session   Session   `yaml:"session"`
	Events    Events    `yaml:"events"`
	Redis     Redis     `yaml:"redis"`
	Postgres  Postgres  `yaml:"postgres"`
	Tracing   Tracing   `yaml:"tracing"`
	Mock      Mock      `yaml:"mock"`
}

type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type HTTP struct {
	Addr string `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
}

type Gateway struct {
	Mode         string        `yaml:"mode" env:"GATEWAY_MODE" env-default:"http"`
	TicketingURL string        `yaml:"ticketing_url" env:"TICKETING_API_URL" env-default:"http://localhost:9095/api"`
	TransportURL string        `yaml:"transport_url" env:"TRANSPORT_API_URL" env-default:"http://localhost:9092/api"`
	PassengerURL string        `yaml:"passenger_url" env:"PASSENGER_API_URL" env-default:"http://localhost:9091/api"`
	Timeout      time.Duration `yaml:"timeout" env:"GATEWAY_TIMEOUT" env-default:"10s"`
	CancelMethod string        `yaml:"cancel_method" env:"GATEWAY_CANCEL_METHOD" env-default:"PUT"`
}

type ViewModel struct {
	RefreshInterval        time.Duration `yaml:"refresh_interval" env:"REFRESH_INTERVAL" env-default:"30s"`
	LegacyCategoryFallback bool          `yaml:"legacy_category_fallback" env:"FILTER_LEGACY_FALLBACK" env-default:"false"`
}

type Session struct {
	Store string        `yaml:"store" env:"SESSION_STORE" env-default:"memory"`
	TTL   time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"24h"`
	File  string        `yaml:"file" env:"SESSION_FILE" env-default:".ticketsync-session.yaml"`
}

type Events struct {
	Backend       string `yaml:"backend" env:"EVENTS_BACKEND" env-default:"memory"`
	ActivityStore string `yaml:"activity_store" env:"ACTIVITY_STORE" env-default:"memory"`
}

type Redis struct {
	Addr string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
}

type Postgres struct {
	URL string `yaml:"url" env:"POSTGRES_URL"`
}

type Tracing struct {
	JaegerEndpoint string `yaml:"jaeger_endpoint" env:"JAEGER_ENDPOINT"`
}

type Mock struct {
	Addr      string        `yaml:"addr" env:"MOCK_ADDR" env-default:":9095"`
	Latency   time.Duration `yaml:"latency" env:"MOCK_LATENCY" env-default:"300ms"`
	JWTSecret string        `yaml:"jwt_secret" env:"MOCK_JWT_SECRET" env-default:"ticketsync-demo-secret"`
}

// Load reads .env (if present), then the yaml file (if present), then the
// environment, later sources overriding earlier ones.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not load .env: %w", err)
	}

	cfg := &Config{}

	if path != "" {
		err := cleanenv.ReadConfig(path, cfg)
		if err == nil {
			return cfg, cfg.validate()
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config error: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.Gateway.Mode {
	case GatewayModeHTTP, GatewayModeMock:
	default:
		return fmt.Errorf("unknown gateway mode %q", c.Gateway.Mode)
	}

	c.Gateway.CancelMethod = strings.ToUpper(c.Gateway.CancelMethod)
	switch c.Gateway.CancelMethod {
	case http.MethodPut, http.MethodDelete:
	default:
		return fmt.Errorf("unsupported cancel method %q", c.Gateway.CancelMethod)
	}

	switch c.Session.Store {
	case StoreMemory, StoreRedis, StoreFile:
	default:
		return fmt.Errorf("unknown session store %q", c.Session.Store)
	}

	switch c.Events.Backend {
	case StoreMemory, StoreRedis, StorePostgres:
	default:
		return fmt.Errorf("unknown events backend %q", c.Events.Backend)
	}

	switch c.Events.ActivityStore {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("unknown activity store %q", c.Events.ActivityStore)
	}

	needsPostgres := c.Events.Backend == StorePostgres || c.Events.ActivityStore == StorePostgres
	if needsPostgres && c.Postgres.URL == "" {
		return errors.New("POSTGRES_URL is required by the postgres events backend or activity store")
	}

	return nil
}
