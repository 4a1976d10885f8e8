package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "storefront"

// Env var names referenced from tests and error messages.
const (
	EnvAppEnv     = "STOREFRONT_APP_ENV"
	EnvAppPort    = "STOREFRONT_APP_PORT"
	EnvCartAPIURL = "STOREFRONT_CART_API_URL"
	EnvKVBackend  = "STOREFRONT_KV_BACKEND"
)

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App      AppConfig
	Remote   RemoteConfig
	KV       KVConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Checkout CheckoutConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.KV.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// RemoteConfig locates the remote cart and order services.
type RemoteConfig struct {
	CartAPIURL  string        `envconfig:"STOREFRONT_CART_API_URL" required:"true"`
	OrderAPIURL string        `envconfig:"STOREFRONT_ORDER_API_URL"`
	Timeout     time.Duration `envconfig:"STOREFRONT_REMOTE_TIMEOUT" default:"10s"`
}

// OrderBaseURL returns the order service URL, defaulting to the cart URL
// when the two services are deployed as one.
func (r RemoteConfig) OrderBaseURL() string {
	if strings.TrimSpace(r.OrderAPIURL) != "" {
		return r.OrderAPIURL
	}
	return r.CartAPIURL
}

// KVConfig selects the durable local storage backend for guest session ids.
type KVConfig struct {
	Backend string `envconfig:"STOREFRONT_KV_BACKEND" default:"file"`
	Path    string `envconfig:"STOREFRONT_KV_PATH" default:".storefront/state.json"`
}

const (
	KVBackendFile   = "file"
	KVBackendRedis  = "redis"
	KVBackendMemory = "memory"
)

func (k KVConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(k.Backend)) {
	case KVBackendFile, KVBackendRedis, KVBackendMemory:
		return nil
	}
	return fmt.Errorf("%s must be one of file, redis, memory", EnvKVBackend)
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies tokens minted by the external authentication provider.
type JWTConfig struct {
	Secret string `envconfig:"STOREFRONT_JWT_SECRET"`
	Issuer string `envconfig:"STOREFRONT_JWT_ISSUER"`
}

type CheckoutConfig struct {
	Currency string `envconfig:"STOREFRONT_CURRENCY" default:"USD"`
}
