package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete server configuration, loadable from environment
// variables (STOREFRONT_ prefix), flags, a .env file or YAML config files.
type Config struct {
	Addr     string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Storage  StorageConfig
	Accounts AccountsConfig
	Checkout CheckoutConfig
	Cookie   CookieConfig
	CORS     CORSConfig
	Graceful GracefulConfig
}

// StorageConfig selects and configures the key-value backend.
type StorageConfig struct {
	Backend           string `default:"memory" usage:"Storage backend: memory, redis or postgres"`
	CompressThreshold int    `default:"0" usage:"Gzip stored values larger than this many bytes, 0 disables" flag:"compress-threshold"`
	DatabaseURL       string `usage:"PostgreSQL connection URL (or DATABASE_URL)" flag:"database-url"`
	Redis             RedisConfig
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	URL       string        `default:"redis://localhost:6379/0" usage:"Redis connection URL (or REDIS_URL)"`
	DB        int           `default:"0" usage:"Redis database, overrides the URL when non-zero"`
	KeyPrefix string        `default:"storefront:" usage:"Prefix for every redis key"`
	TTL       time.Duration `default:"0s" usage:"Expire client data after this long, 0 keeps it"`
}

// AccountsConfig controls how passwords are stored.
type AccountsConfig struct {
	HashPasswords bool `default:"false" usage:"Store new passwords as bcrypt hashes" flag:"hash-passwords"`
	BcryptCost    int  `default:"10" usage:"bcrypt cost for hashed passwords"`
}

// CheckoutConfig controls order records.
type CheckoutConfig struct {
	DateLayout string `default:"1/2/2006" usage:"Go time layout for order dates"`
}

// CookieConfig controls the client identity cookie.
type CookieConfig struct {
	Name   string        `default:"storefront_client" usage:"Client identity cookie name"`
	Secure bool          `default:"false" usage:"Mark the client cookie Secure"`
	MaxAge time.Duration `default:"8760h" usage:"Client cookie lifetime"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow the client cookie on cross-origin requests from listed origins" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig reads .env, then environment variables, flags and YAML files.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Storage.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected backend is fully configured.
func (c StorageConfig) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendRedis:
		return nil
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required for the postgres backend: set STOREFRONT_STORAGE_DATABASE_URL or DATABASE_URL")
		}
		return nil
	default:
		return errors.Errorf("unknown storage backend %q", c.Backend)
	}
}

// applyPlatformDefaults maps the conventional DATABASE_URL, REDIS_URL and
// PORT variables set by hosting platforms.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		c.Storage.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if v := os.Getenv("REDIS_URL"); v != "" && os.Getenv("STOREFRONT_STORAGE_REDIS_URL") == "" {
		c.Storage.Redis.URL = v
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
