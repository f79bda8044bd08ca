package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Upstream     UpstreamConfig
	Cache        CacheConfig
	FBR          FBRConfig
	Pricing      PricingConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Upstream.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"ORDERDESK_APP_ENV" required:"true"`
	Port         string   `envconfig:"ORDERDESK_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"ORDERDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"ORDERDESK_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"ORDERDESK_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ORDERDESK_DB_DSN"`
	Driver string `envconfig:"ORDERDESK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ORDERDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"ORDERDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ORDERDESK_DB_USER"`
	LegacyPassword string `envconfig:"ORDERDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"ORDERDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"ORDERDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ORDERDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ORDERDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ORDERDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDERDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"ORDERDESK_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ORDERDESK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ORDERDESK_REDIS_ADDR"`
	Password     string        `envconfig:"ORDERDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDERDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDERDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDERDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDERDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDERDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORDERDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// UpstreamConfig points at the ERP REST API that owns orders, catalog and settings.
type UpstreamConfig struct {
	BaseURL      string        `envconfig:"ORDERDESK_UPSTREAM_BASE_URL" required:"true"`
	APIToken     string        `envconfig:"ORDERDESK_UPSTREAM_API_TOKEN"`
	Timeout      time.Duration `envconfig:"ORDERDESK_UPSTREAM_TIMEOUT" default:"15s"`
	RetryMax     int           `envconfig:"ORDERDESK_UPSTREAM_RETRY_MAX" default:"3"`
	RetryWaitMin time.Duration `envconfig:"ORDERDESK_UPSTREAM_RETRY_WAIT_MIN" default:"200ms"`
	RetryWaitMax time.Duration `envconfig:"ORDERDESK_UPSTREAM_RETRY_WAIT_MAX" default:"2s"`
}

func (u UpstreamConfig) validate() error {
	parsed, err := url.Parse(u.BaseURL)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvUpstreamBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url", EnvUpstreamBaseURL)
	}
	return nil
}

type CacheConfig struct {
	SettingsTTL     time.Duration `envconfig:"ORDERDESK_CACHE_SETTINGS_TTL" default:"5m"`
	CatalogTTL      time.Duration `envconfig:"ORDERDESK_CACHE_CATALOG_TTL" default:"1m"`
	LocalTTL        time.Duration `envconfig:"ORDERDESK_CACHE_LOCAL_TTL" default:"30s"`
	SequenceTTL     time.Duration `envconfig:"ORDERDESK_CACHE_SEQUENCE_TTL" default:"30m"`
	CleanupInterval time.Duration `envconfig:"ORDERDESK_CACHE_CLEANUP_INTERVAL" default:"10m"`
}

// FBRConfig holds defaults applied when an order omits invoice-level FBR fields.
type FBRConfig struct {
	DefaultSaleType      string `envconfig:"ORDERDESK_FBR_DEFAULT_SALE_TYPE" default:"Goods at standard rate (default)"`
	DefaultInvoiceType   string `envconfig:"ORDERDESK_FBR_DEFAULT_INVOICE_TYPE" default:"Sale Invoice"`
	DefaultUOM           string `envconfig:"ORDERDESK_FBR_DEFAULT_UOM" default:"Numbers, pieces, units"`
	StorePreviewSnapshot bool   `envconfig:"ORDERDESK_FBR_STORE_PREVIEWS" default:"true"`
}

type PricingConfig struct {
	RefreshConcurrency int `envconfig:"ORDERDESK_PRICING_REFRESH_CONCURRENCY" default:"4"`
}

// RateLimitConfig throttles calls that reach the FBR gateway.
type RateLimitConfig struct {
	FBRPreviewWindow     time.Duration `envconfig:"ORDERDESK_RATE_LIMIT_FBR_PREVIEW_WINDOW" default:"1m"`
	FBRPreviewIPLimit    int           `envconfig:"ORDERDESK_RATE_LIMIT_FBR_PREVIEW_IP" default:"30"`
	FBRPreviewOrderLimit int           `envconfig:"ORDERDESK_RATE_LIMIT_FBR_PREVIEW_ORDER" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ORDERDESK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ORDERDESK_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
	}
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.DSN = "file:orderdesk.db?cache=shared"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
