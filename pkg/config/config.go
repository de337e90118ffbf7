package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Procurement  ProcurementConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Procurement.Markup(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GARAGE_APP_ENV" required:"true"`
	Port         string `envconfig:"GARAGE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GARAGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GARAGE_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated allow list for browser clients.
	CORSOrigins []string `envconfig:"GARAGE_CORS_ALLOWED_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"GARAGE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GARAGE_DB_DSN"`
	Driver string `envconfig:"GARAGE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GARAGE_DB_HOST"`
	LegacyPort     int    `envconfig:"GARAGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GARAGE_DB_USER"`
	LegacyPassword string `envconfig:"GARAGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"GARAGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"GARAGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GARAGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GARAGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GARAGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GARAGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GARAGE_REDIS_URL"`
	Address      string        `envconfig:"GARAGE_REDIS_ADDR"`
	Password     string        `envconfig:"GARAGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"GARAGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GARAGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GARAGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GARAGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GARAGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GARAGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"GARAGE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GARAGE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GARAGE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GARAGE_AUTO_MIGRATE" default:"false"`
}

type ProcurementConfig struct {
	// InitialCostMarkup is applied to the unit price when a part enters inventory for the first time.
	InitialCostMarkup string `envconfig:"GARAGE_PROCUREMENT_INITIAL_COST_MARKUP" default:"0.10"`
}

// Markup parses the configured markup fraction.
func (p ProcurementConfig) Markup() (decimal.Decimal, error) {
	raw := strings.TrimSpace(p.InitialCostMarkup)
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", EnvInitialCostMarkup, raw, err)
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", EnvInitialCostMarkup)
	}
	return value, nil
}

type GCPConfig struct {
	ProjectID string `envconfig:"GARAGE_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	ProcurementTopic string `envconfig:"GARAGE_PUBSUB_PROCUREMENT_TOPIC" default:"garage-procurement-events"`
	InventoryTopic   string `envconfig:"GARAGE_PUBSUB_INVENTORY_TOPIC" default:"garage-inventory-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"GARAGE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"GARAGE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"GARAGE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
