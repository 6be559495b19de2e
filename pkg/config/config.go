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
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Payout       PayoutConfig
	Stripe       StripeConfig
	PayPal       PayPalConfig
	Payoneer     PayoneerConfig
	Webhook      WebhookConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SELLSPAY_APP_ENV" required:"true"`
	Port         string `envconfig:"SELLSPAY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SELLSPAY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SELLSPAY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SELLSPAY_DB_DSN"`
	Driver string `envconfig:"SELLSPAY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SELLSPAY_DB_HOST"`
	LegacyPort     int    `envconfig:"SELLSPAY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SELLSPAY_DB_USER"`
	LegacyPassword string `envconfig:"SELLSPAY_DB_PASSWORD"`
	LegacyName     string `envconfig:"SELLSPAY_DB_NAME"`
	LegacySSLMode  string `envconfig:"SELLSPAY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SELLSPAY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SELLSPAY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SELLSPAY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SELLSPAY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SELLSPAY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SELLSPAY_REDIS_ADDR"`
	Password     string        `envconfig:"SELLSPAY_REDIS_PASSWORD"`
	DB           int           `envconfig:"SELLSPAY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SELLSPAY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SELLSPAY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SELLSPAY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SELLSPAY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SELLSPAY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SELLSPAY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SELLSPAY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SELLSPAY_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SELLSPAY_AUTO_MIGRATE" default:"false"`
}

// PayoutConfig carries the disbursement policy knobs. Defaults match the
// platform policy: $20.00 floor and a 3% expedite fee.
type PayoutConfig struct {
	MinimumPayoutCents int64         `envconfig:"SELLSPAY_PAYOUT_MINIMUM_CENTS" default:"2000"`
	ExpediteFeeBps     int64         `envconfig:"SELLSPAY_PAYOUT_EXPEDITE_FEE_BPS" default:"300"`
	ProviderTimeout    time.Duration `envconfig:"SELLSPAY_PAYOUT_PROVIDER_TIMEOUT" default:"15s"`
}

type StripeConfig struct {
	APIKey string `envconfig:"SELLSPAY_STRIPE_API_KEY"`
	Secret string `envconfig:"SELLSPAY_STRIPE_WEBHOOK_SECRET"`
	Env    string `envconfig:"SELLSPAY_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type PayPalConfig struct {
	BaseURL      string `envconfig:"SELLSPAY_PAYPAL_BASE_URL" default:"https://api-m.sandbox.paypal.com"`
	ClientID     string `envconfig:"SELLSPAY_PAYPAL_CLIENT_ID"`
	ClientSecret string `envconfig:"SELLSPAY_PAYPAL_CLIENT_SECRET"`
}

type PayoneerConfig struct {
	BaseURL   string `envconfig:"SELLSPAY_PAYONEER_BASE_URL" default:"https://api.sandbox.payoneer.com"`
	ProgramID string `envconfig:"SELLSPAY_PAYONEER_PROGRAM_ID"`
	APIToken  string `envconfig:"SELLSPAY_PAYONEER_API_TOKEN"`
}

type WebhookConfig struct {
	IdempotencyTTL  time.Duration `envconfig:"SELLSPAY_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
	RateLimit       int64         `envconfig:"SELLSPAY_WEBHOOK_RATE_LIMIT" default:"120"`
	RateLimitWindow time.Duration `envconfig:"SELLSPAY_WEBHOOK_RATE_LIMIT_WINDOW" default:"1m"`
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
