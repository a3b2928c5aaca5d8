package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "showsettle"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SHOWSETTLE_DB_DSN"
	EnvDBHost = "SHOWSETTLE_DB_HOST"
	EnvDBUser = "SHOWSETTLE_DB_USER"
	EnvDBName = "SHOWSETTLE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Stripe        StripeConfig
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
	Env          string `envconfig:"SHOWSETTLE_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOWSETTLE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOWSETTLE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOWSETTLE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"SHOWSETTLE_DB_DSN"`

	LegacyHost     string `envconfig:"SHOWSETTLE_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOWSETTLE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOWSETTLE_DB_USER"`
	LegacyPassword string `envconfig:"SHOWSETTLE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOWSETTLE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOWSETTLE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOWSETTLE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOWSETTLE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOWSETTLE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOWSETTLE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOWSETTLE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHOWSETTLE_REDIS_ADDR"`
	Password     string        `envconfig:"SHOWSETTLE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOWSETTLE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOWSETTLE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOWSETTLE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOWSETTLE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOWSETTLE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOWSETTLE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SHOWSETTLE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SHOWSETTLE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SHOWSETTLE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SHOWSETTLE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SHOWSETTLE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SHOWSETTLE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SHOWSETTLE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SHOWSETTLE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SHOWSETTLE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SHOWSETTLE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SHOWSETTLE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SHOWSETTLE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SHOWSETTLE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SHOWSETTLE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SHOWSETTLE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOWSETTLE_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey              string        `envconfig:"SHOWSETTLE_STRIPE_API_KEY"`
	Secret              string        `envconfig:"SHOWSETTLE_STRIPE_SECRET"`
	Env                 string        `envconfig:"SHOWSETTLE_STRIPE_ENV" default:"test"`
	SubscriptionPriceID string        `envconfig:"SHOWSETTLE_STRIPE_SUBSCRIPTION_PRICE_ID"`
	CheckoutSuccessURL  string        `envconfig:"SHOWSETTLE_STRIPE_CHECKOUT_SUCCESS_URL"`
	CheckoutCancelURL   string        `envconfig:"SHOWSETTLE_STRIPE_CHECKOUT_CANCEL_URL"`
	PortalReturnURL     string        `envconfig:"SHOWSETTLE_STRIPE_PORTAL_RETURN_URL"`
	WebhookEventTTL     time.Duration `envconfig:"SHOWSETTLE_STRIPE_WEBHOOK_EVENT_TTL" default:"720h"`
}

func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
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
