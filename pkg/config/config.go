package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "oja"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "OJA_APP_ENV"
	EnvDBDSN  = "OJA_DB_DSN"
	EnvDBHost = "OJA_DB_HOST"
	EnvDBUser = "OJA_DB_USER"
	EnvDBName = "OJA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Negotiation  NegotiationConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
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
	Env          string `envconfig:"OJA_APP_ENV" required:"true"`
	Port         string `envconfig:"OJA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OJA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OJA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"OJA_DB_DSN"`
	Driver string `envconfig:"OJA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"OJA_DB_HOST"`
	LegacyPort     int    `envconfig:"OJA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"OJA_DB_USER"`
	LegacyPassword string `envconfig:"OJA_DB_PASSWORD"`
	LegacyName     string `envconfig:"OJA_DB_NAME"`
	LegacySSLMode  string `envconfig:"OJA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OJA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OJA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OJA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OJA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OJA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"OJA_REDIS_ADDR"`
	Password     string        `envconfig:"OJA_REDIS_PASSWORD"`
	DB           int           `envconfig:"OJA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OJA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OJA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OJA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OJA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OJA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"OJA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"OJA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"OJA_JWT_EXPIRATION_MINUTES" default:"60"`
}

// NegotiationConfig carries the product-tuning constants of the offer flow.
// The percentages and thresholds are deliberately configuration, not code.
type NegotiationConfig struct {
	OfferTTL               time.Duration `envconfig:"OJA_OFFER_TTL" default:"72h"`
	ReservationTTL         time.Duration `envconfig:"OJA_RESERVATION_TTL" default:"48h"`
	MaxCounterOffers       int           `envconfig:"OJA_MAX_COUNTER_OFFERS" default:"5"`
	MaxAttemptsPerListing  int           `envconfig:"OJA_MAX_OFFER_ATTEMPTS_PER_LISTING" default:"3"`
	ExpiryWarningWindow    time.Duration `envconfig:"OJA_OFFER_EXPIRY_WARNING_WINDOW" default:"24h"`
	ExpiryWarningCooldown  time.Duration `envconfig:"OJA_OFFER_EXPIRY_WARNING_COOLDOWN" default:"6h"`
	SellerConservativePct  int           `envconfig:"OJA_SUGGEST_SELLER_CONSERVATIVE_PCT" default:"10"`
	SellerAggressivePct    int           `envconfig:"OJA_SUGGEST_SELLER_AGGRESSIVE_PCT" default:"25"`
	BuyerConservativePct   int           `envconfig:"OJA_SUGGEST_BUYER_CONSERVATIVE_PCT" default:"10"`
	BuyerModeratePct       int           `envconfig:"OJA_SUGGEST_BUYER_MODERATE_PCT" default:"5"`
	BuyerAggressivePct     int           `envconfig:"OJA_SUGGEST_BUYER_AGGRESSIVE_PCT" default:"15"`
	MinAmountPctOfListing  int           `envconfig:"OJA_OFFER_MIN_PCT_OF_LISTING" default:"10"`
	MaxAmountMultiplierPct int           `envconfig:"OJA_OFFER_MAX_PCT_OF_LISTING" default:"200"`
	ExcellentPct           int           `envconfig:"OJA_ATTRACTIVENESS_EXCELLENT_PCT" default:"95"`
	GoodPct                int           `envconfig:"OJA_ATTRACTIVENESS_GOOD_PCT" default:"85"`
	FairPct                int           `envconfig:"OJA_ATTRACTIVENESS_FAIR_PCT" default:"70"`
}

// RateLimitConfig throttles offer writes per user. A zero window or limit
// disables the policy.
type RateLimitConfig struct {
	OfferWriteWindow time.Duration `envconfig:"OJA_RATE_LIMIT_OFFER_WRITE_WINDOW" default:"1m"`
	OfferWriteLimit  int           `envconfig:"OJA_RATE_LIMIT_OFFER_WRITE_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"OJA_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"OJA_GCP_PROJECT_ID" required:"true"`
	ApplicationCredentials string `envconfig:"OJA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OfferTopic               string `envconfig:"OJA_PUBSUB_OFFER_TOPIC" default:"oja-offer-events"`
	OfferSubscription        string `envconfig:"OJA_PUBSUB_OFFER_SUBSCRIPTION"`
	NotificationTopic        string `envconfig:"OJA_PUBSUB_NOTIFICATION_TOPIC" default:"oja-notification-events"`
	NotificationSubscription string `envconfig:"OJA_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"OJA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"OJA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"OJA_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"OJA_CRON_INTERVAL" default:"15m"`
	LockTTL  time.Duration `envconfig:"OJA_CRON_LOCK_TTL" default:"20m"`
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
