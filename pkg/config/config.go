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
	Checkout     CheckoutConfig
	Razorpay     RazorpayConfig
	GiftAI       GiftAIConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CRAFTLOOM_APP_ENV" required:"true"`
	Port         string `envconfig:"CRAFTLOOM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CRAFTLOOM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CRAFTLOOM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CRAFTLOOM_DB_DSN"`
	Driver string `envconfig:"CRAFTLOOM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CRAFTLOOM_DB_HOST"`
	LegacyPort     int    `envconfig:"CRAFTLOOM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CRAFTLOOM_DB_USER"`
	LegacyPassword string `envconfig:"CRAFTLOOM_DB_PASSWORD"`
	LegacyName     string `envconfig:"CRAFTLOOM_DB_NAME"`
	LegacySSLMode  string `envconfig:"CRAFTLOOM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CRAFTLOOM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CRAFTLOOM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CRAFTLOOM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CRAFTLOOM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CRAFTLOOM_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CRAFTLOOM_REDIS_ADDR"`
	Password     string        `envconfig:"CRAFTLOOM_REDIS_PASSWORD"`
	DB           int           `envconfig:"CRAFTLOOM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CRAFTLOOM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CRAFTLOOM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CRAFTLOOM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CRAFTLOOM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CRAFTLOOM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CRAFTLOOM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CRAFTLOOM_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CRAFTLOOM_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CRAFTLOOM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CRAFTLOOM_AUTO_MIGRATE" default:"false"`
}

type CheckoutConfig struct {
	BaseCurrency string `envconfig:"CRAFTLOOM_BASE_CURRENCY" default:"INR"`
}

type RazorpayConfig struct {
	KeyID     string        `envconfig:"CRAFTLOOM_RAZORPAY_KEY_ID"`
	KeySecret string        `envconfig:"CRAFTLOOM_RAZORPAY_KEY_SECRET"`
	BaseURL   string        `envconfig:"CRAFTLOOM_RAZORPAY_BASE_URL" default:"https://api.razorpay.com"`
	Timeout   time.Duration `envconfig:"CRAFTLOOM_RAZORPAY_TIMEOUT" default:"30s"`
}

type GiftAIConfig struct {
	BaseURL string `envconfig:"CRAFTLOOM_GIFTAI_BASE_URL"`
	// Model inference behind the bundle endpoint is slow; the default allows
	// for cold starts without holding sockets forever.
	Timeout time.Duration `envconfig:"CRAFTLOOM_GIFTAI_TIMEOUT" default:"90s"`
	JobTTL  time.Duration `envconfig:"CRAFTLOOM_GIFTAI_JOB_TTL" default:"30m"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CRAFTLOOM_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"CRAFTLOOM_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CRAFTLOOM_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"CRAFTLOOM_PUBSUB_ORDERS_TOPIC" default:"cl-order-events"`
	OrdersSubscription string `envconfig:"CRAFTLOOM_PUBSUB_ORDERS_SUBSCRIPTION"`
	DomainTopic        string `envconfig:"CRAFTLOOM_PUBSUB_DOMAIN_TOPIC" default:"cl-domain-events"`
	DomainSubscription string `envconfig:"CRAFTLOOM_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CRAFTLOOM_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CRAFTLOOM_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CRAFTLOOM_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
