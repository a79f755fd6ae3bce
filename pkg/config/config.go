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
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Checkout      CheckoutConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if _, err := cfg.Checkout.ShippingCostAmount(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ROORREACH_APP_ENV" required:"true"`
	Port         string `envconfig:"ROORREACH_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ROORREACH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ROORREACH_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated list of browser origins allowed to call the API.
	CORSOrigins []string `envconfig:"ROORREACH_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

type ServiceConfig struct {
	Kind string `envconfig:"ROORREACH_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ROORREACH_DB_DSN"`
	Driver string `envconfig:"ROORREACH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ROORREACH_DB_HOST"`
	LegacyPort     int    `envconfig:"ROORREACH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ROORREACH_DB_USER"`
	LegacyPassword string `envconfig:"ROORREACH_DB_PASSWORD"`
	LegacyName     string `envconfig:"ROORREACH_DB_NAME"`
	LegacySSLMode  string `envconfig:"ROORREACH_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"ROORREACH_SQLITE_PATH" default:"roorreach.db"`

	MaxOpenConns    int           `envconfig:"ROORREACH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ROORREACH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ROORREACH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ROORREACH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"ROORREACH_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ROORREACH_REDIS_ADDR"`
	Password     string        `envconfig:"ROORREACH_REDIS_PASSWORD"`
	DB           int           `envconfig:"ROORREACH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ROORREACH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ROORREACH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ROORREACH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ROORREACH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ROORREACH_REDIS_WRITE_TIMEOUT" default:"5s"`
	// KeyNamespace prefixes every key so environments can share one server.
	KeyNamespace string `envconfig:"ROORREACH_REDIS_KEY_NAMESPACE" default:"rr"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ROORREACH_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ROORREACH_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"ROORREACH_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"ROORREACH_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ROORREACH_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ROORREACH_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ROORREACH_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ROORREACH_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ROORREACH_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ROORREACH_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"ROORREACH_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"ROORREACH_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"ROORREACH_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"ROORREACH_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"ROORREACH_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ROORREACH_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ROORREACH_AUTO_MIGRATE" default:"false"`
}

type CheckoutConfig struct {
	ShippingCost string `envconfig:"ROORREACH_CHECKOUT_SHIPPING_COST" default:"60"`
}

// ShippingCostAmount parses the flat shipping fee added to every checkout.
func (c CheckoutConfig) ShippingCostAmount() (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.ShippingCost)
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", EnvShippingCost, raw, err)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", EnvShippingCost)
	}
	return amount, nil
}

type GCPConfig struct {
	ProjectID string `envconfig:"ROORREACH_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"ROORREACH_PUBSUB_DOMAIN_TOPIC" default:"rr-domain-events"`
	DomainSubscription string `envconfig:"ROORREACH_PUBSUB_DOMAIN_SUBSCRIPTION"`

	// ProcessedEventTTL bounds how long consumers remember delivered event ids.
	ProcessedEventTTL time.Duration `envconfig:"ROORREACH_PUBSUB_PROCESSED_EVENT_TTL" default:"168h"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ROORREACH_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ROORREACH_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ROORREACH_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"ROORREACH_CRON_INTERVAL" default:"1h"`
	OutboxRetentionDays int           `envconfig:"ROORREACH_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
	}
	if db.IsSQLite() {
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
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
