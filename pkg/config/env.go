package config

const (
	EnvPrefix = "ROORREACH"

	AppEnvDev = "dev"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv                 = "ROORREACH_APP_ENV"
	EnvPort                   = "ROORREACH_APP_PORT"
	EnvLogLevel               = "ROORREACH_LOG_LEVEL"
	EnvDBDSN                  = "ROORREACH_DB_DSN"
	EnvDBDriver               = "ROORREACH_DB_DRIVER"
	EnvDBHost                 = "ROORREACH_DB_HOST"
	EnvDBUser                 = "ROORREACH_DB_USER"
	EnvDBName                 = "ROORREACH_DB_NAME"
	EnvUseSQLite              = "ROORREACH_USE_SQLITE"
	EnvRedisURL               = "ROORREACH_REDIS_URL"
	EnvJWTSecret              = "ROORREACH_JWT_SECRET"
	EnvJWTIssuer              = "ROORREACH_JWT_ISSUER"
	EnvJWTExpMins             = "ROORREACH_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "ROORREACH_REFRESH_TOKEN_TTL_MINUTES"
	EnvShippingCost           = "ROORREACH_CHECKOUT_SHIPPING_COST"
	EnvGCPProjectID           = "ROORREACH_GCP_PROJECT_ID"
	EnvPubSubDomainTopic      = "ROORREACH_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub        = "ROORREACH_PUBSUB_DOMAIN_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
