package config

// EnvPrefix is intentionally empty: every field names its variable explicitly.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv    = "CRAFTLOOM_APP_ENV"
	EnvPort      = "CRAFTLOOM_APP_PORT"
	EnvDBDSN     = "CRAFTLOOM_DB_DSN"
	EnvDBHost    = "CRAFTLOOM_DB_HOST"
	EnvDBUser    = "CRAFTLOOM_DB_USER"
	EnvDBName    = "CRAFTLOOM_DB_NAME"
	EnvRedisURL  = "CRAFTLOOM_REDIS_URL"
	EnvJWTSecret = "CRAFTLOOM_JWT_SECRET"
	EnvJWTIssuer = "CRAFTLOOM_JWT_ISSUER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
