package config

// EnvPrefix is empty because every field carries its fully-qualified name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv          = "DISPENSARY_APP_ENV"
	EnvPort            = "DISPENSARY_APP_PORT"
	EnvDBDSN           = "DISPENSARY_DB_DSN"
	EnvDBHost          = "DISPENSARY_DB_HOST"
	EnvDBUser          = "DISPENSARY_DB_USER"
	EnvDBName          = "DISPENSARY_DB_NAME"
	EnvDBPassword      = "DISPENSARY_DB_PASSWORD"
	EnvRedisURL        = "DISPENSARY_REDIS_URL"
	EnvJWTSecret       = "DISPENSARY_JWT_SECRET"
	EnvJWTIssuer       = "DISPENSARY_JWT_ISSUER"
	EnvJWTExpMins      = "DISPENSARY_JWT_EXPIRATION_MINUTES"
	EnvDefaultTaxRate  = "DISPENSARY_DEFAULT_TAX_RATE"
	EnvDefaultVATRate  = "DISPENSARY_DEFAULT_VAT_RATE"
	EnvPendingOrderTTL = "DISPENSARY_PENDING_ORDER_TTL"
	EnvCORSOrigins     = "DISPENSARY_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
