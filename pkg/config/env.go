package config

// EnvPrefix is handed to envconfig; every field declares its full variable name.
const EnvPrefix = "GARAGE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv            = "GARAGE_APP_ENV"
	EnvPort              = "GARAGE_APP_PORT"
	EnvDBDSN             = "GARAGE_DB_DSN"
	EnvDBHost            = "GARAGE_DB_HOST"
	EnvDBUser            = "GARAGE_DB_USER"
	EnvDBName            = "GARAGE_DB_NAME"
	EnvRedisURL          = "GARAGE_REDIS_URL"
	EnvJWTSecret         = "GARAGE_JWT_SECRET"
	EnvJWTIssuer         = "GARAGE_JWT_ISSUER"
	EnvInitialCostMarkup = "GARAGE_PROCUREMENT_INITIAL_COST_MARKUP"
	EnvPubSubTopic       = "GARAGE_PUBSUB_PROCUREMENT_TOPIC"
	EnvGCPProjectID      = "GARAGE_GCP_PROJECT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
