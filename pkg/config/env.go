package config

const (
	EnvPrefix = "ORDERDESK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv          = "ORDERDESK_APP_ENV"
	EnvPort            = "ORDERDESK_APP_PORT"
	EnvDBDSN           = "ORDERDESK_DB_DSN"
	EnvDBHost          = "ORDERDESK_DB_HOST"
	EnvDBUser          = "ORDERDESK_DB_USER"
	EnvDBName          = "ORDERDESK_DB_NAME"
	EnvRedisURL        = "ORDERDESK_REDIS_URL"
	EnvUpstreamBaseURL = "ORDERDESK_UPSTREAM_BASE_URL"
	EnvUseSQLite       = "ORDERDESK_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
