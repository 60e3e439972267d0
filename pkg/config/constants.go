package config

// EnvPrefix namespaces all environment variables consumed by the service.
const EnvPrefix = "inkmint"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "INKMINT_DB_DSN"
	EnvDBHost = "INKMINT_DB_HOST"
	EnvDBUser = "INKMINT_DB_USER"
	EnvDBName = "INKMINT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
