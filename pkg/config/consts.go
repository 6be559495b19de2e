package config

// EnvPrefix is the envconfig prefix applied to all settings.
const EnvPrefix = "sellspay"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "SELLSPAY_DB_DSN"
	EnvDBHost = "SELLSPAY_DB_HOST"
	EnvDBUser = "SELLSPAY_DB_USER"
	EnvDBName = "SELLSPAY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
