package config

type Config interface {
	EnvConfig
	SecurityConfig
	TokenConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetBackendIssuer() string
	GetBackendClientID() string
	GetBackendClientSecret() string
	GetDatabaseURL() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Security
	Tokens
}

func New() Config {
	return mainConfig{}
}
