package config

import (
	"fmt"
	"os"
	"time"
)

const (
	portEnvVar   = "PORT"
	appNameVar   = "APP_NAME"
	folderEnvVar = "FOLDER"
	issuerEnvVar = "BACKEND_ISSUER"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" || port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Auth Client")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

// GetBackendIssuer returns the OIDC issuer URL for the OAuth2 backend.
// Empty means the reference stub backend is used instead.
func (EnvVars) GetBackendIssuer() string {
	return GetEnv(issuerEnvVar, "")
}

func (EnvVars) GetBackendClientID() string {
	return GetEnv("BACKEND_CLIENT_ID", "")
}

func (EnvVars) GetBackendClientSecret() string {
	return GetEnv("BACKEND_CLIENT_SECRET", "")
}

// GetDatabaseURL returns the Postgres connection string for server-side
// session state. Empty means the file-backed store is used instead.
func (EnvVars) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetDurationEnv reads a duration from the environment, falling back to the
// default when the variable is unset or unparseable.
func GetDurationEnv(envVar string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
