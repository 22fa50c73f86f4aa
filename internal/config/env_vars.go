package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	appNameVar    = "PATHPAL_APP_NAME"
	baseURLVar    = "PATHPAL_BASE_URL"
	apiVersionVar = "PATHPAL_API_VERSION"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "PathPal")
}

func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "https://api.pathpal.app")
}

func (EnvVars) GetAPIVersion() string {
	return GetEnv(apiVersionVar, "")
}

// GetAllowInsecureHTTP permits a plain-http base URL. Off unless explicitly
// enabled; intended for local development only.
func (EnvVars) GetAllowInsecureHTTP() bool {
	return GetEnv("PATHPAL_ALLOW_INSECURE_HTTP", "") == "true"
}

func (EnvVars) GetRequestTimeout() time.Duration {
	raw := GetEnv("PATHPAL_REQUEST_TIMEOUT", "15s")
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

func (EnvVars) GetCredentialsFile() string {
	if v := os.Getenv("PATHPAL_CREDENTIALS_FILE"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pathpal/credentials"
	}
	return filepath.Join(home, ".pathpal", "credentials")
}

// GetCredentialsPassphrase returns the key material for the credential
// store. On mobile builds this comes from the platform keychain; the
// environment variable covers desktop and CI use.
func (EnvVars) GetCredentialsPassphrase() string {
	return GetEnv("PATHPAL_CREDENTIALS_KEY", "")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv("PATHPAL_LOG_LEVEL", "info")
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
