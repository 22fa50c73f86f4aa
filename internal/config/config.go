package config

import "time"

// Config is the SDK's startup configuration, read once when the client is
// assembled.
type Config interface {
	EnvConfig
}

type EnvConfig interface {
	GetAppName() string
	GetBaseURL() string
	GetAPIVersion() string
	GetAllowInsecureHTTP() bool
	GetRequestTimeout() time.Duration
	GetCredentialsFile() string
	GetCredentialsPassphrase() string
	GetLogLevel() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
