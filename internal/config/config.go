package config

import "time"

type Config interface {
	EnvConfig
	APIConfig
	LogConfig
}

type EnvConfig interface {
	GetAppName() string
	GetDataDir() string
	GetEnv() string
}

type APIConfig interface {
	// GetBaseURL returns the API base URL. Always ends with a slash.
	GetBaseURL() string
	GetRequestTimeout() time.Duration
}

type LogConfig interface {
	GetLogLevel() string
}
