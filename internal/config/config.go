package config

import "time"

type Config interface {
	EnvConfig
	FlowConfig
	BridgeConfig
}

type EnvConfig interface {
	GetAPIBaseURL() string
	GetAppName() string
	GetHTTPTimeout() time.Duration
	GetEnv() string
}

// FlowConfig holds the tunables of the authentication and setup flows.
type FlowConfig interface {
	GetUsernameDebounce() time.Duration
	GetResendCooldown() time.Duration
}

// BridgeConfig configures the development deep-link bridge.
type BridgeConfig interface {
	GetURLScheme() string
	GetBridgePort() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
