package config

import (
	"fmt"
	"os"
	"time"
)

const (
	apiBaseURLVar  = "FOODCLIPZ_API_URL"
	appNameVar     = "APP_NAME"
	urlSchemeVar   = "FOODCLIPZ_SCHEME"
	bridgePortVar  = "FOODCLIPZ_BRIDGE_PORT"
	httpTimeoutVar = "FOODCLIPZ_HTTP_TIMEOUT"
	debounceVar    = "FOODCLIPZ_USERNAME_DEBOUNCE"
	cooldownVar    = "FOODCLIPZ_RESEND_COOLDOWN"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}
var _ FlowConfig = EnvVars{}
var _ BridgeConfig = EnvVars{}

func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "https://foodclipz.ddns.net/api")
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "FoodClipz")
}

func (EnvVars) GetHTTPTimeout() time.Duration {
	return getDuration(httpTimeoutVar, 30*time.Second)
}

func (EnvVars) GetUsernameDebounce() time.Duration {
	return getDuration(debounceVar, 300*time.Millisecond)
}

func (EnvVars) GetResendCooldown() time.Duration {
	return getDuration(cooldownVar, 60*time.Second)
}

func (EnvVars) GetURLScheme() string {
	return GetEnv(urlSchemeVar, "foodclipz")
}

func (EnvVars) GetBridgePort() string {
	port := GetEnv(bridgePortVar, "8484")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
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

func getDuration(envVar string, defaultValue time.Duration) time.Duration {
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
