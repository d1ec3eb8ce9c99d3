package config

import (
	"fmt"
	"strings"
)

const (
	portKey     = "app.port"
	appNameKey  = "app.name"
	envKey      = "app.env"
	logLevelKey = "log.level"
)

type EnvVars struct {
	src source
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.src.str(portKey, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.src.str(appNameKey, "Timely")
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.src.str(envKey, "DEV"))
}

func (e EnvVars) GetLogLevel() string {
	return e.src.str(logLevelKey, "info")
}
