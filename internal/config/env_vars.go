package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar       = "PORT"
	appNameVar       = "APP_NAME"
	envVar           = "ENV"
	baseURLVar       = "BASE_URL"
	logLevelVar      = "LOG_LEVEL"
	apiBaseURLEnvVar = "API_BASE_URL"
)

type EnvVars struct {
	Port       string `yaml:"port"`
	AppName    string `yaml:"appName"`
	Env        string `yaml:"env"`
	BaseURL    string `yaml:"baseURL"`
	LogLevel   string `yaml:"logLevel"`
	APIBaseURL string `yaml:"apiBaseURL"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, orDefault(e.Port, "8080"))
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return GetEnv(appNameVar, orDefault(e.AppName, "Storefront"))
}

func (e EnvVars) GetEnv() string {
	return GetEnv(envVar, orDefault(e.Env, "DEV"))
}

// GetBaseURL returns the externally visible base URL of the storefront (e.g., "https://shop.example.com").
// It is used to derive the default OAuth redirect URI.
func (e EnvVars) GetBaseURL() string {
	return strings.TrimSuffix(GetEnv(baseURLVar, orDefault(e.BaseURL, "http://localhost:8080")), "/")
}

func (e EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, orDefault(e.LogLevel, "info"))
}

// GetAPIBaseURL returns the base URL of the product/order REST API.
func (e EnvVars) GetAPIBaseURL() string {
	return strings.TrimSuffix(GetEnv(apiBaseURLEnvVar, orDefault(e.APIBaseURL, "http://localhost:3001/api")), "/")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(envVar string, fileValue, defaultValue time.Duration) time.Duration {
	if fileValue > 0 {
		defaultValue = fileValue
	}
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getBool(envVar string, defaultValue bool) bool {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getInt(envVar string, defaultValue int) int {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}

// getList splits a comma separated env var, falling back to the file or default values.
func getList(envVar string, fileValue, defaultValue []string) []string {
	if len(fileValue) > 0 {
		defaultValue = fileValue
	}
	value := os.Getenv(envVar)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

func orDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
