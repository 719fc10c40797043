package backend

import (
	"fmt"

	"finboard/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	sessionType := SessionType(appConfig.SessionBackend)
	if !sessionType.IsValid() {
		return Config{}, fmt.Errorf("invalid session backend in config: %s", appConfig.SessionBackend)
	}

	return Config{
		Type:        backendType,
		SessionType: sessionType,

		// REST configuration
		APIURL:         appConfig.APIURL,
		APITimeout:     appConfig.APITimeout,
		UploadTimeout:  appConfig.UploadTimeout,
		RateLimitRPS:   appConfig.RateLimitRPS,
		RateLimitBurst: appConfig.RateLimitBurst,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if !c.SessionType.IsValid() {
		return fmt.Errorf("invalid session backend: %s", c.SessionType)
	}

	switch c.Type {
	case RESTBackend:
		if c.APIURL == "" {
			return fmt.Errorf("API URL is required for rest backend")
		}
	case MemoryBackend:
		// Seeded in process, nothing to check
	}

	if c.SessionType == SQLiteSession && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite session backend")
	}
	// AMQP is optional, so we don't validate it

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{RESTBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
