package backend

import (
	"errors"
	"fmt"

	"spendly/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	cfg := Config{
		Gateway:      GatewayType(appConfig.APIBackend),
		Store:        StoreType(appConfig.StoreBackend),
		APIBaseURL:   appConfig.APIBaseURL,
		APITimeout:   appConfig.APITimeout,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		StateFile:    appConfig.StateFile,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Gateway.IsValid() {
		return fmt.Errorf("invalid gateway type: %s", c.Gateway)
	}
	if !c.Store.IsValid() {
		return fmt.Errorf("invalid store type: %s", c.Store)
	}
	if c.Gateway == RESTGateway && c.APIBaseURL == "" {
		return errors.New("API base URL is required for rest gateway")
	}

	switch c.Store {
	case SQLiteStore:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite store")
		}
	case FileStore:
		if c.StateFile == "" {
			return errors.New("state file path is required for file store")
		}
	case MemoryStore:
		// nothing to check
	}

	return nil
}

// GetGatewayTypes returns all valid gateway types
func GetGatewayTypes() []GatewayType {
	return []GatewayType{RESTGateway, MemoryGateway}
}

// GetStoreTypes returns all valid store types
func GetStoreTypes() []StoreType {
	return []StoreType{SQLiteStore, FileStore, MemoryStore}
}
