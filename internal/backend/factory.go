package backend

import (
	"context"
	"fmt"

	"spendly/internal/api/memory"
	"spendly/internal/api/rest"
	"spendly/internal/log"
	"spendly/internal/storage/file"
	memstore "spendly/internal/storage/memory"
	"spendly/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateGateway implements Factory.CreateGateway
func (f *DefaultFactory) CreateGateway(ctx context.Context, config Config, deps GatewayDeps) (*GatewayResult, error) {
	switch config.Gateway {
	case RESTGateway:
		opts := []rest.Option{
			rest.WithTimeout(config.APITimeout),
			rest.WithLogger(f.logger),
		}
		if deps.Token != nil {
			opts = append(opts, rest.WithTokenSource(deps.Token))
		}
		if deps.Observer != nil {
			opts = append(opts, rest.WithObserver(deps.Observer))
		}
		if deps.RequestID != nil {
			opts = append(opts, rest.WithRequestID(deps.RequestID))
		}
		client := rest.New(config.APIBaseURL, opts...)
		f.logger.InfoContext(ctx, "Initialized REST gateway", "base_url", client.BaseURL(), "timeout", config.APITimeout.String())
		return &GatewayResult{Gateway: client}, nil
	case MemoryGateway:
		f.logger.InfoContext(ctx, "Initialized in-memory gateway with demo data", log.FieldUsername, "demo")
		return &GatewayResult{Gateway: memory.NewSeeded()}, nil
	default:
		return nil, fmt.Errorf("unsupported gateway type: %s", config.Gateway)
	}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*StoreResult, error) {
	switch config.Store {
	case SQLiteStore:
		st, err := sqlite.Open(ctx, config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite store", "db_path", config.SQLiteDBPath)
		return &StoreResult{Store: st, Ping: st.Ping, Cleanup: st.Close}, nil
	case FileStore:
		f.logger.InfoContext(ctx, "Initialized file store", "path", config.StateFile)
		return &StoreResult{Store: file.New(config.StateFile)}, nil
	case MemoryStore:
		f.logger.InfoContext(ctx, "Initialized memory store")
		return &StoreResult{Store: memstore.New()}, nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Store)
	}
}
