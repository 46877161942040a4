package backend

import (
	"context"
	"time"

	"spendly/internal/api"
	"spendly/internal/api/rest"
	"spendly/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// GatewayResult contains the backend gateway and optional cleanup function
type GatewayResult struct {
	Gateway api.Gateway
	Cleanup CleanupFunc
}

// StoreResult contains the local key/value store and optional cleanup function
type StoreResult struct {
	Store storage.KV
	// Ping checks the store is reachable, nil when there is nothing to check.
	Ping    func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateGateway(ctx context.Context, config Config, deps GatewayDeps) (*GatewayResult, error)
	CreateStore(ctx context.Context, config Config) (*StoreResult, error)
}

// GatewayDeps carries the collaborators a REST gateway is wired with.
type GatewayDeps struct {
	Token     rest.TokenSource
	Observer  rest.Observer
	RequestID rest.RequestIDFunc
}

// Config holds configuration for backend creation
type Config struct {
	Gateway GatewayType
	Store   StoreType

	// REST gateway
	APIBaseURL string
	APITimeout time.Duration

	// Stores
	SQLiteDBPath string
	StateFile    string
}

// GatewayType selects how the backend API is reached
type GatewayType string

const (
	RESTGateway   GatewayType = "rest"
	MemoryGateway GatewayType = "memory"
)

// StoreType selects where the session is persisted
type StoreType string

const (
	SQLiteStore StoreType = "sqlite"
	FileStore   StoreType = "file"
	MemoryStore StoreType = "memory"
)

// String implements fmt.Stringer
func (gt GatewayType) String() string {
	return string(gt)
}

// IsValid returns true if the gateway type is valid
func (gt GatewayType) IsValid() bool {
	switch gt {
	case RESTGateway, MemoryGateway:
		return true
	default:
		return false
	}
}

func (st StoreType) String() string {
	return string(st)
}

func (st StoreType) IsValid() bool {
	switch st {
	case SQLiteStore, FileStore, MemoryStore:
		return true
	default:
		return false
	}
}
