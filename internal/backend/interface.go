package backend

import (
	"context"
	"time"

	"finboard/internal/api"
	"finboard/internal/notify"
	"finboard/internal/session"
)

// TokenSetter is implemented by backends that authenticate each request.
// The session is created after the backend, so the token source is
// attached later.
type TokenSetter interface {
	SetTokenSource(ts api.TokenSource)
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend api.Backend
	Cleanup CleanupFunc
}

// SessionStoreResult contains the session persistence and its cleanup
type SessionStoreResult struct {
	Store   session.Store
	Cleanup CleanupFunc
}

// SinkResult holds an optional notification relay. Sink is nil when
// relaying is disabled or unavailable.
type SinkResult struct {
	Sink    notify.Sink
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates the finance service client
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateSessionStore creates the persistence of the signed-in session
	CreateSessionStore(ctx context.Context, config Config) (*SessionStoreResult, error)
	// CreateNotificationSink connects the optional notification relay
	CreateNotificationSink(ctx context.Context, config Config) *SinkResult
}

// Config holds configuration for backend creation
type Config struct {
	Type        BackendType
	SessionType SessionType

	// REST specific
	APIURL         string
	APITimeout     time.Duration
	UploadTimeout  time.Duration
	RateLimitRPS   float64
	RateLimitBurst int

	// SQLite session store
	SQLiteDBPath string

	// Notification relay (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	RESTBackend   BackendType = "rest"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case RESTBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// SessionType selects where the session is persisted
type SessionType string

const (
	MemorySession SessionType = "memory"
	SQLiteSession SessionType = "sqlite"
)

func (st SessionType) IsValid() bool {
	return st == MemorySession || st == SQLiteSession
}
