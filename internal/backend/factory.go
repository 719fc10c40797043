package backend

import (
	"context"
	"fmt"
	"log/slog"

	"finboard/internal/amqp"
	"finboard/internal/api/memory"
	"finboard/internal/api/rest"
	"finboard/internal/log"
	"finboard/internal/session"
	"finboard/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger.With(log.FieldComponent, log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case RESTBackend:
		return f.createRESTBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createRESTBackend(config Config) (*BackendResult, error) {
	client, err := rest.New(rest.Options{
		BaseURL:        config.APIURL,
		Timeout:        config.APITimeout,
		UploadTimeout:  config.UploadTimeout,
		RateLimitRPS:   config.RateLimitRPS,
		RateLimitBurst: config.RateLimitBurst,
		Logger:         log.Default(log.ComponentAPI),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize REST client: %w", err)
	}

	f.logger.Info("Initialized REST backend",
		"api_url", config.APIURL,
		"timeout", config.APITimeout,
		"rate_limit_rps", config.RateLimitRPS)

	return &BackendResult{Backend: client}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory backend with demo data", "username", "demo")
	return &BackendResult{Backend: memory.NewDemo()}, nil
}

// CreateSessionStore implements Factory.CreateSessionStore
func (f *DefaultFactory) CreateSessionStore(ctx context.Context, config Config) (*SessionStoreResult, error) {
	switch config.SessionType {
	case SQLiteSession:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite session store", "db_path", config.SQLiteDBPath)
		return &SessionStoreResult{Store: repo, Cleanup: repo.Close}, nil
	case MemorySession, "":
		return &SessionStoreResult{Store: session.NewMemoryStore()}, nil
	default:
		return nil, fmt.Errorf("unsupported session backend: %s", config.SessionType)
	}
}

// CreateNotificationSink implements Factory.CreateNotificationSink. A
// broker that cannot be reached disables relaying instead of failing.
func (f *DefaultFactory) CreateNotificationSink(ctx context.Context, config Config) *SinkResult {
	if config.AMQPURL == "" {
		return &SinkResult{}
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without relay", "error", err)
		return &SinkResult{}
	}

	f.logger.InfoContext(ctx, "Initialized AMQP notification relay",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	return &SinkResult{
		Sink:    amqp.NewNotificationSink(client),
		Cleanup: client.Close,
	}
}
