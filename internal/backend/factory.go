package backend

import (
	"context"
	"errors"
	"fmt"

	"mstore/internal/amqp"
	applog "mstore/internal/log"
	"mstore/internal/storage"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.FromSlog(nil, applog.ComponentBackend)
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// CreateBackend opens the configured store and, optionally, the AMQP
// publisher. A broker that cannot be reached disables publishing instead of
// failing startup.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.createStore(ctx, config)
	if err != nil {
		return nil, err
	}
	result := &BackendResult{Store: store}
	closers := []func() error{store.Close}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change notifications",
				"error", err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.Publisher = client
			closers = append(closers, client.Close)
		}
	}

	result.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	f.logger.InfoContext(ctx, "Initialized ledger backend",
		applog.FieldBackend, config.Type,
		"amqp_enabled", result.Publisher != nil)
	return result, nil
}

func (f *DefaultFactory) createStore(ctx context.Context, config Config) (storage.KeyValue, error) {
	switch config.Type {
	case MemoryBackend:
		f.logger.WarnContext(ctx, "Memory backend selected, ledgers are lost on restart")
		return storage.NewMemoryStore(), nil
	case SQLiteBackend:
		s, err := storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.InfoContext(ctx, "Opened SQLite store", "db_path", config.SQLiteDBPath)
		return s, nil
	case RedisBackend:
		s, err := storage.NewRedisStore(ctx, config.RedisAddr, config.RedisPassword, config.RedisDB, config.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis store: %w", err)
		}
		f.logger.InfoContext(ctx, "Connected to Redis", "addr", config.RedisAddr, "db", config.RedisDB)
		return s, nil
	case PostgresBackend:
		s, err := storage.NewPostgresStore(ctx, config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.InfoContext(ctx, "Connected to Postgres")
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
