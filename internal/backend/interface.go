// Package backend builds the persistence store and change publisher
// selected by configuration.
package backend

import (
	"context"

	"mstore/internal/services"
	"mstore/internal/storage"
)

// CleanupFunc releases resources opened by the factory.
type CleanupFunc func() error

// BackendResult holds the store and, when AMQP is configured, the publisher.
type BackendResult struct {
	Store     storage.KeyValue
	Publisher services.Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	SQLiteDBPath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	DatabaseURL string

	// Publishing is disabled when AMQPURL is empty.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType names a key-value store implementation.
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	RedisBackend    BackendType = "redis"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, RedisBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
