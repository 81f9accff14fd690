package backend

import (
	"context"

	"retireplan/internal/ports"
	"retireplan/internal/services"
)

// Backend is a store serving every port the application needs.
type Backend interface {
	ports.PlanStore
	ports.TransactionStore
	ports.UserStore
	ports.Pinger
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult contains the backend and its optional collaborators.
type BackendResult struct {
	Backend Backend
	// Publisher is nil when AMQP is not configured or unreachable.
	Publisher services.Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory specific; the plan seed is read from DataDirectory/plan_seed.tsv.
	DataDirectory string

	// Optional sync publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
