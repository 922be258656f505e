package repository

import (
	"context"

	"github.com/aiquery/relay-service/internal/models"
)

// Repository aggregates all repository interfaces
type Repository interface {
	Query() QueryRepositoryInterface
	Event() EventRepositoryInterface
}

// QueryRepositoryInterface defines query logging operations
type QueryRepositoryInterface interface {
	LogQuery(ctx context.Context, q *models.QueryLog) error
	GetQueryLogs(ctx context.Context, limit int) ([]*models.QueryLog, error)
}

// EventRepositoryInterface defines event logging operations
type EventRepositoryInterface interface {
	LogEvent(ctx context.Context, level, code, msg string, meta map[string]interface{}) error
}
