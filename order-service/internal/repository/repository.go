package repository

import (
	"context"
	"errors"

	"github.com/chiragjeevanani/quickcomm-sub000/order-service/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order for this correlation id already exists")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.OrderAggregate) error
	UpdateOrder(ctx context.Context, order *domain.OrderAggregate) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.OrderAggregate, error)
	GetOrderByCorrelationID(ctx context.Context, correlationID uuid.UUID) (*domain.OrderAggregate, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.OrderAggregate, error)
}
