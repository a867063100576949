package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chiragjeevanani/quickcomm-sub000/order-service/internal/domain"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const orderColumns = `id, correlation_id, user_id, items, fees, total_amount, currency, address,
	status, coupon_code, tip_amount, gift_packaging, gstin, payment_id, failure_reason,
	created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(cred *Credentials) (*PostgresRepository, error) {
	conn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host, cred.Port, cred.User, cred.Password, cred.DBName)

	db, err := sql.Open("postgres", conn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+cred.MigrationsDirPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func (r *PostgresRepository) CreateOrder(ctx context.Context, order *domain.OrderAggregate) error {
	itemsJSON, feesJSON, addressJSON, err := encodeDocuments(order.Order)
	if err != nil {
		return err
	}

	query := `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err = r.db.ExecContext(ctx, query,
		order.ID,
		order.CorrelationID,
		order.UserID,
		itemsJSON,
		feesJSON,
		order.TotalAmount,
		order.Currency,
		addressJSON,
		order.Status,
		order.CouponCode,
		order.TipAmount,
		order.GiftPackaging,
		order.GSTIN,
		order.PaymentID,
		order.FailureReason,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// UpdateOrder persists the mutable settlement fields.
func (r *PostgresRepository) UpdateOrder(ctx context.Context, order *domain.OrderAggregate) error {
	query := `UPDATE orders
		SET status = $2, payment_id = $3, failure_reason = $4, updated_at = $5
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		order.ID,
		order.Status,
		order.PaymentID,
		order.FailureReason,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *PostgresRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.OrderAggregate, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

func (r *PostgresRepository) GetOrderByCorrelationID(ctx context.Context, correlationID uuid.UUID) (*domain.OrderAggregate, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE correlation_id = $1`, correlationID)
	return scanOrder(row)
}

func (r *PostgresRepository) ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.OrderAggregate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	var orders []*domain.OrderAggregate
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(s scanner) (*domain.OrderAggregate, error) {
	order := &types.Order{}
	var itemsJSON, feesJSON, addressJSON []byte

	err := s.Scan(
		&order.ID,
		&order.CorrelationID,
		&order.UserID,
		&itemsJSON,
		&feesJSON,
		&order.TotalAmount,
		&order.Currency,
		&addressJSON,
		&order.Status,
		&order.CouponCode,
		&order.TipAmount,
		&order.GiftPackaging,
		&order.GSTIN,
		&order.PaymentID,
		&order.FailureReason,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(feesJSON, &order.Fees); err != nil {
		return nil, fmt.Errorf("unmarshal order fees: %w", err)
	}
	if err := json.Unmarshal(addressJSON, &order.Address); err != nil {
		return nil, fmt.Errorf("unmarshal order address: %w", err)
	}
	return &domain.OrderAggregate{Order: order}, nil
}

func encodeDocuments(order *types.Order) (items, fees, address []byte, err error) {
	if items, err = json.Marshal(order.Items); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal order items: %w", err)
	}
	if fees, err = json.Marshal(order.Fees); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal order fees: %w", err)
	}
	if address, err = json.Marshal(order.Address); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal order address: %w", err)
	}
	return items, fees, address, nil
}
