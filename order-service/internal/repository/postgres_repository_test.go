package repository

import (
	"context"
	"testing"
	"time"

	"github.com/chiragjeevanani/quickcomm-sub000/order-service/internal/domain"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *PostgresRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("orders"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "orders",
		MigrationsDirPath: "./migrations",
	}

	repo, err := NewPostgresRepository(creds)
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations(creds))

	t.Cleanup(func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})
	return repo
}

func newTestOrder(t *testing.T, userID string) *domain.OrderAggregate {
	t.Helper()
	lat, lng := 12.97, 77.59
	order, err := domain.NewOrderAggregate(types.OrderDraft{
		CorrelationID: uuid.New(),
		UserID:        userID,
		Items: []types.OrderItem{{
			ProductID: "p1", Name: "Milk", Quantity: 2,
			MRP: decimal.NewFromInt(60), UnitPrice: decimal.NewFromInt(50), LineTotal: decimal.NewFromInt(100),
		}},
		Fees: types.FeeBreakdown{
			ItemsTotal:      decimal.NewFromInt(120),
			DiscountedTotal: decimal.NewFromInt(100),
			HandlingCharge:  decimal.NewFromInt(10),
			DeliveryCharge:  decimal.NewFromInt(25),
			TipAmount:       decimal.NewFromInt(20),
		},
		TotalAmount: decimal.NewFromInt(155),
		Currency:    "INR",
		Address: types.OrderAddress{
			ID: "a1", Name: "Asha", City: "Bengaluru", Pincode: "560001",
			Latitude: &lat, Longitude: &lng,
		},
		GSTIN: "29ABCDE1234F1Z5",
	})
	require.NoError(t, err)
	return order
}

func TestCreateAndGetOrder(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	order := newTestOrder(t, "user-1")

	require.NoError(t, repo.CreateOrder(ctx, order))

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.CorrelationID, fetched.CorrelationID)
	assert.Equal(t, types.OrderStatusPending, fetched.Status)
	assert.True(t, fetched.TotalAmount.Equal(decimal.NewFromInt(155)))
	assert.True(t, fetched.Fees.DeliveryCharge.Equal(decimal.NewFromInt(25)))
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, "Milk", fetched.Items[0].Name)
	require.NotNil(t, fetched.Address.Coordinates())
	assert.Equal(t, "29ABCDE1234F1Z5", fetched.GSTIN)

	byCorrelation, err := repo.GetOrderByCorrelationID(ctx, order.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byCorrelation.ID)
}

func TestCreateOrderDuplicateCorrelation(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	order := newTestOrder(t, "user-1")
	require.NoError(t, repo.CreateOrder(ctx, order))

	dup := newTestOrder(t, "user-1")
	dup.CorrelationID = order.CorrelationID
	assert.ErrorIs(t, repo.CreateOrder(ctx, dup), ErrDuplicateOrder)
}

func TestUpdateOrder(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	order := newTestOrder(t, "user-1")
	require.NoError(t, repo.CreateOrder(ctx, order))

	_, err := order.MarkPaid("TXN_1")
	require.NoError(t, err)
	require.NoError(t, repo.UpdateOrder(ctx, order))

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusPaid, fetched.Status)
	assert.Equal(t, "TXN_1", fetched.PaymentID)

	missing := newTestOrder(t, "user-1")
	assert.ErrorIs(t, repo.UpdateOrder(ctx, missing), ErrOrderNotFound)
}

func TestListOrdersByUserID(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	first := newTestOrder(t, "user-1")
	require.NoError(t, repo.CreateOrder(ctx, first))
	second := newTestOrder(t, "user-1")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, repo.CreateOrder(ctx, second))
	require.NoError(t, repo.CreateOrder(ctx, newTestOrder(t, "user-2")))

	orders, err := repo.ListOrdersByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)

	_, err = repo.GetOrderByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
