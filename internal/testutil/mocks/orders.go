package mocks

import (
	"context"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) GetByExternalID(ctx context.Context, db ports.DBTX, gateway, externalID string) (*domain.Order, error) {
	args := m.Called(ctx, db, gateway, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) MarkPaid(ctx context.Context, db ports.DBTX, orderID string, s *domain.Settlement, from []domain.OrderStatus) (*domain.Order, bool, error) {
	args := m.Called(ctx, db, orderID, s, from)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Order), args.Bool(1), args.Error(2)
}

func (m *MockOrderRepository) TransitionStatus(ctx context.Context, db ports.DBTX, orderID string, to domain.OrderStatus, from []domain.OrderStatus, payout *domain.PayoutStatus) (*domain.Order, bool, error) {
	args := m.Called(ctx, db, orderID, to, from, payout)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Order), args.Bool(1), args.Error(2)
}

type MockBalanceRepository struct {
	mock.Mock
}

func (m *MockBalanceRepository) Credit(ctx context.Context, db ports.DBTX, producerID string, cents int64) error {
	return m.Called(ctx, db, producerID, cents).Error(0)
}

func (m *MockBalanceRepository) Debit(ctx context.Context, db ports.DBTX, producerID string, cents int64) error {
	return m.Called(ctx, db, producerID, cents).Error(0)
}

type MockFeeConfigRepository struct {
	mock.Mock
}

func (m *MockFeeConfigRepository) GetEffective(ctx context.Context, producerID string) (domain.FeeConfig, error) {
	args := m.Called(ctx, producerID)
	return args.Get(0).(domain.FeeConfig), args.Error(1)
}

type MockTicketBatchRepository struct {
	mock.Mock
}

func (m *MockTicketBatchRepository) IncrementSold(ctx context.Context, batchID string) (*domain.BatchIncrement, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchIncrement), args.Error(1)
}

func (m *MockTicketBatchRepository) GetByID(ctx context.Context, db ports.DBTX, batchID string) (*domain.TicketBatch, error) {
	args := m.Called(ctx, db, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TicketBatch), args.Error(1)
}

type MockBuyerRepository struct {
	mock.Mock
}

func (m *MockBuyerRepository) UpsertByEmail(ctx context.Context, email, name string) (*domain.BuyerIdentity, error) {
	args := m.Called(ctx, email, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BuyerIdentity), args.Error(1)
}

func (m *MockBuyerRepository) EnrollIfMapped(ctx context.Context, userID, productID, orderID string) (bool, error) {
	args := m.Called(ctx, userID, productID, orderID)
	return args.Bool(0), args.Error(1)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Preference(ctx context.Context, userID string, eventType domain.EventType) (bool, bool, error) {
	args := m.Called(ctx, userID, eventType)
	return args.Bool(0), args.Bool(1), args.Error(2)
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}
