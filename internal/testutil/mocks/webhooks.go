package mocks

import (
	"context"
	"time"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
	"github.com/stretchr/testify/mock"
)

type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Append(ctx context.Context, tx ports.DBTX, event *domain.TransactionEvent) error {
	return m.Called(ctx, tx, event).Error(0)
}

func (m *MockEventRepository) ListByOrder(ctx context.Context, db ports.DBTX, orderID string) ([]*domain.TransactionEvent, error) {
	args := m.Called(ctx, db, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TransactionEvent), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event *domain.TransactionEvent, order *domain.Order) error {
	return m.Called(ctx, event, order).Error(0)
}

type MockEndpointRepository struct {
	mock.Mock
}

func (m *MockEndpointRepository) ListSubscribed(ctx context.Context, db ports.DBTX, producerID string, eventType domain.EventType, productID string) ([]*domain.WebhookEndpoint, error) {
	args := m.Called(ctx, db, producerID, eventType, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.WebhookEndpoint), args.Error(1)
}

func (m *MockEndpointRepository) GetByID(ctx context.Context, db ports.DBTX, endpointID string) (*domain.WebhookEndpoint, error) {
	args := m.Called(ctx, db, endpointID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WebhookEndpoint), args.Error(1)
}

type MockDeliveryJobRepository struct {
	mock.Mock
}

func (m *MockDeliveryJobRepository) Enqueue(ctx context.Context, tx ports.DBTX, jobs []*domain.DeliveryJob) error {
	return m.Called(ctx, tx, jobs).Error(0)
}

func (m *MockDeliveryJobRepository) ClaimBatch(ctx context.Context, limit int) ([]ports.ClaimedJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.ClaimedJob), args.Error(1)
}

func (m *MockDeliveryJobRepository) MarkDelivered(ctx context.Context, jobID string, attempts int) error {
	return m.Called(ctx, jobID, attempts).Error(0)
}

func (m *MockDeliveryJobRepository) Reschedule(ctx context.Context, jobID string, attempts int, next time.Time, lastError string) error {
	return m.Called(ctx, jobID, attempts, next, lastError).Error(0)
}

func (m *MockDeliveryJobRepository) MarkFailed(ctx context.Context, jobID string, attempts int, lastError string) error {
	return m.Called(ctx, jobID, attempts, lastError).Error(0)
}

func (m *MockDeliveryJobRepository) ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDeliveryJobRepository) GetByID(ctx context.Context, db ports.DBTX, jobID string) (*domain.DeliveryJob, error) {
	args := m.Called(ctx, db, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeliveryJob), args.Error(1)
}

func (m *MockDeliveryJobRepository) ListByEndpoint(ctx context.Context, db ports.DBTX, endpointID string, status *domain.JobStatus, limit, offset int32) ([]*domain.DeliveryJob, error) {
	args := m.Called(ctx, db, endpointID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DeliveryJob), args.Error(1)
}

type MockDeliveryLogRepository struct {
	mock.Mock
}

func (m *MockDeliveryLogRepository) Record(ctx context.Context, attempt *domain.DeliveryAttempt) error {
	return m.Called(ctx, attempt).Error(0)
}

func (m *MockDeliveryLogRepository) ListByJob(ctx context.Context, db ports.DBTX, jobID string) ([]*domain.DeliveryAttempt, error) {
	args := m.Called(ctx, db, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DeliveryAttempt), args.Error(1)
}
