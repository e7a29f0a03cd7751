package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
	"github.com/kevin07696/settlement-service/internal/testutil/fixtures"
)

func TestDispatcher_Run_DrainsBatches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get(HeaderEvent) == string(domain.EventRefund) {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	q, jobs, logs := newTestQueue(t)
	ep := fixtures.NewEndpoint(srv.URL, "s", domain.EventPurchaseApproved, domain.EventRefund)

	first := []ports.ClaimedJob{
		{Job: fixtures.NewDeliveryJob(ep, []byte(testPayload)), Endpoint: ep},
		{Job: fixtures.NewDeliveryJob(ep, []byte(testPayload)), Endpoint: ep},
	}
	refund := fixtures.NewDeliveryJob(ep, []byte(testPayload))
	refund.EventType = domain.EventRefund
	second := []ports.ClaimedJob{{Job: refund, Endpoint: ep}}

	jobs.On("ReleaseStale", mock.Anything, mock.Anything).Return(int64(1), nil)
	jobs.On("ClaimBatch", mock.Anything, 2).Return(first, nil).Once()
	jobs.On("ClaimBatch", mock.Anything, 2).Return(second, nil).Once()
	jobs.On("MarkDelivered", mock.Anything, mock.Anything, 1).Return(nil)
	jobs.On("Reschedule", mock.Anything, refund.ID, 1, mock.Anything, "HTTP 502").Return(nil)
	logs.On("Record", mock.Anything, mock.Anything).Return(nil)

	d := NewDispatcher(q, DispatcherConfig{BatchSize: 2, MaxBatches: 5, Concurrency: 2}, zaptest.NewLogger(t))

	stats, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.Released)
	assert.Equal(t, 3, stats.Claimed)
	assert.Equal(t, 2, stats.Delivered)
	assert.Equal(t, 1, stats.Retrying)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, int32(3), hits.Load())
	jobs.AssertNumberOfCalls(t, "ClaimBatch", 2)
}

func TestDispatcher_Run_StopsOnEmptyQueue(t *testing.T) {
	q, jobs, _ := newTestQueue(t)
	jobs.On("ReleaseStale", mock.Anything, mock.Anything).Return(int64(0), nil)
	jobs.On("ClaimBatch", mock.Anything, 50).Return([]ports.ClaimedJob{}, nil)

	stats, err := NewDispatcher(q, DispatcherConfig{}, zaptest.NewLogger(t)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Claimed)
	jobs.AssertNumberOfCalls(t, "ClaimBatch", 1)
}

func TestDispatcher_Run_ClaimErrorFailsRun(t *testing.T) {
	q, jobs, _ := newTestQueue(t)
	jobs.On("ReleaseStale", mock.Anything, mock.Anything).Return(int64(0), errors.New("timeout"))
	jobs.On("ClaimBatch", mock.Anything, mock.Anything).Return(nil, errors.New("conn reset"))

	_, err := NewDispatcher(q, DispatcherConfig{}, zaptest.NewLogger(t)).Run(context.Background())

	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeDatabaseError))
}

func TestDispatcher_Run_CancelledContextClaimsNothing(t *testing.T) {
	q, jobs, _ := newTestQueue(t)
	jobs.On("ReleaseStale", mock.Anything, mock.Anything).Return(int64(0), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := NewDispatcher(q, DispatcherConfig{}, zaptest.NewLogger(t)).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Claimed)
	jobs.AssertNotCalled(t, "ClaimBatch", mock.Anything, mock.Anything)
}
