package shutdown

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestManager_ShutdownIsLIFO(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t), time.Second)

	var order []string
	m.RegisterNoErr("database", func() { order = append(order, "database") })
	m.RegisterNoErr("dispatcher", func() { order = append(order, "dispatcher") })
	m.RegisterNoErr("http", func() { order = append(order, "http") })

	errs := m.Shutdown()

	assert.Empty(t, errs)
	assert.Equal(t, []string{"http", "dispatcher", "database"}, order)
}

func TestManager_CollectsErrors(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t), time.Second)
	m.Register("broken", func(ctx context.Context) error { return errors.New("close failed") })
	m.RegisterNoErr("fine", func() {})

	errs := m.Shutdown()

	require.Len(t, errs, 1)
	assert.EqualError(t, errs["broken"], "close failed")
}

func TestInFlightTracker_RejectsAfterShutdown(t *testing.T) {
	tr := NewInFlightTracker("inbound", zaptest.NewLogger(t))

	require.True(t, tr.Add())
	go func() {
		time.Sleep(20 * time.Millisecond)
		tr.Done()
	}()

	require.NoError(t, tr.Shutdown(context.Background()))
	assert.True(t, tr.IsShuttingDown())
	assert.False(t, tr.Add())
}

func TestPeriodicWorker_RunsImmediatelyAndStops(t *testing.T) {
	w := NewPeriodicWorker("dispatcher", time.Hour, zaptest.NewLogger(t))

	var runs atomic.Int32
	started := make(chan struct{})
	w.Start(func(ctx context.Context) {
		if runs.Add(1) == 1 {
			close(started)
		}
	})

	<-started
	require.NoError(t, w.Shutdown(context.Background()))
	assert.Equal(t, int32(1), runs.Load())
}
