package webhook

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

// DispatcherConfig bounds one dispatcher run.
type DispatcherConfig struct {
	BatchSize   int // jobs claimed per batch
	MaxBatches  int // batches per run
	Concurrency int // deliveries in flight per batch
}

// DefaultDispatcherConfig returns the production defaults
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		BatchSize:   50,
		MaxBatches:  10,
		Concurrency: 8,
	}
}

// RunStats summarizes one dispatcher run
type RunStats struct {
	Released  int64         `json:"released"`
	Claimed   int           `json:"claimed"`
	Delivered int           `json:"delivered"`
	Retrying  int           `json:"retrying"`
	Failed    int           `json:"failed"`
	Errors    int           `json:"errors"`
	Duration  time.Duration `json:"-"`
}

// Dispatcher drains due jobs from the queue. Several runs may overlap, in this
// process or others; the atomic claim keeps them from sharing a job.
type Dispatcher struct {
	queue  *Queue
	cfg    DispatcherConfig
	logger *zap.Logger
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(queue *Queue, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	def := DefaultDispatcherConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxBatches <= 0 {
		cfg.MaxBatches = def.MaxBatches
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	return &Dispatcher{queue: queue, cfg: cfg, logger: logger}
}

// Run releases stale claims, then claims and delivers batches until the queue has
// no due jobs, MaxBatches is reached, or ctx ends. Jobs claimed when ctx ends stay
// processing until a later run releases them.
func (d *Dispatcher) Run(ctx context.Context) (*RunStats, error) {
	start := time.Now()
	stats := &RunStats{}

	released, err := d.queue.ReleaseStale(ctx)
	if err != nil {
		// Recovery is retried next run; fresh jobs can still go out.
		d.logger.Error("Failed to release stale claims", zap.Error(err))
	}
	stats.Released = released

	for batch := 0; batch < d.cfg.MaxBatches; batch++ {
		if ctx.Err() != nil {
			break
		}

		claimed, err := d.queue.Claim(ctx, d.cfg.BatchSize)
		if err != nil {
			stats.Duration = time.Since(start)
			return stats, err
		}
		if len(claimed) == 0 {
			break
		}
		stats.Claimed += len(claimed)

		d.deliverBatch(ctx, claimed, stats)

		if len(claimed) < d.cfg.BatchSize {
			break
		}
	}

	stats.Duration = time.Since(start)
	d.logger.Info("Webhook dispatch completed",
		zap.Int64("released", stats.Released),
		zap.Int("claimed", stats.Claimed),
		zap.Int("delivered", stats.Delivered),
		zap.Int("retrying", stats.Retrying),
		zap.Int("failed", stats.Failed),
		zap.Int("errors", stats.Errors),
		zap.Duration("duration", stats.Duration),
	)
	return stats, nil
}

func (d *Dispatcher) deliverBatch(ctx context.Context, claimed []ports.ClaimedJob, stats *RunStats) {
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(d.cfg.Concurrency)

	for _, c := range claimed {
		g.Go(func() error {
			rec, err := d.queue.Deliver(ctx, c)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				stats.Errors++
				d.logger.Error("Failed to persist delivery outcome",
					zap.String("job_id", c.Job.ID),
					zap.Error(err),
				)
			case rec.Success:
				stats.Delivered++
			case c.Endpoint != nil && c.Endpoint.IsActive && c.Job.Attempts+1 < c.Job.MaxAttempts:
				stats.Retrying++
			default:
				stats.Failed++
			}
			// Per-job failures are counted, never propagated to the group.
			return nil
		})
	}
	_ = g.Wait()
}
