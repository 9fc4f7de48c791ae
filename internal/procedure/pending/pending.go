// Package pending releases registrations that arrived outside business hours.
//
// A run checks the calendar once; when the current instant is in schedule it
// flips every active PENDING_SCHEDULE flow to SENT. Runs are idempotent, and
// a distributed lock keeps replicas from racing on the same batch.
package pending

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bsm/redislock"

	calendar "tramite/internal/calendar/models"
	pmetrics "tramite/internal/procedure/metrics"
	"tramite/pkg/requestcontext"
)

const lockKey = "tramite:lock:pending-schedule"

// Store flips pending flows.
type Store interface {
	ReleasePending(ctx context.Context, now time.Time) (int, error)
}

// Scheduler classifies the current instant.
type Scheduler interface {
	Classify(ctx context.Context) (calendar.Result, error)
}

// Locker guards one run. Obtain returns ErrLocked when another runner holds
// the lock.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// ErrLocked reports that another runner owns the current batch.
var ErrLocked = errors.New("pending release already running")

// Worker runs release batches.
type Worker struct {
	store     Store
	scheduler Scheduler
	locker    Locker
	lockTTL   time.Duration
	logger    *slog.Logger
	metrics   *pmetrics.Metrics
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithMetrics(m *pmetrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

// WithLocker serializes runs across processes. Without one, runs are only
// serialized by the database.
func WithLocker(l Locker, ttl time.Duration) Option {
	return func(w *Worker) {
		w.locker = l
		w.lockTTL = ttl
	}
}

func New(store Store, scheduler Scheduler, opts ...Option) *Worker {
	w := &Worker{
		store:     store,
		scheduler: scheduler,
		lockTTL:   2 * time.Minute,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// RunOnce processes one batch and reports how many flows were released.
// Outside business hours, or when another runner holds the lock, it
// releases nothing.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	if w.locker != nil {
		release, err := w.locker.Obtain(ctx, lockKey, w.lockTTL)
		if errors.Is(err, ErrLocked) {
			w.logger.InfoContext(ctx, "pending release skipped, lock held elsewhere")
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				w.logger.WarnContext(ctx, "failed to release pending lock", "error", err)
			}
		}()
	}

	classification, err := w.scheduler.Classify(ctx)
	if err != nil {
		return 0, err
	}
	if classification != calendar.InSchedule {
		w.logger.DebugContext(ctx, "pending release skipped outside business hours",
			"classification", classification,
		)
		return 0, nil
	}

	n, err := w.store.ReleasePending(ctx, requestcontext.Now(ctx))
	if err != nil {
		return 0, err
	}
	w.metrics.AddPendingReleased(n)
	w.logger.InfoContext(ctx, "pending flows released", "count", n)
	return n, nil
}

// Run processes a batch every interval until ctx is cancelled. Batch
// failures are logged and the next tick tries again.
func (w *Worker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "pending release failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RedisLocker adapts a redislock client.
type RedisLocker struct {
	client *redislock.Client
}

func NewRedisLocker(client *redislock.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLocked
	}
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return err
		}
		return nil
	}, nil
}
