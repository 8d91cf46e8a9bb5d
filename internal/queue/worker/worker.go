package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/worklink/internal/domain/connection"
	"github.com/geocoder89/worklink/internal/domain/job"
	"github.com/geocoder89/worklink/internal/domain/user"
	"github.com/geocoder89/worklink/internal/notifications"
	"github.com/geocoder89/worklink/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

type ConnectionRequestReader interface {
	GetByID(ctx context.Context, id string) (connection.Request, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type DeliveryStore interface {
	TryStart(ctx context.Context, kind, requestID, jobID, recipient string) error
	MarkSent(ctx context.Context, kind, requestID string, providerMessageID *string) error
	MarkFailed(ctx context.Context, kind, requestID, errMsg string) error
}

type Config struct {
	PollInterval  time.Duration
	WorkerID      string
	Concurrency   int
	ShutdownGrace time.Duration
	LockTTL       time.Duration
	JobTimeout    time.Duration
}

type Deps struct {
	Jobs       JobsRepository
	Requests   ConnectionRequestReader
	Users      UserReader
	Deliveries DeliveryStore
	Notifier   notifications.Notifier
	Log        *slog.Logger
	Stats      *observability.QueueStats
	Prom       *observability.Prom
}

type Worker struct {
	cfg Config
	Deps

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, deps Deps) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = time.Minute
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 10 * time.Second
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Stats == nil {
		deps.Stats = observability.NewQueueStats()
	}

	return &Worker{cfg: cfg, Deps: deps}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) Ready() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}

// Run drains the queue with cfg.Concurrency loops until ctx is cancelled.
// In-flight jobs get cfg.ShutdownGrace to finish.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	w.Log.Info("worker started", "worker_id", w.cfg.WorkerID, "concurrency", w.cfg.Concurrency)

	// jobs keep running on their own context so shutdown does not cut a send in half
	jobCtx, cancelJobs := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelJobs()

	var wg sync.WaitGroup

	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx, jobCtx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.requeueLoop(ctx)
	}()

	<-ctx.Done()
	w.setReady(false)
	w.Log.Info("worker received shutdown signal")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(w.cfg.ShutdownGrace):
		cancelJobs()
		<-done
		w.Log.Warn("shutdown grace elapsed, in-flight jobs cancelled")
	}

	s := w.Stats.Snapshot()
	w.Log.Info("worker stopped",
		"claimed", s.Claimed, "done", s.Done, "retried", s.Retried,
		"failed", s.Failed, "dead_lettered", s.DeadLettered,
		"delivered", s.Delivered,
		"avg_ms", s.AverageDuration.Milliseconds(), "max_ms", s.MaxDuration.Milliseconds(),
	)
	return nil
}

func (w *Worker) loop(stop, jobCtx context.Context) {
	for {
		if stop.Err() != nil {
			return
		}

		processed, err := w.ProcessOne(jobCtx)
		if err != nil {
			w.Log.Error("process job failed", "err", err)
		}
		if processed {
			continue
		}

		select {
		case <-stop.Done():
			return
		case <-time.After(w.cfg.PollInterval):
		}
	}
}

func (w *Worker) requeueLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.LockTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.Jobs.RequeueStaleProcessing(ctx, w.cfg.LockTTL)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					w.Log.Error("requeue stale jobs failed", "err", err)
				}
				continue
			}
			if n > 0 {
				w.Log.Warn("requeued stale jobs", "count", n)
			}
		}
	}
}
