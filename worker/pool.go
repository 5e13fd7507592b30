package worker

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/seismolab/noiseq/jobs"
	"github.com/seismolab/noiseq/logger"
	"github.com/seismolab/noiseq/params"
)

// Pool runs a set of worker goroutines that repeatedly claim and execute
// jobs. Several pools in several processes may run against the same
// database; the claim protocol keeps their work disjoint without any
// coordination between them.
type Pool struct {
	scheduler  *jobs.Scheduler
	reconciler *jobs.Reconciler
	registry   *Registry
	cfg        params.WorkerConfig

	workerID string
	limiter  *rate.Limiter

	parentCtx context.Context
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// stopTimeout bounds how long Stop waits for in-flight jobs.
const stopTimeout = 30 * time.Second

// NewPool creates a worker pool. Handlers must be registered on registry
// before Start.
func NewPool(ctx context.Context, store jobs.Store, registry *Registry, cfg params.WorkerConfig) *Pool {
	workerCtx, cancel := context.WithCancel(ctx)

	cps := cfg.ClaimsPerSecond
	if cps <= 0 {
		cps = 2
	}

	host, _ := os.Hostname()
	if host == "" {
		host = "unknown"
	}

	return &Pool{
		scheduler:  jobs.NewScheduler(store),
		reconciler: jobs.NewReconciler(store),
		registry:   registry,
		cfg:        cfg,
		workerID:   fmt.Sprintf("%s-%d-%s", host, os.Getpid(), uuid.NewString()[:8]),
		limiter:    rate.NewLimiter(rate.Limit(cps), 1),
		parentCtx:  ctx,
		ctx:        workerCtx,
		cancel:     cancel,
	}
}

// WorkerID returns the identity this pool claims jobs under.
func (p *Pool) WorkerID() string {
	return p.workerID
}

// Start recovers stale claims left by dead workers, then launches the
// worker goroutines. Safe to call again after Stop.
func (p *Pool) Start() {
	select {
	case <-p.ctx.Done():
		p.ctx, p.cancel = context.WithCancel(p.parentCtx)
	default:
	}

	if n, err := p.reconciler.ResetStale(p.ctx, p.cfg.StaleThreshold()); err != nil {
		logger.Warnw("Failed to reset stale claims at startup", "error", err)
	} else if n > 0 {
		logger.Infow("Recovered stale claims at startup", "count", n)
	}

	workers := p.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	logger.Infow("Starting worker pool",
		"worker_id", p.workerID,
		"workers", workers,
		"job_types", p.registry.Types())

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop cancels the workers and waits for in-flight jobs, up to a timeout.
// A job interrupted mid-execution is failed back to TODO by its worker, so
// nothing is lost if the timeout fires.
func (p *Pool) Stop() {
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Infow("Worker pool stopped", "worker_id", p.workerID)
	case <-time.After(stopTimeout):
		logger.Warnw("Worker pool stop timed out, jobs may still be finishing",
			"worker_id", p.workerID, "timeout", stopTimeout)
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	interval := p.cfg.PollInterval()
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if err := p.drainOnce(); err != nil {
				select {
				case <-p.ctx.Done():
					return
				default:
					logger.Errorw("Worker iteration failed", "worker", id, "error", err)
				}
			}
		}
	}
}

// drainOnce claims one batch for each registered job type and executes it.
// Types are visited in sorted order so the earlier pipeline steps (CC
// before STACK) tend to be drained first.
func (p *Pool) drainOnce() error {
	types := p.registry.Types()
	sort.Strings(types)

	for _, jobType := range types {
		if err := p.limiter.Wait(p.ctx); err != nil {
			return err
		}

		batch, err := p.scheduler.Claim(p.ctx, jobs.ClaimRequest{
			Type:     jobType,
			WorkerID: p.workerID,
			Max:      p.cfg.BatchSize,
		})
		if err != nil {
			return err
		}

		for _, job := range batch {
			p.execute(job)
			select {
			case <-p.ctx.Done():
				return nil
			default:
			}
		}
	}
	return nil
}

func (p *Pool) execute(job *jobs.Job) {
	handler := p.registry.Get(job.Type)
	if handler == nil {
		// Claimed a type nobody handles; put it back untouched.
		if err := p.reconciler.Fail(p.ctx, job.ID, "no handler registered"); err != nil {
			logger.Errorw("Failed to release unhandled job", "job", job.Key(), "error", err)
		}
		return
	}

	start := time.Now()
	err := handler.Execute(p.ctx, job)
	if err != nil {
		reason := err.Error()
		select {
		case <-p.ctx.Done():
			reason = "interrupted by shutdown"
		default:
		}
		logger.Warnw("Job execution failed", "job", job.Key(), "error", err)
		if failErr := p.reconciler.Fail(context.Background(), job.ID, reason); failErr != nil {
			logger.Errorw("Failed to fail job", "job", job.Key(), "error", failErr)
		}
		return
	}

	if err := p.reconciler.Complete(context.Background(), job.ID); err != nil {
		logger.Errorw("Failed to complete job", "job", job.Key(), "error", err)
		return
	}
	logger.Infow("Job completed", "job", job.Key(), "duration", time.Since(start))

	if next := handler.FollowUp(); next != "" {
		if err := p.reconciler.Requeue(context.Background(), next, job.Day, job.Pair); err != nil {
			logger.Errorw("Failed to requeue follow-up job",
				"job", job.Key(), "follow_up", next, "error", err)
		}
	}
}
