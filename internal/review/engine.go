package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/dshills/facet/internal/perspective"
)

// DefaultWorkers bounds concurrent remote calls when no limit is set.
const DefaultWorkers = 3

// EngineOptions configures an Engine.
type EngineOptions struct {
	// Workers is the maximum number of tasks in flight.
	Workers int
	// TaskTimeout bounds each task, including cache access and the remote
	// call. Zero means no per-task deadline.
	TaskTimeout time.Duration
	// MaxFileBytes truncates content before keying and submission.
	MaxFileBytes int
	Logger       *slog.Logger
	// OnProgress, if set, is called after each task completes. It may be
	// called from several goroutines at once.
	OnProgress func(done, total int)
}

// Engine fans files × perspectives out over a bounded worker pool.
type Engine struct {
	submitter Submitter
	cache     *ResultCache
	opts      EngineOptions
	logger    *slog.Logger
	calls     singleflight.Group
	slots     *semaphore.Weighted
}

// NewEngine returns an Engine that reviews through submitter. rc may be nil
// to disable caching.
func NewEngine(submitter Submitter, rc *ResultCache, opts EngineOptions) *Engine {
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		submitter: submitter,
		cache:     rc,
		opts:      opts,
		logger:    logger,
		slots:     semaphore.NewWeighted(int64(opts.Workers)),
	}
}

// Tasks builds the task list for files × ids. Task i covers
// files[i/len(ids)] under ids[i%len(ids)].
func (e *Engine) Tasks(files []File, ids []perspective.ID) []Task {
	tasks := make([]Task, 0, len(files)*len(ids))
	for fi, f := range files {
		content, _ := Truncate(f.Content, e.opts.MaxFileBytes)
		for pi, id := range ids {
			tasks = append(tasks, Task{
				Seq:         fi*len(ids) + pi,
				File:        f.Path,
				Content:     content,
				Perspective: id,
			})
		}
	}
	return tasks
}

// Run reviews every file under every perspective and returns one outcome
// per task, indexed by task sequence. A failing task never affects its
// siblings; Run returns only when every task has resolved.
func (e *Engine) Run(ctx context.Context, files []File, ids []perspective.ID) []Outcome {
	tasks := e.Tasks(files, ids)
	loadErrs := make(map[string]error)
	for _, f := range files {
		if f.Err != nil {
			loadErrs[f.Path] = f.Err
		}
	}

	outcomes := make([]Outcome, len(tasks))
	var done atomic.Int64

	var g errgroup.Group
	g.SetLimit(e.opts.Workers)
	for i, t := range tasks {
		g.Go(func() error {
			if err, bad := loadErrs[t.File]; bad {
				outcomes[i] = failure(t, err.Error())
			} else {
				outcomes[i] = e.runTask(ctx, t)
			}
			if e.opts.OnProgress != nil {
				e.opts.OnProgress(int(done.Add(1)), len(tasks))
			}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (e *Engine) runTask(runCtx context.Context, t Task) Outcome {
	start := time.Now()
	log := e.logger.With("file", t.File, "perspective", t.Perspective, "seq", t.Seq)

	ctx := runCtx
	if e.opts.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(runCtx, e.opts.TaskTimeout)
		defer cancel()
	}

	if r, ok := e.cache.Lookup(ctx, t.Content, t.Perspective); ok {
		r.File = t.File
		r.Cached = true
		log.Debug("cache hit")
		return Outcome{Seq: t.Seq, Result: &r}
	}
	if err := ctx.Err(); err != nil {
		reason := e.abortReason(err)
		log.Debug("task skipped", "reason", reason)
		return failure(t, reason)
	}

	key := e.cache.Key(t.Content, t.Perspective)
	ch := e.calls.DoChan(key, func() (any, error) {
		return e.submitShared(runCtx, ctx, t, log)
	})

	select {
	case <-ctx.Done():
		reason := e.abortReason(ctx.Err())
		log.Debug("task failed", "reason", reason)
		return failure(t, reason)
	case res := <-ch:
		if res.Err != nil {
			log.Debug("task failed", "error", res.Err, "duration", time.Since(start))
			if errors.Is(res.Err, context.DeadlineExceeded) || errors.Is(res.Err, ErrTimeout) || errors.Is(res.Err, context.Canceled) {
				return failure(t, e.abortReason(res.Err))
			}
			return failure(t, res.Err.Error())
		}
		r := res.Val.(Result)
		r.File = t.File
		r.Cached = false
		log.Debug("task complete", "score", r.Score, "degraded", r.Degraded, "shared", res.Shared, "duration", time.Since(start))
		return Outcome{Seq: t.Seq, Result: &r}
	}
}

// submitShared performs the remote call behind a singleflight key. The call
// survives the timeout of the task that started it, so tasks collapsed onto
// it are not failed early, but it stops when the run is cancelled. Shared
// calls hold a slot for their whole duration, which keeps remote calls
// within the worker limit even after their waiters have given up.
func (e *Engine) submitShared(runCtx, taskCtx context.Context, t Task, log *slog.Logger) (Result, error) {
	callCtx, cancel := context.WithCancel(context.WithoutCancel(taskCtx))
	defer cancel()
	stop := context.AfterFunc(runCtx, cancel)
	defer stop()
	if e.opts.TaskTimeout > 0 {
		var cancelTimeout context.CancelFunc
		callCtx, cancelTimeout = context.WithTimeout(callCtx, e.opts.TaskTimeout)
		defer cancelTimeout()
	}

	if err := e.slots.Acquire(callCtx, 1); err != nil {
		return Result{}, err
	}
	defer e.slots.Release(1)

	// The starting task may have given up while queued for a slot.
	if err := taskCtx.Err(); err != nil {
		return Result{}, err
	}

	r, err := e.submitter.Submit(callCtx, t)
	if err != nil {
		return Result{}, err
	}
	if err := e.cache.Store(callCtx, t.Content, t.Perspective, r); err != nil {
		log.Debug("cache store failed", "error", err)
	}
	return r, nil
}

// abortReason describes a task that ran out of time or was cancelled.
func (e *Engine) abortReason(err error) string {
	if errors.Is(err, context.Canceled) {
		return "review cancelled: " + context.Canceled.Error()
	}
	return fmt.Sprintf("review timed out after %s", e.opts.TaskTimeout)
}

func failure(t Task, reason string) Outcome {
	return Outcome{
		Seq:     t.Seq,
		Failure: &Failure{File: t.File, Perspective: t.Perspective, Reason: reason},
	}
}
