package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"cutline/internal/logging"
	"cutline/internal/media"
	"cutline/internal/services"
	"cutline/internal/source"
)

// ProgressFunc lets an acquirer publish source mutations (progress, inferred
// metadata, landed file path) through the media library's action API.
type ProgressFunc func(mutate func(*source.Data))

// Acquirer performs a single acquisition attempt for one source kind.
type Acquirer interface {
	Kind() source.Kind
	Acquire(ctx context.Context, src *source.Data, update ProgressFunc) error
}

// Options tunes a runner.
type Options struct {
	Concurrency    int
	MaxRetries     int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	AttemptTimeout time.Duration
	StatsWindow    int
	// Sleep is swapped out in tests to observe backoff delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Runner drives submitted media items through acquisition and decode with
// bounded concurrency.
type Runner struct {
	logger   *slog.Logger
	library  *media.Library
	decoder  media.Decoder
	acquirer Acquirer
	opts     Options
	slots    chan struct{}
	stats    *Stats
	sleep    func(ctx context.Context, d time.Duration) error

	mu    sync.Mutex
	tasks map[string]*task
	wg    sync.WaitGroup
}

type task struct {
	id          string
	mediaItemID string
	cancel      context.CancelFunc
}

// NewRunner constructs a runner for one source kind.
func NewRunner(logger *slog.Logger, library *media.Library, decoder media.Decoder, acquirer Acquirer, opts Options) *Runner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.MaxDelay < opts.BaseDelay {
		opts.MaxDelay = opts.BaseDelay
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		}
	}
	return &Runner{
		logger:   logging.NewComponentLogger(logger, fmt.Sprintf("acquire-%s", acquirer.Kind())),
		library:  library,
		decoder:  decoder,
		acquirer: acquirer,
		opts:     opts,
		slots:    make(chan struct{}, opts.Concurrency),
		stats:    NewStats(opts.StatsWindow),
		sleep:    sleep,
		tasks:    make(map[string]*task),
	}
}

// Stats exposes the runner's processing-time ring buffer.
func (r *Runner) Stats() *Stats { return r.stats }

// Submit enqueues acquisition for a pending media item and returns the task
// id. The item must exist and be pending.
func (r *Runner) Submit(ctx context.Context, mediaItemID string) (string, error) {
	item := r.library.Get(mediaItemID)
	if item == nil {
		return "", services.Wrap(services.ErrNotFound, "acquire", "submit", fmt.Sprintf("media item %s", mediaItemID), nil)
	}
	if item.Status != media.StatusPending {
		return "", services.Wrap(services.ErrPrecondition, "acquire", "submit",
			fmt.Sprintf("media item %s is %s, not pending", mediaItemID, item.Status), nil)
	}
	if item.Source.Kind != r.acquirer.Kind() {
		return "", services.Wrap(services.ErrValidation, "acquire", "submit",
			fmt.Sprintf("source kind %s does not match runner kind %s", item.Source.Kind, r.acquirer.Kind()), nil)
	}

	taskCtx, cancel := context.WithCancel(services.WithMediaItemID(ctx, mediaItemID))
	t := &task{id: uuid.NewString(), mediaItemID: mediaItemID, cancel: cancel}

	r.mu.Lock()
	r.tasks[t.id] = t
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(taskCtx, t)
	return t.id, nil
}

// Cancel aborts an in-flight task. Cancelling a task that already finished
// is a no-op and returns false.
func (r *Runner) Cancel(taskID string) bool {
	r.mu.Lock()
	t, ok := r.tasks[taskID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	t.cancel()
	return true
}

// Wait blocks until all submitted tasks have finished.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) run(ctx context.Context, t *task) {
	defer r.wg.Done()
	defer func() {
		r.mu.Lock()
		delete(r.tasks, t.id)
		r.mu.Unlock()
		t.cancel()
	}()

	logger := logging.WithContext(ctx, r.logger)

	select {
	case r.slots <- struct{}{}:
	case <-ctx.Done():
		r.markCancelled(t.mediaItemID)
		return
	}
	defer func() { <-r.slots }()

	if err := r.library.Transition(t.mediaItemID, media.StatusAsyncProcessing); err != nil {
		logger.Warn("task skipped, item no longer pending", logging.Error(err))
		return
	}
	r.updateSource(t.mediaItemID, func(d *source.Data) {
		if source.CanTransition(d.Status, source.StatusAcquiring) {
			d.Status = source.StatusAcquiring
		}
	})

	start := time.Now()
	if err := r.acquireWithRetry(ctx, t); err != nil {
		if ctx.Err() != nil {
			r.markCancelled(t.mediaItemID)
			return
		}
		r.fail(t.mediaItemID, err)
		return
	}

	r.updateSource(t.mediaItemID, func(d *source.Data) {
		if source.CanTransition(d.Status, source.StatusAcquired) {
			d.Status = source.StatusAcquired
		}
		d.Progress = 100
	})

	if err := r.decode(ctx, t); err != nil {
		if ctx.Err() != nil {
			r.markCancelled(t.mediaItemID)
			return
		}
		r.fail(t.mediaItemID, err)
		return
	}

	r.stats.Record(time.Since(start))
	logger.Info("media item ready", logging.Duration("elapsed", time.Since(start)))
}

// acquireWithRetry runs attempts with exponential backoff: the delay before
// retry n is min(base * 2^n, max). A non-retryable failure or an exhausted
// budget surfaces the last error.
func (r *Runner) acquireWithRetry(ctx context.Context, t *task) error {
	update := func(mutate func(*source.Data)) {
		r.updateSource(t.mediaItemID, mutate)
	}
	for attempt := 0; ; attempt++ {
		item := r.library.Get(t.mediaItemID)
		if item == nil {
			return services.Wrap(services.ErrNotFound, "acquire", "attempt", fmt.Sprintf("media item %s removed", t.mediaItemID), nil)
		}

		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if r.opts.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, r.opts.AttemptTimeout)
		}
		err := r.acquirer.Acquire(attemptCtx, item.Source, update)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if attemptCtx.Err() == context.DeadlineExceeded {
			err = services.Wrap(services.ErrTimeout, "acquire", "attempt", "attempt deadline exceeded", err)
		}

		r.updateSource(t.mediaItemID, func(d *source.Data) { d.ErrorMessage = err.Error() })

		if !services.IsRetryable(err) || attempt >= r.opts.MaxRetries {
			return err
		}

		delay := r.backoff(attempt)
		r.logger.Warn("acquisition attempt failed, retrying",
			logging.String(logging.FieldMediaItemID, t.mediaItemID),
			logging.Int("attempt", attempt+1),
			logging.Duration("delay", delay),
			logging.Error(err),
			logging.String(logging.FieldEventType, "acquire_retry"),
		)
		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
		// Each retry starts clean: progress back to zero, message cleared.
		r.updateSource(t.mediaItemID, func(d *source.Data) {
			d.Progress = 0
			d.ErrorMessage = ""
		})
	}
}

func (r *Runner) backoff(attempt int) time.Duration {
	delay := r.opts.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= r.opts.MaxDelay {
			return r.opts.MaxDelay
		}
	}
	if delay > r.opts.MaxDelay {
		return r.opts.MaxDelay
	}
	return delay
}

func (r *Runner) decode(ctx context.Context, t *task) error {
	if err := r.library.Transition(t.mediaItemID, media.StatusWebAVDecoding); err != nil {
		return err
	}
	item := r.library.Get(t.mediaItemID)
	if item == nil {
		return services.Wrap(services.ErrNotFound, "acquire", "decode", fmt.Sprintf("media item %s removed", t.mediaItemID), nil)
	}
	decoded, meta, err := r.decoder.Decode(ctx, item.Source.FilePath)
	if err != nil {
		return services.Wrap(services.ErrDecode, "acquire", "decode", "decode media", err)
	}
	return r.library.SetReady(t.mediaItemID, meta, decoded)
}

func (r *Runner) fail(mediaItemID string, cause error) {
	r.logger.Error("acquisition failed",
		logging.String(logging.FieldMediaItemID, mediaItemID),
		logging.Error(cause),
		logging.String(logging.FieldEventType, "acquire_failed"),
		logging.String(logging.FieldErrorHint, "retry the media item or replace its source"),
	)
	if err := r.library.Fail(mediaItemID, cause.Error()); err != nil {
		r.logger.Warn("could not record failure",
			logging.String(logging.FieldMediaItemID, mediaItemID),
			logging.Error(err),
		)
	}
}

func (r *Runner) markCancelled(mediaItemID string) {
	item := r.library.Get(mediaItemID)
	if item == nil || item.Status == media.StatusReady {
		// Acquisition already completed; cancellation is a no-op.
		return
	}
	r.updateSource(mediaItemID, func(d *source.Data) {
		if source.CanTransition(d.Status, source.StatusCancelled) {
			d.Status = source.StatusCancelled
		}
	})
	if err := r.library.Transition(mediaItemID, media.StatusCancelled); err != nil {
		r.logger.Debug("cancel transition skipped",
			logging.String(logging.FieldMediaItemID, mediaItemID),
			logging.Error(err),
		)
	}
}

func (r *Runner) updateSource(mediaItemID string, mutate func(*source.Data)) {
	if err := r.library.UpdateSource(mediaItemID, mutate); err != nil {
		r.logger.Debug("source update skipped",
			logging.String(logging.FieldMediaItemID, mediaItemID),
			logging.Error(err),
		)
	}
}
