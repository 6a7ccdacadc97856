package acquire

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cutline/internal/logging"
	"cutline/internal/media"
	"cutline/internal/services"
	"cutline/internal/source"
)

type stubClip struct{ id string }

func (c *stubClip) ID() string             { return c.id }
func (c *stubClip) Clone() media.ClipHandle { return &stubClip{id: c.id} }
func (c *stubClip) Release()               {}

type stubAcquirer struct {
	kind source.Kind

	mu       sync.Mutex
	attempts int
	fn       func(ctx context.Context, attempt int, src *source.Data, update ProgressFunc) error
}

func (a *stubAcquirer) Kind() source.Kind { return a.kind }

func (a *stubAcquirer) Acquire(ctx context.Context, src *source.Data, update ProgressFunc) error {
	a.mu.Lock()
	a.attempts++
	attempt := a.attempts
	a.mu.Unlock()
	return a.fn(ctx, attempt, src, update)
}

func (a *stubAcquirer) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attempts
}

type stubDecoder struct {
	err error
}

func (d *stubDecoder) Decode(ctx context.Context, filePath string) (*media.DecodedObjects, media.Metadata, error) {
	if d.err != nil {
		return nil, media.Metadata{}, d.err
	}
	decoded := &media.DecodedObjects{
		Clip:            &stubClip{id: "clip-" + filePath},
		PosterFramePath: filePath + ".png",
		Width:           1920,
		Height:          1080,
	}
	meta := media.Metadata{Type: media.TypeVideo, DurationFrames: 150, Width: 1920, Height: 1080}
	return decoded, meta, nil
}

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSleeper) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func newTestRunner(t *testing.T, acq Acquirer, dec media.Decoder, sleep func(context.Context, time.Duration) error) (*Runner, *media.Library) {
	t.Helper()
	library := media.NewLibrary(logging.NewNop())
	opts := Options{
		Concurrency: 2,
		MaxRetries:  3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		StatsWindow: 16,
		Sleep:       sleep,
	}
	return NewRunner(logging.NewNop(), library, dec, acq, opts), library
}

func addPendingRemote(t *testing.T, library *media.Library) *media.Item {
	t.Helper()
	item := media.NewItem("Clip", source.NewRemote("https://example.com/clip.mp4"))
	if err := library.Add(item); err != nil {
		t.Fatalf("add item: %v", err)
	}
	return item
}

func TestRunnerBackoffSequence(t *testing.T) {
	transient := services.Wrap(services.ErrTransient, "acquire", "remote", "boom", nil)
	acq := &stubAcquirer{
		kind: source.KindRemote,
		fn: func(ctx context.Context, attempt int, src *source.Data, update ProgressFunc) error {
			return transient
		},
	}
	sleeper := &recordingSleeper{}
	runner, library := newTestRunner(t, acq, &stubDecoder{}, sleeper.sleep)
	item := addPendingRemote(t, library)

	if _, err := runner.Submit(context.Background(), item.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	runner.Wait()

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	got := sleeper.recorded()
	if len(got) != len(want) {
		t.Fatalf("got %d backoff delays, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("delay %d = %v, want %v", i, got[i], want[i])
		}
	}
	if acq.count() != 4 {
		t.Errorf("attempts = %d, want 4", acq.count())
	}

	final := library.Get(item.ID)
	if final.Status != media.StatusError {
		t.Errorf("status = %s, want %s", final.Status, media.StatusError)
	}
	if final.Source.ErrorMessage == "" {
		t.Error("expected error message on source after exhausted retries")
	}
	if runner.Stats().Total() != 0 {
		t.Errorf("failed task recorded stats: total = %d", runner.Stats().Total())
	}
}

func TestRunnerBackoffCapped(t *testing.T) {
	acq := &stubAcquirer{
		kind: source.KindRemote,
		fn: func(ctx context.Context, attempt int, src *source.Data, update ProgressFunc) error {
			return services.Wrap(services.ErrTransient, "acquire", "remote", "boom", nil)
		},
	}
	sleeper := &recordingSleeper{}
	library := media.NewLibrary(logging.NewNop())
	runner := NewRunner(logging.NewNop(), library, &stubDecoder{}, acq, Options{
		Concurrency: 1,
		MaxRetries:  6,
		BaseDelay:   time.Second,
		MaxDelay:    4 * time.Second,
		Sleep:       sleeper.sleep,
	})
	item := addPendingRemote(t, library)

	if _, err := runner.Submit(context.Background(), item.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	runner.Wait()

	got := sleeper.recorded()
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 4 * time.Second, 4 * time.Second, 4 * time.Second}
	if len(got) != len(want) {
		t.Fatalf("got %d delays, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("delay %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRunnerSucceedsAfterRetries(t *testing.T) {
	acq := &stubAcquirer{
		kind: source.KindRemote,
		fn: func(ctx context.Context, attempt int, src *source.Data, update ProgressFunc) error {
			if attempt < 3 {
				return services.Wrap(services.ErrTransient, "acquire", "remote", "flaky", nil)
			}
			update(func(d *source.Data) {
				d.FilePath = "/cache/clip.mp4"
				d.SizeBytes = 1024
				d.Progress = 100
			})
			return nil
		},
	}
	sleeper := &recordingSleeper{}
	runner, library := newTestRunner(t, acq, &stubDecoder{}, sleeper.sleep)
	item := addPendingRemote(t, library)

	if _, err := runner.Submit(context.Background(), item.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	runner.Wait()

	final := library.Get(item.ID)
	if final.Status != media.StatusReady {
		t.Fatalf("status = %s, want %s", final.Status, media.StatusReady)
	}
	if final.DurationFrames != 150 {
		t.Errorf("duration = %d, want 150", final.DurationFrames)
	}
	if final.Decoded == nil || final.Decoded.Clip == nil {
		t.Fatal("ready item missing decoded objects")
	}
	if final.Source.Status != source.StatusAcquired {
		t.Errorf("source status = %s, want %s", final.Source.Status, source.StatusAcquired)
	}
	if final.Source.ErrorMessage != "" {
		t.Errorf("error message not cleared after retry: %q", final.Source.ErrorMessage)
	}
	if got := runner.Stats().Total(); got != 1 {
		t.Errorf("stats total = %d, want 1", got)
	}
	if len(sleeper.recorded()) != 2 {
		t.Errorf("slept %d times, want 2", len(sleeper.recorded()))
	}
}

func TestRunnerValidationFailureDoesNotRetry(t *testing.T) {
	acq := &stubAcquirer{
		kind: source.KindRemote,
		fn: func(ctx context.Context, attempt int, src *source.Data, update ProgressFunc) error {
			return services.Wrap(services.ErrValidation, "acquire", "remote", "bad url", nil)
		},
	}
	sleeper := &recordingSleeper{}
	runner, library := newTestRunner(t, acq, &stubDecoder{}, sleeper.sleep)
	item := addPendingRemote(t, library)

	if _, err := runner.Submit(context.Background(), item.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	runner.Wait()

	if acq.count() != 1 {
		t.Errorf("attempts = %d, want 1", acq.count())
	}
	if len(sleeper.recorded()) != 0 {
		t.Errorf("validation failure slept %d times", len(sleeper.recorded()))
	}
	if got := library.Get(item.ID).Status; got != media.StatusError {
		t.Errorf("status = %s, want %s", got, media.StatusError)
	}
}

func TestRunnerDecodeFailure(t *testing.T) {
	acq := &stubAcquirer{
		kind: source.KindRemote,
		fn: func(ctx context.Context, attempt int, src *source.Data, update ProgressFunc) error {
			update(func(d *source.Data) { d.FilePath = "/cache/clip.mp4" })
			return nil
		},
	}
	runner, library := newTestRunner(t, acq, &stubDecoder{err: errors.New("corrupt container")}, (&recordingSleeper{}).sleep)
	item := addPendingRemote(t, library)

	if _, err := runner.Submit(context.Background(), item.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	runner.Wait()

	final := library.Get(item.ID)
	if final.Status != media.StatusError {
		t.Fatalf("status = %s, want %s", final.Status, media.StatusError)
	}
}

func TestRunnerSubmitRequiresPending(t *testing.T) {
	acq := &stubAcquirer{kind: source.KindRemote, fn: func(context.Context, int, *source.Data, ProgressFunc) error { return nil }}
	runner, library := newTestRunner(t, acq, &stubDecoder{}, (&recordingSleeper{}).sleep)

	if _, err := runner.Submit(context.Background(), "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("submit unknown item: err = %v, want not-found", err)
	}

	item := addPendingRemote(t, library)
	if err := library.Transition(item.ID, media.StatusAsyncProcessing); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := runner.Submit(context.Background(), item.ID); !errors.Is(err, services.ErrPrecondition) {
		t.Errorf("submit non-pending item: err = %v, want precondition", err)
	}
}

func TestRunnerSubmitRejectsKindMismatch(t *testing.T) {
	acq := &stubAcquirer{kind: source.KindRemote, fn: func(context.Context, int, *source.Data, ProgressFunc) error { return nil }}
	runner, library := newTestRunner(t, acq, &stubDecoder{}, (&recordingSleeper{}).sleep)

	item := media.NewItem("Local", source.NewLocal("/tmp/a.mp4"))
	if err := library.Add(item); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := runner.Submit(context.Background(), item.ID); !errors.Is(err, services.ErrValidation) {
		t.Errorf("kind mismatch: err = %v, want validation", err)
	}
}

func TestRunnerCancelInFlight(t *testing.T) {
	started := make(chan struct{})
	acq := &stubAcquirer{
		kind: source.KindRemote,
		fn: func(ctx context.Context, attempt int, src *source.Data, update ProgressFunc) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		},
	}
	runner, library := newTestRunner(t, acq, &stubDecoder{}, (&recordingSleeper{}).sleep)
	item := addPendingRemote(t, library)

	taskID, err := runner.Submit(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	<-started
	if !runner.Cancel(taskID) {
		t.Fatal("cancel returned false for in-flight task")
	}
	runner.Wait()

	final := library.Get(item.ID)
	if final.Status != media.StatusCancelled {
		t.Errorf("status = %s, want %s", final.Status, media.StatusCancelled)
	}
	if final.Source.Status != source.StatusCancelled {
		t.Errorf("source status = %s, want %s", final.Source.Status, source.StatusCancelled)
	}
	if runner.Cancel(taskID) {
		t.Error("cancel after completion should be a no-op")
	}
}

func TestRunnerBoundedConcurrency(t *testing.T) {
	var mu sync.Mutex
	active, peak := 0, 0
	release := make(chan struct{})
	acq := &stubAcquirer{
		kind: source.KindRemote,
		fn: func(ctx context.Context, attempt int, src *source.Data, update ProgressFunc) error {
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()
			<-release
			mu.Lock()
			active--
			mu.Unlock()
			return nil
		},
	}
	library := media.NewLibrary(logging.NewNop())
	runner := NewRunner(logging.NewNop(), library, &stubDecoder{}, acq, Options{
		Concurrency: 2,
		MaxRetries:  1,
		BaseDelay:   time.Millisecond,
		MaxDelay:    time.Millisecond,
		Sleep:       (&recordingSleeper{}).sleep,
	})

	for i := 0; i < 5; i++ {
		item := addPendingRemote(t, library)
		if _, err := runner.Submit(context.Background(), item.ID); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	// Give the workers a moment to saturate the slots, then let them run.
	time.Sleep(50 * time.Millisecond)
	close(release)
	runner.Wait()

	mu.Lock()
	defer mu.Unlock()
	if peak > 2 {
		t.Errorf("peak concurrency = %d, want at most 2", peak)
	}
	if acq.count() != 5 {
		t.Errorf("attempts = %d, want 5", acq.count())
	}
}
