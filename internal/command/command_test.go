package command

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"cutline/internal/config"
	"cutline/internal/logging"
	"cutline/internal/media"
	"cutline/internal/mediasync"
	"cutline/internal/render"
	"cutline/internal/services"
	"cutline/internal/source"
	"cutline/internal/timeline"
)

type testClip struct {
	id       string
	released *atomic.Int32
}

func newTestClip(id string) *testClip {
	return &testClip{id: id, released: &atomic.Int32{}}
}

func (c *testClip) ID() string { return c.id }
func (c *testClip) Clone() media.ClipHandle {
	return &testClip{id: c.id, released: c.released}
}
func (c *testClip) Release() { c.released.Add(1) }

type stubEngine struct {
	mu        sync.Mutex
	objects   map[string]*render.Proxy
	rejectAdd bool
}

func newStubEngine() *stubEngine {
	return &stubEngine{objects: make(map[string]*render.Proxy)}
}

func (e *stubEngine) AddRenderObject(p *render.Proxy) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rejectAdd {
		return false
	}
	e.objects[p.ID] = p
	return true
}

func (e *stubEngine) RemoveRenderObject(p *render.Proxy) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.objects[p.ID]; !ok {
		return false
	}
	delete(e.objects, p.ID)
	return true
}

func (e *stubEngine) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.objects)
}

type env struct {
	deps    Deps
	library *media.Library
	store   *timeline.Store
	sync    *mediasync.Manager
	engine  *stubEngine
	track   *timeline.Track
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := logging.NewNop()
	library := media.NewLibrary(logger)
	store := timeline.NewStore(logger)
	manager := mediasync.NewManager(logger)
	engine := newStubEngine()

	track := timeline.NewTrack("Video 1", timeline.TrackKindVideo)
	if err := store.AddTrack(track); err != nil {
		t.Fatalf("add track: %v", err)
	}

	return &env{
		deps: Deps{
			Logger:   logger,
			Timeline: store,
			Library:  library,
			Sync:     manager,
			Engine:   engine,
			Project:  config.Default().Project,
		},
		library: library,
		store:   store,
		sync:    manager,
		engine:  engine,
		track:   track,
	}
}

func (e *env) addPendingMedia(t *testing.T, name string) *media.Item {
	t.Helper()
	item := media.NewItem(name, source.NewRemote("https://example.com/"+name+".mp4"))
	if err := e.library.Add(item); err != nil {
		t.Fatalf("add media: %v", err)
	}
	return item
}

func (e *env) addReadyMedia(t *testing.T, name string, frames int64) *media.Item {
	t.Helper()
	item := e.addPendingMedia(t, name)
	e.makeReady(t, item.ID, frames)
	return e.library.Get(item.ID)
}

func (e *env) makeReady(t *testing.T, mediaItemID string, frames int64) {
	t.Helper()
	for _, target := range []media.Status{media.StatusAsyncProcessing, media.StatusWebAVDecoding} {
		if err := e.library.Transition(mediaItemID, target); err != nil {
			t.Fatalf("transition to %s: %v", target, err)
		}
	}
	meta := media.Metadata{Type: media.TypeVideo, DurationFrames: frames, Width: 1920, Height: 1080}
	decoded := &media.DecodedObjects{Clip: newTestClip("clip-" + mediaItemID), Width: 1920, Height: 1080}
	if err := e.library.SetReady(mediaItemID, meta, decoded); err != nil {
		t.Fatalf("set ready: %v", err)
	}
}

func TestAddClipWithReadyMedia(t *testing.T) {
	e := newEnv(t)
	mediaItem := e.addReadyMedia(t, "beach", 120)

	cmd, err := NewAddClip(e.deps, mediaItem.ID, e.track.ID, 0, 30)
	if err != nil {
		t.Fatalf("new add clip: %v", err)
	}
	if err := cmd.Execute(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}

	item := e.store.GetItem(cmd.TimelineItemID())
	if item == nil {
		t.Fatal("timeline item missing after execute")
	}
	if item.Status != timeline.ItemStatusReady {
		t.Errorf("status = %s, want ready", item.Status)
	}
	if item.Range.Duration() != 120 {
		t.Errorf("duration = %d, want the real media duration 120", item.Range.Duration())
	}
	if item.Runtime.Proxy == nil {
		t.Fatal("ready item has no proxy")
	}
	if e.engine.count() != 1 {
		t.Errorf("engine holds %d proxies, want 1", e.engine.count())
	}

	if err := cmd.Undo(context.Background()); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if e.store.GetItem(cmd.TimelineItemID()) != nil {
		t.Error("timeline item still present after undo")
	}
	if e.engine.count() != 0 {
		t.Errorf("engine still holds %d proxies after undo", e.engine.count())
	}
}

func TestAddClipDeferredReadinessCatchUp(t *testing.T) {
	e := newEnv(t)
	mediaItem := e.addPendingMedia(t, "download")

	cmd, err := NewAddClip(e.deps, mediaItem.ID, e.track.ID, 0, 90)
	if err != nil {
		t.Fatalf("new add clip: %v", err)
	}
	if err := cmd.Execute(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}

	item := e.store.GetItem(cmd.TimelineItemID())
	if item.Status != timeline.ItemStatusLoading {
		t.Fatalf("status = %s, want loading while media is pending", item.Status)
	}
	if item.Runtime.Proxy != nil {
		t.Error("loading item must not carry a proxy")
	}
	if item.Runtime.SubscriptionKey == "" {
		t.Error("loading item should record its subscription")
	}
	if e.sync.Count() != 1 {
		t.Fatalf("registrations = %d, want 1", e.sync.Count())
	}

	// Download and decode finish with the real duration.
	e.makeReady(t, mediaItem.ID, 150)

	item = e.store.GetItem(cmd.TimelineItemID())
	if item.Status != timeline.ItemStatusReady {
		t.Fatalf("status = %s, want ready after catch-up", item.Status)
	}
	if got := item.Range.TimelineEnd - item.Range.TimelineStart; got != 150 {
		t.Errorf("timeline duration = %d, want 150", got)
	}
	if item.Runtime.Proxy == nil {
		t.Error("caught-up item has no proxy")
	}
	if item.Runtime.SubscriptionKey != "" {
		t.Error("subscription key not cleared after catch-up")
	}
	if e.sync.Count() != 0 {
		t.Errorf("registrations = %d after catch-up, want 0", e.sync.Count())
	}

	if err := cmd.Undo(context.Background()); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if e.store.GetItem(cmd.TimelineItemID()) != nil {
		t.Error("timeline item still present after undo")
	}
	if regs := e.sync.RegistrationsFor(cmd.ID()); len(regs) != 0 {
		t.Errorf("command still owns %d registrations after undo", len(regs))
	}
	if e.engine.count() != 0 {
		t.Errorf("engine still holds %d proxies after undo", e.engine.count())
	}
}

func TestAddClipUndoWhileStillLoading(t *testing.T) {
	e := newEnv(t)
	mediaItem := e.addPendingMedia(t, "slow")

	cmd, err := NewAddClip(e.deps, mediaItem.ID, e.track.ID, 0, 60)
	if err != nil {
		t.Fatalf("new add clip: %v", err)
	}
	if err := cmd.Execute(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if err := cmd.Undo(context.Background()); err != nil {
		t.Fatalf("undo before readiness: %v", err)
	}
	if e.sync.Count() != 0 {
		t.Errorf("registrations = %d after undo, want 0", e.sync.Count())
	}

	// Readiness arriving after undo must not resurrect the item.
	e.makeReady(t, mediaItem.ID, 99)
	if e.store.GetItem(cmd.TimelineItemID()) != nil {
		t.Error("undone item reappeared after late readiness")
	}
	if e.engine.count() != 0 {
		t.Errorf("engine holds %d proxies, want 0", e.engine.count())
	}
}

func TestAddClipMediaFailureDegradesItem(t *testing.T) {
	e := newEnv(t)
	mediaItem := e.addPendingMedia(t, "broken")

	cmd, err := NewAddClip(e.deps, mediaItem.ID, e.track.ID, 0, 60)
	if err != nil {
		t.Fatalf("new add clip: %v", err)
	}
	if err := cmd.Execute(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if err := e.library.Fail(mediaItem.ID, "server returned 500"); err != nil {
		t.Fatalf("fail media: %v", err)
	}

	item := e.store.GetItem(cmd.TimelineItemID())
	if item.Status != timeline.ItemStatusError {
		t.Errorf("status = %s, want error", item.Status)
	}
	if e.sync.Count() != 0 {
		t.Errorf("registrations = %d after failure, want 0", e.sync.Count())
	}
}

func TestAddClipRejectsUnusableMedia(t *testing.T) {
	e := newEnv(t)
	mediaItem := e.addPendingMedia(t, "bad")
	if err := e.library.Fail(mediaItem.ID, "no good"); err != nil {
		t.Fatalf("fail media: %v", err)
	}

	cmd, err := NewAddClip(e.deps, mediaItem.ID, e.track.ID, 0, 60)
	if err != nil {
		t.Fatalf("new add clip: %v", err)
	}
	if err := cmd.Execute(context.Background()); !errors.Is(err, services.ErrPrecondition) {
		t.Errorf("execute on failed media: err = %v, want precondition", err)
	}
	if len(e.store.Items()) != 0 {
		t.Error("failed execute left a timeline item behind")
	}

	if _, err := NewAddClip(e.deps, "no-such-media", e.track.ID, 0, 60); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("unknown media: err = %v, want not-found", err)
	}
}

func TestAddClipRollsBackWhenEngineRejects(t *testing.T) {
	e := newEnv(t)
	e.engine.rejectAdd = true
	mediaItem := e.addReadyMedia(t, "rejected", 50)

	cmd, err := NewAddClip(e.deps, mediaItem.ID, e.track.ID, 0, 50)
	if err != nil {
		t.Fatalf("new add clip: %v", err)
	}
	if err := cmd.Execute(context.Background()); err == nil {
		t.Fatal("execute should fail when the engine rejects the proxy")
	}
	if len(e.store.Items()) != 0 {
		t.Error("partial failure left a timeline item without a proxy")
	}
}

func TestRemoveClipAndUndo(t *testing.T) {
	e := newEnv(t)
	mediaItem := e.addReadyMedia(t, "keeper", 80)

	add, err := NewAddClip(e.deps, mediaItem.ID, e.track.ID, 10, 80)
	if err != nil {
		t.Fatalf("new add clip: %v", err)
	}
	if err := add.Execute(context.Background()); err != nil {
		t.Fatalf("add: %v", err)
	}

	remove, err := NewRemoveClip(e.deps, add.TimelineItemID())
	if err != nil {
		t.Fatalf("new remove clip: %v", err)
	}
	if err := remove.Execute(context.Background()); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if e.store.GetItem(add.TimelineItemID()) != nil {
		t.Fatal("item still present after remove")
	}
	if e.engine.count() != 0 {
		t.Errorf("engine holds %d proxies after remove", e.engine.count())
	}

	if err := remove.Undo(context.Background()); err != nil {
		t.Fatalf("undo remove: %v", err)
	}
	restored := e.store.GetItem(add.TimelineItemID())
	if restored == nil {
		t.Fatal("item not rebuilt by undo")
	}
	if restored.Status != timeline.ItemStatusReady {
		t.Errorf("restored status = %s, want ready", restored.Status)
	}
	if restored.Range.TimelineStart != 10 {
		t.Errorf("restored start = %d, want 10", restored.Range.TimelineStart)
	}
	if e.engine.count() != 1 {
		t.Errorf("engine holds %d proxies after undo, want 1", e.engine.count())
	}
}

func TestRemoveClipTearsDownSubscription(t *testing.T) {
	e := newEnv(t)
	mediaItem := e.addPendingMedia(t, "loading")

	add, err := NewAddClip(e.deps, mediaItem.ID, e.track.ID, 0, 40)
	if err != nil {
		t.Fatalf("new add clip: %v", err)
	}
	if err := add.Execute(context.Background()); err != nil {
		t.Fatalf("add: %v", err)
	}
	remove, err := NewRemoveClip(e.deps, add.TimelineItemID())
	if err != nil {
		t.Fatalf("new remove clip: %v", err)
	}
	if err := remove.Execute(context.Background()); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if e.sync.Count() != 0 {
		t.Errorf("registrations = %d after removing loading item, want 0", e.sync.Count())
	}
}
